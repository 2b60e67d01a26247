package model

import (
	"slices"
	"strconv"
	"time"
)

// MaxRecentIDs caps the remembered-ID window kept in a checkpoint.
const MaxRecentIDs = 10000

// Checkpoint is the last successfully ingested position for a source.
type Checkpoint struct {
	Source         string     `json:"source"`
	LastExternalID string     `json:"last_external_id,omitempty"`
	LastPostedAt   *time.Time `json:"last_posted_at,omitempty"`
	RecentIDs      []string   `json:"recent_ids,omitempty"`
	LoadedOffset   int64      `json:"loaded_offset"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsZero reports whether nothing has been ingested for the source yet.
func (c Checkpoint) IsZero() bool {
	return c.LastExternalID == "" && c.LastPostedAt == nil && len(c.RecentIDs) == 0
}

// Covers reports whether p is at or before the checkpoint.
//
// Numeric IDs are compared numerically. Otherwise a posting is covered when
// its ID was already seen or it was posted strictly before LastPostedAt.
func (c Checkpoint) Covers(p RawPosting) bool {
	if c.IsZero() {
		return false
	}
	if last, ok := numericID(c.LastExternalID); ok {
		if id, ok := numericID(p.ExternalID); ok {
			return id <= last
		}
	}
	if slices.Contains(c.RecentIDs, p.ExternalID) {
		return true
	}
	if c.LastPostedAt != nil && p.PostedAt != nil {
		return p.PostedAt.Before(*c.LastPostedAt)
	}
	return false
}

// Advance returns a copy of c moved forward past the given newly staged
// postings. An empty slice returns c unchanged.
func (c Checkpoint) Advance(staged []RawPosting, now time.Time) Checkpoint {
	if len(staged) == 0 {
		return c
	}
	next := c
	next.RecentIDs = slices.Clone(c.RecentIDs)

	for _, p := range staged {
		if newer(p.ExternalID, next.LastExternalID) {
			next.LastExternalID = p.ExternalID
		}
		if p.PostedAt != nil && (next.LastPostedAt == nil || p.PostedAt.After(*next.LastPostedAt)) {
			t := *p.PostedAt
			next.LastPostedAt = &t
		}
		if !slices.Contains(next.RecentIDs, p.ExternalID) {
			next.RecentIDs = append(next.RecentIDs, p.ExternalID)
		}
	}
	if n := len(next.RecentIDs); n > MaxRecentIDs {
		next.RecentIDs = next.RecentIDs[n-MaxRecentIDs:]
	}
	next.UpdatedAt = now
	return next
}

// newer reports whether candidate should replace current as the last ID.
// Non-numeric IDs carry no order, so the most recently staged one wins.
func newer(candidate, current string) bool {
	if current == "" {
		return true
	}
	a, okA := numericID(candidate)
	b, okB := numericID(current)
	if okA && okB {
		return a > b
	}
	return !okB
}

func numericID(id string) (int64, bool) {
	if id == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
