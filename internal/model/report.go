package model

import "time"

// SourceStats summarizes one connector run.
type SourceStats struct {
	Source   string `json:"source"`
	Pages    int    `json:"pages"`
	Fetched  int    `json:"fetched"`
	Filtered int    `json:"filtered"`
	Skipped  int    `json:"skipped"` // already covered by the checkpoint
	Staged   int    `json:"staged"`
	Error    string `json:"error,omitempty"`
}

// NormalizeStats summarizes the normalization stage.
type NormalizeStats struct {
	Read       int `json:"read"`
	Normalized int `json:"normalized"`
	Rejected   int `json:"rejected"`
	Degraded   int `json:"degraded"`
}

// LoadStats summarizes the warehouse load stage.
type LoadStats struct {
	Batches       int `json:"batches"`
	Loaded        int `json:"loaded"`
	FailedBatches int `json:"failed_batches"`
	FailedRecords int `json:"failed_records"`
}

// RunReport is the operator-visible outcome of one pipeline run.
type RunReport struct {
	RunID         string         `json:"run_id"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	DryRun        bool           `json:"dry_run"`
	Sources       []SourceStats  `json:"sources"`
	Normalize     NormalizeStats `json:"normalize"`
	Load          LoadStats      `json:"load"`
	SnapshotError string         `json:"snapshot_error,omitempty"`
}

// FailedSources returns the names of sources whose connector run failed.
func (r RunReport) FailedSources() []string {
	var out []string
	for _, s := range r.Sources {
		if s.Error != "" {
			out = append(out, s.Source)
		}
	}
	return out
}

// Healthy reports whether every stage completed without failures.
func (r RunReport) Healthy() bool {
	return len(r.FailedSources()) == 0 && r.Load.FailedBatches == 0 && r.SnapshotError == ""
}
