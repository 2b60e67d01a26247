package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobpulse/internal/model"
)

// SourceRateLimiter enforces a minimum delay between requests to the same source.
type SourceRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter // key: source name
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewSourceRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same source. overrides may set a different
// delay per source name.
func NewSourceRateLimiter(minDelay time.Duration, overrides map[string]time.Duration) *SourceRateLimiter {
	return &SourceRateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (r *SourceRateLimiter) limiterFor(source string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[source]; ok {
		return l
	}
	delay := r.minDelay
	if d, ok := r.overrides[source]; ok {
		delay = d
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	l := rate.NewLimiter(limit, 1)
	r.limiters[source] = l
	return l
}

// Wait blocks until enough time has passed since the last request to the given source.
// Returns an error if the context is cancelled while waiting.
func (r *SourceRateLimiter) Wait(ctx context.Context, source string) error {
	if err := r.limiterFor(source).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", source, err)
	}
	return nil
}

// RateLimitedSource is a decorator that waits on the shared limiter before
// every page fetch.
type RateLimitedSource struct {
	inner   model.Source
	limiter *SourceRateLimiter
}

// NewRateLimitedSource wraps a Source with source-level rate limiting.
func NewRateLimitedSource(inner model.Source, limiter *SourceRateLimiter) *RateLimitedSource {
	return &RateLimitedSource{inner: inner, limiter: limiter}
}

func (s *RateLimitedSource) Name() string { return s.inner.Name() }

// FetchPage waits for the rate limiter to allow a request, then delegates to
// the wrapped source.
func (s *RateLimitedSource) FetchPage(ctx context.Context, page int) (model.Page, error) {
	if err := s.limiter.Wait(ctx, s.inner.Name()); err != nil {
		return model.Page{}, err
	}
	return s.inner.FetchPage(ctx, page)
}
