package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// RetrySource is a decorator that retries transient page fetch failures with
// exponential backoff and jitter before giving up.
type RetrySource struct {
	inner      model.Source
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetrySource wraps a Source with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetrySource(inner model.Source, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySource {
	return &RetrySource{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

func (s *RetrySource) Name() string { return s.inner.Name() }

// FetchPage fetches one page, retrying on transient errors. The final error
// is classified as a transient fetch failure when retries were exhausted.
func (s *RetrySource) FetchPage(ctx context.Context, page int) (model.Page, error) {
	p, err := s.inner.FetchPage(ctx, page)
	if err == nil {
		return p, nil
	}
	if ctx.Err() != nil {
		return model.Page{}, fmt.Errorf("retry cancelled: %w", ctx.Err())
	}
	if !isRetryable(err) {
		return model.Page{}, err
	}

	lastErr := err
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		delay := s.backoffDelay(attempt, lastErr)

		s.logger.Warn("retrying after transient error",
			"source", s.inner.Name(),
			"page", page,
			"attempt", attempt,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return model.Page{}, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		p, err = s.inner.FetchPage(ctx, page)
		if err == nil {
			return p, nil
		}
		if !isRetryable(err) {
			return model.Page{}, err
		}
		lastErr = err
	}

	return model.Page{}, model.NewStageError(model.KindTransientFetch, "fetch", s.inner.Name(),
		fmt.Errorf("page %d failed after %d attempts: %w", page, s.maxRetries+1, lastErr))
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (s *RetrySource) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := s.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth
// retrying. A client timeout on a single request is retried.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 || httpErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	// Network, DNS and truncated-body errors.
	return true
}
