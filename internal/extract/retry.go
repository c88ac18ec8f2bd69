package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"invomatch/internal/config"
	"invomatch/internal/domain"
	"invomatch/internal/port"
	"invomatch/internal/record"
)

// RetryingExtractor wraps a FieldExtractor with bounded exponential backoff.
// Auth failures and malformed responses fail immediately; transient errors
// (network, 5xx, rate limits) are retried until the attempt budget runs out,
// which surfaces as ErrExtractionUnavailable. Each attempt gets its own
// timeout so a hung call counts against the budget instead of eating it.
type RetryingExtractor struct {
	inner          port.FieldExtractor
	maxAttempts    int
	backoffBase    time.Duration
	attemptTimeout time.Duration
}

// NewRetryingExtractor wraps inner with the retry policy from cfg.
func NewRetryingExtractor(inner port.FieldExtractor, cfg *config.ExtractConfig) *RetryingExtractor {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	base := time.Duration(cfg.BackoffBaseMS) * time.Millisecond
	if base <= 0 {
		base = time.Second
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RetryingExtractor{
		inner:          inner,
		maxAttempts:    maxAttempts,
		backoffBase:    base,
		attemptTimeout: timeout,
	}
}

// Extract implements port.FieldExtractor.
func (r *RetryingExtractor) Extract(ctx context.Context, content domain.RenderedContent, kind domain.DocumentKind) (*record.Extracted, error) {
	var lastErr error
	delay := r.backoffBase

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
		rec, err := r.inner.Extract(attemptCtx, content, kind)
		cancel()
		if err == nil {
			return rec, nil
		}
		lastErr = err

		if errors.Is(err, domain.ErrExtractionAuth) || errors.Is(err, domain.ErrExtractionParse) {
			return nil, err
		}
		if ctx.Err() != nil {
			// The run itself was canceled; don't dress that up as unavailability.
			return nil, ctx.Err()
		}
		if attempt == r.maxAttempts {
			break
		}

		wait := delay
		var rlErr *RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > wait {
			wait = rlErr.RetryAfter
		}
		log.Printf("extract: %s attempt %d/%d failed, retrying in %s: %v", kind, attempt, r.maxAttempts, wait, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("%w: %d attempts failed, last: %v", domain.ErrExtractionUnavailable, r.maxAttempts, lastErr)
}
