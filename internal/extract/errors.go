package extract

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultRetryAfter = 30 * time.Second

// RateLimitError indicates the extraction provider returned HTTP 429.
// RetryAfter is the provider-requested wait, or a 30s default when the
// response carried none; the retry wrapper uses it in place of its own
// backoff when it is longer.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError, applying the default wait when
// retryAfter is zero or negative.
func NewRateLimitError(provider string, err error, retryAfter time.Duration) *RateLimitError {
	if retryAfter <= 0 {
		retryAfter = defaultRetryAfter
	}
	return &RateLimitError{Provider: provider, RetryAfter: retryAfter, Err: err}
}

// ParseRetryAfterHeader reads a Retry-After value in either of its two legal
// forms: delay seconds or an HTTP date. Returns 0 for anything unreadable
// and for dates already in the past.
func ParseRetryAfterHeader(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(val); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
