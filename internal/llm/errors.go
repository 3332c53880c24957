package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// CompletionError reports that a provider could not produce a completion.
type CompletionError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s completion failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// NewCompletionError wraps err as a CompletionError for provider.
func NewCompletionError(provider string, statusCode int, err error) *CompletionError {
	return &CompletionError{Provider: provider, StatusCode: statusCode, Err: err}
}

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// IsRetryable reports whether a failed completion is worth another attempt.
// Rate limits, transport failures (client timeouts included) and 5xx responses
// are retryable; other 4xx responses are not. Callers check their own context
// separately, since a client timeout also matches context.DeadlineExceeded.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	var cErr *CompletionError
	if errors.As(err, &cErr) {
		return cErr.StatusCode == 0 || cErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
