package llm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited marks quota or inter-request-interval violations.
	ErrRateLimited = errors.New("rate limited")
	// ErrTimeout marks a completion call that exceeded its deadline.
	ErrTimeout = errors.New("completion timeout")
)

// RateLimitedError carries the wait hint alongside ErrRateLimited identity.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Millisecond))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// APIError is a non-timeout, non-quota provider failure.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
}
