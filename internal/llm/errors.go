package llm

import (
	"errors"
	"fmt"
)

// ErrRateLimitExceeded matches every *RateLimitExceededError via errors.Is.
var ErrRateLimitExceeded = errors.New("llm: rate limit exceeded")

// RateLimitExceededError is returned once the retry budget is spent on
// consecutive rate-limit signals.
type RateLimitExceededError struct {
	Attempts int
	Last     error
}

func (e *RateLimitExceededError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("llm: rate limited after %d attempts: %v", e.Attempts, e.Last)
	}
	return fmt.Sprintf("llm: rate limited after %d attempts", e.Attempts)
}

func (e *RateLimitExceededError) Is(target error) bool { return target == ErrRateLimitExceeded }
func (e *RateLimitExceededError) Unwrap() error        { return e.Last }

// RemoteError reports a non-recoverable failure from the remote service
// (authentication, malformed response, server error).
type RemoteError struct {
	Provider string
	Err      error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Provider, e.Err)
}
func (e *RemoteError) Unwrap() error { return e.Err }
