package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimited indicates the provider returned 429.
type ErrRateLimited struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimited) Unwrap() error { return e.Err }

// ErrBadResponse indicates the model returned content that failed schema
// validation or could not be parsed.
type ErrBadResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrBadResponse) Error() string {
	return fmt.Sprintf("bad LLM response: %v", e.Err)
}

func (e *ErrBadResponse) Unwrap() error { return e.Err }

// ErrUnavailable indicates the provider is down or unreachable.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }
