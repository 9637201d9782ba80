package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means the client cannot run, usually because no API key was given.
	ErrConfiguration = errors.New("llm: API key is not configured")
	// ErrNoCandidates means the provider answered with an empty candidate list.
	ErrNoCandidates = errors.New("llm: response has no candidates")
	// ErrRetriesExhausted means every attempt failed with a transient error.
	ErrRetriesExhausted = errors.New("llm: retries exhausted")
)

// TransientError is a failed attempt that may succeed when repeated:
// timeouts, connection errors and non-2xx responses.
type TransientError struct {
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient LLM error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient LLM error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// MalformedResponseError is a successful response whose content cannot be
// used. It is never retried.
type MalformedResponseError struct {
	Body json.RawMessage
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed LLM response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// GenerationFailure is the terminal error of Client.Call.
type GenerationFailure struct {
	Attempts int
	Err      error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }
