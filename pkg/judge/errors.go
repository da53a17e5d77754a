package judge

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyStory = errors.New("judge: story is empty")
	ErrNoBackend  = errors.New("judge: no completion backend configured")
)

// CallError means the backend could not be reached or answered with an error.
type CallError struct {
	Attempt int
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("judge: model call failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// ParseError means the backend answered but no JSON object could be
// recovered, even after the retry.
type ParseError struct {
	Preview string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("judge: model response could not be parsed: %q", e.Preview)
}
