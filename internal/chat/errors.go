package chat

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned by Ask when the query is blank.
	ErrEmptyQuery = errors.New("empty query")
	// ErrConfiguration is returned by NewSession for invalid parameters.
	ErrConfiguration = errors.New("invalid session configuration")
)

// ConfigError names the construction parameter that was rejected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// RetrievalError wraps a failure of the Retriever.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError wraps a failure of the Generator. Stage is "condense" or
// "generate".
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same Ask may succeed.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var re *RetrievalError
	var ge *GenerationError
	return errors.As(err, &re) || errors.As(err, &ge)
}
