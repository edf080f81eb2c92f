package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidDimensions = errors.New("image dimensions must be positive")
	ErrInvalidImage      = errors.New("unsupported or corrupt image")
	ErrStaleGeneration   = errors.New("result superseded by a newer request")
	ErrInvalidInput      = errors.New("invalid input")
)

// RemoteServiceError is returned by every provider gateway. Cause carries the
// transport or decoding failure and is only ever logged.
type RemoteServiceError struct {
	Provider string
	Op       string
	Status   int
	Cause    error
}

func (e *RemoteServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.Status, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Cause)
}

func (e *RemoteServiceError) Unwrap() error { return e.Cause }

// Invalid wraps ErrInvalidInput with a client-facing message.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func IsRemote(err error) bool {
	var re *RemoteServiceError
	return errors.As(err, &re)
}
