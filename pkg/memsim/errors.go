package memsim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is matched by every *ValidationError.
	ErrInvalidRequest = errors.New("memsim: invalid request")

	// ErrInsufficientSpace indicates no single hole can hold the request.
	ErrInsufficientSpace = errors.New("memsim: insufficient contiguous memory")

	// ErrDuplicateProcess indicates the process already holds a block.
	ErrDuplicateProcess = errors.New("memsim: process already holds memory")

	// ErrProcessNotFound indicates the process holds no block.
	ErrProcessNotFound = errors.New("memsim: process not found")
)

// ValidationError reports a malformed request field. The map is never
// touched when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("memsim: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidRequest) match.
func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }
