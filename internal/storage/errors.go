package storage

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks any backend fault. Callers match it with errors.Is.
var ErrUnavailable = errors.New("storage unavailable")

// Error carries the failing operation and the backend cause.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUnavailable, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrUnavailable }

func unavailable(op string, err error) error {
	return &Error{Op: op, Err: err}
}
