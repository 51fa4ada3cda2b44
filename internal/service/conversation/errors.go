package conversation

import (
	"errors"

	"github.com/dailytracker/backend/internal/model/emotion"
)

// ErrValidation matches every malformed-input rejection.
var ErrValidation = errors.New("validation failed")

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

// Rejections reported in Outcome.Err. None of them is fatal: the user is re-prompted
// and the session stays where it was.
var (
	ErrInvalidNumericInput error = &validationError{msg: "meals count must be a non-negative integer"}
	ErrInvalidDateFormat   error = &validationError{msg: "date must be written as YYYY-MM-DD"}
	ErrEmptyAnswer         error = &validationError{msg: "answer must not be empty"}

	ErrEmptySelection  = emotion.ErrEmptySelection
	ErrUnexpectedInput = errors.New("unexpected input in current state")
)
