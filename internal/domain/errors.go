package domain

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInference      = errors.New("inference failure")
	ErrEditSubmission = errors.New("image edit submission failed")
	ErrEditFailed     = errors.New("image edit failed")
	ErrEditTimeout    = errors.New("timed out waiting for image edit result")
	ErrNoBackgrounds  = errors.New("no background could be generated")
)

// InputError is a client-side mistake (missing or excess files, malformed
// prior results). It always matches ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewInputError builds an InputError carrying a human-readable message.
func NewInputError(msg string) error {
	return &InputError{Message: msg}
}
