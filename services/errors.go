package services

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrValidation marks input rejected before any side effect
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned by Login for an unknown email or wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUpstreamTimeout means the model did not answer within the budget
	ErrUpstreamTimeout = errors.New("model call timed out")
	// ErrUpstreamError means the model call failed outright
	ErrUpstreamError = errors.New("model call failed")
)

// validationError carries a client-facing message and matches ErrValidation
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

func validationf(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}
