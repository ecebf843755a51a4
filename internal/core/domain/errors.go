package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidImage   = errors.New("invalid image")
	ErrProcessing     = errors.New("processing failure")
	ErrTransient      = errors.New("transient failure")
	ErrJobNotFound    = errors.New("job not found")
	ErrStatusConflict = errors.New("job status conflict")
	ErrInvalidInput   = errors.New("invalid input")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsRetryable reports whether the lifecycle may re-run a job after this
// error. Undecodable input is permanent; everything else in the taxonomy
// may be attempted again up to the configured attempt limit.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProcessing) || errors.Is(err, ErrTransient)
}

// ErrorCode maps an error to the code exposed in the job status contract.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidImage):
		return "InvalidImage"
	case errors.Is(err, ErrTransient):
		return "TransientError"
	default:
		return "ProcessingError"
	}
}
