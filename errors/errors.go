package errors

import (
	stderrors "errors"
	"fmt"
)

// Kinds of domain rule violations. A ValidationError always carries one of them.
var (
	ErrNotFound         = fmt.Errorf("not found")
	ErrAlreadyExists    = fmt.Errorf("already exists")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrPermissionDenied = fmt.Errorf("permission denied")
)

// ErrWorkerPanic is reported when a supervised worker panicked.
var ErrWorkerPanic = fmt.Errorf("worker panic")

// ErrPartialDelivery is the kind returned when a direct message was persisted
// for part of the requested recipients only.
var ErrPartialDelivery = fmt.Errorf("%w: partial delivery", ErrPermissionDenied)

// ValidationError reports a violated domain rule.
// errors.Is(err, ErrNotFound) and friends match on Kind.
type ValidationError struct {
	Kind    error
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func NotFound(format string, args ...any) error {
	return &ValidationError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func AlreadyExists(format string, args ...any) error {
	return &ValidationError{Kind: ErrAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) error {
	return &ValidationError{Kind: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func PermissionDenied(format string, args ...any) error {
	return &ValidationError{Kind: ErrPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func PartialDelivery(format string, args ...any) error {
	return &ValidationError{Kind: ErrPartialDelivery, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}
