package types

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrLockViolation = errors.New("lock violation")
	ErrNotFound      = errors.New("not found")
	ErrPersistence   = errors.New("persistence error")
)

// Validation wraps ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

// Conflict wraps ErrConflict with a formatted message.
func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

// LockViolation wraps ErrLockViolation with a formatted message.
func LockViolation(format string, args ...any) error {
	return wrap(ErrLockViolation, format, args...)
}

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// Persistence wraps ErrPersistence around the underlying storage error.
func Persistence(err error, format string, args ...any) error {
	if err == nil {
		return wrap(ErrPersistence, format, args...)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, fmt.Sprintf(format, args...), err)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
