package dsl

import (
	"errors"
	"fmt"

	"dsl-go/internal/snapshot"
)

var (
	// ErrNotFound is returned when a lookup by id or date misses.
	ErrNotFound = errors.New("not found")

	// ErrConstraint is returned for a second session on the same date or a
	// stat block that references a missing session.
	ErrConstraint = errors.New("constraint violation")

	// ErrInvalidFormat is returned when an import document is malformed.
	ErrInvalidFormat = snapshot.ErrInvalidFormat

	// ErrInvalidInput is returned for out-of-range user input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage matches any *StorageError.
	ErrStorage = errors.New("storage error")
)

// StorageError wraps a failure of the underlying persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
