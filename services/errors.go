package services

import (
	"errors"
	"fmt"
)

// Lookup misses. Recovered locally by callers; never fatal.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrRewardNotFound = errors.New("reward not found")
	ErrTaskNotFound   = errors.New("task not found")
)

// InvalidOperationError is a business-rule violation: inactive reward,
// exhausted claim limit, duplicate one-time completion, negative XP delta.
// Always surfaced with a human-readable reason, never retried.
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return "invalid operation: " + e.Reason
}

func invalidOp(format string, args ...any) error {
	return &InvalidOperationError{Reason: fmt.Sprintf(format, args...)}
}

// InsufficientPointsError is distinguished from InvalidOperationError so
// callers can render a "top up" prompt with the exact shortfall.
type InsufficientPointsError struct {
	Have int64
	Need int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: have %d, need %d", e.Have, e.Need)
}

// StorageError wraps a persistence-layer failure. Propagated, never
// swallowed; the caller decides whether to retry the whole operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsNotFound reports whether err is any of the lookup-miss errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrRewardNotFound) ||
		errors.Is(err, ErrTaskNotFound)
}
