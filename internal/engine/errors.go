package engine

import (
	"errors"
	"fmt"
)

// Error is returned by Watcher operations that could not be applied.
//
// A trigger refused because the condition is limited is NOT an Error: it is
// the normal (false, nil) outcome.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Condition is the affected condition name, if any.
	Condition string

	// Err is the underlying cause (store failure, validation error).
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the condition name was never registered.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeTypeMismatch indicates an operation that does not apply to the
	// condition's type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodePersistence indicates the durable write failed. The in-memory
	// change was rolled back.
	ErrCodePersistence ErrorCode = "PERSISTENCE_FAILED"

	// ErrCodeInvalidCondition indicates a definition or argument is invalid.
	ErrCodeInvalidCondition ErrorCode = "INVALID_CONDITION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Condition != "" {
		msg = fmt.Sprintf("%s (condition=%s)", msg, e.Condition)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first Error in err's chain, or "" when
// there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsNotFound returns true if the error is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsTypeMismatch returns true if the error is a type mismatch error.
func IsTypeMismatch(err error) bool {
	return hasCode(err, ErrCodeTypeMismatch)
}

// IsPersistenceError returns true if the error is a persistence failure.
func IsPersistenceError(err error) bool {
	return hasCode(err, ErrCodePersistence)
}

// IsInvalidCondition returns true if the error is a validation error.
func IsInvalidCondition(err error) bool {
	return hasCode(err, ErrCodeInvalidCondition)
}

// NewNotFoundError creates an Error for an unregistered condition.
func NewNotFoundError(name string) *Error {
	return &Error{
		Code:      ErrCodeNotFound,
		Message:   "condition is not registered",
		Condition: name,
	}
}

// NewTypeMismatchError creates an Error for an operation applied to a
// condition of the wrong type.
func NewTypeMismatchError(name, operation string, got fmt.Stringer) *Error {
	return &Error{
		Code:      ErrCodeTypeMismatch,
		Message:   fmt.Sprintf("%s does not apply to a %s condition", operation, got),
		Condition: name,
	}
}

// NewPersistenceError creates an Error for a failed durable write.
func NewPersistenceError(name string, err error) *Error {
	return &Error{
		Code:      ErrCodePersistence,
		Message:   "failed to persist condition state",
		Condition: name,
		Err:       err,
	}
}

// NewInvalidConditionError creates an Error for invalid input.
func NewInvalidConditionError(name string, err error) *Error {
	return &Error{
		Code:      ErrCodeInvalidCondition,
		Message:   "invalid condition",
		Condition: name,
		Err:       err,
	}
}
