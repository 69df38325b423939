package resolver

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaNodeMismatch indicates an ordered node that does not line up
	// with the catalog it is resolved against
	ErrSchemaNodeMismatch = errors.New("schema and node do not match")

	// ErrCoercionFailure indicates the accessor could not represent a value as
	// the declared primitive kind
	ErrCoercionFailure = errors.New("coercion failure")
)

// Error codes
const (
	CodeSchemaNodeMismatch = "SCHEMA_NODE_MISMATCH"
	CodeCoercionFailure    = "COERCION_FAILURE"
)

// Error is a record-level resolution failure
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Field is the name of the field being resolved, if any
	Field string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	prefix := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Field != "" {
		prefix += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Err != nil {
		return prefix + ": " + e.Err.Error()
	}
	return prefix
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error code
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeSchemaNodeMismatch:
		return target == ErrSchemaNodeMismatch
	case CodeCoercionFailure:
		return target == ErrCoercionFailure
	}
	return false
}

func mismatchError(field string, format string, args ...any) *Error {
	return &Error{
		Code:    CodeSchemaNodeMismatch,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	}
}

func coercionError(field string, err error) *Error {
	return &Error{
		Code:    CodeCoercionFailure,
		Message: "value cannot be coerced to the declared type",
		Field:   field,
		Err:     err,
	}
}

// IsSchemaNodeMismatch checks if an error is a schema/node mismatch
func IsSchemaNodeMismatch(err error) bool {
	return errors.Is(err, ErrSchemaNodeMismatch)
}

// IsCoercionFailure checks if an error is a coercion failure
func IsCoercionFailure(err error) bool {
	return errors.Is(err, ErrCoercionFailure)
}
