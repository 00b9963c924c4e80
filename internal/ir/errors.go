package ir

import (
	"errors"
	"fmt"
)

// Error represents a failure detected while optimizing or evaluating a plan.
//
// Errors are never retried and never partially recovered: every Error aborts
// the current optimization or evaluation call.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Column names the offending column (schema errors).
	Column string

	// Source names the offending relation (source access errors).
	Source string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeSchema indicates a referenced column is absent from a schema,
	// or a schema would stop being a bijection.
	ErrCodeSchema ErrorCode = "SCHEMA"

	// ErrCodePrecedence indicates a pass received a node shape it does not
	// support. It always signals a pass-ordering bug.
	ErrCodePrecedence ErrorCode = "PRECEDENCE"

	// ErrCodeUnsupportedOperator indicates an unknown logical or comparator
	// token in a plan document.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeSourceAccess indicates an external relation could not be read.
	ErrCodeSourceAccess ErrorCode = "SOURCE_ACCESS"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Column != "" {
		msg = fmt.Sprintf("%s (column=%s)", msg, e.Column)
	}
	if e.Source != "" {
		msg = fmt.Sprintf("%s (source=%s)", msg, e.Source)
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

// NewSchemaError creates an Error for a column missing from a schema.
func NewSchemaError(column, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeSchema,
		Message: fmt.Sprintf(format, args...),
		Column:  column,
	}
}

// NewPrecedenceError creates an Error for an unsupported node shape.
func NewPrecedenceError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodePrecedence,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewUnsupportedOperatorError creates an Error for an unknown operator token.
func NewUnsupportedOperatorError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedOperator,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewSourceAccessError creates an Error for an unreadable relation.
func NewSourceAccessError(source string, err error) *Error {
	return &Error{
		Code:    ErrCodeSourceAccess,
		Message: "cannot read relation",
		Source:  source,
		Err:     err,
	}
}

// IsSchemaError returns true if the error is a schema error.
// Uses errors.As to handle wrapped errors.
func IsSchemaError(err error) bool {
	return hasCode(err, ErrCodeSchema)
}

// IsPrecedenceError returns true if the error is a precedence error.
func IsPrecedenceError(err error) bool {
	return hasCode(err, ErrCodePrecedence)
}

// IsUnsupportedOperatorError returns true if the error is an unsupported operator error.
func IsUnsupportedOperatorError(err error) bool {
	return hasCode(err, ErrCodeUnsupportedOperator)
}

// IsSourceAccessError returns true if the error is a source access error.
func IsSourceAccessError(err error) bool {
	return hasCode(err, ErrCodeSourceAccess)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
