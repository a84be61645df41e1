package mapper

import (
	"errors"
	"fmt"
)

// Error is a mapper-level failure. Storage errors are never converted to
// Error; they reach the caller as returned by the connection.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Table is the mapper's table, empty when none is bound.
	Table string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes mapper errors.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates a mapper set up unfit for the call:
	// no table, no primary key, or a scalar key on a composite primary key.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrCodeInputShape indicates a dataset argument that is neither a record
	// nor a list of records, or a non-string column name.
	ErrCodeInputShape ErrorCode = "INPUT_SHAPE"

	// ErrCodeReconciliation indicates that a half of a flush failed.
	ErrCodeReconciliation ErrorCode = "RECONCILIATION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Table != "" {
		msg += fmt.Sprintf(" (table=%s)", e.Table)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func (m *Mapper) configError(format string, args ...any) error {
	return &Error{Code: ErrCodeConfiguration, Table: m.table, Message: fmt.Sprintf(format, args...)}
}

func (m *Mapper) inputError(format string, args ...any) error {
	return &Error{Code: ErrCodeInputShape, Table: m.table, Message: fmt.Sprintf(format, args...)}
}

// IsConfigurationError returns true if the error is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsInputShapeError returns true if the error is an input shape error.
// Uses errors.As to handle wrapped errors.
func IsInputShapeError(err error) bool {
	return hasCode(err, ErrCodeInputShape)
}

// IsReconciliationError returns true if the error is a flush failure.
// Uses errors.As to handle wrapped errors.
func IsReconciliationError(err error) bool {
	return hasCode(err, ErrCodeReconciliation)
}

func hasCode(err error, code ErrorCode) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}
