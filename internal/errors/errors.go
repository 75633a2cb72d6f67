// Package errors provides error handling utilities.
package errors

import (
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeDataFetch indicates the reporting source could not return usable tabular data
	TypeDataFetch Type = "DATA_FETCH_ERROR"

	// TypeComputation indicates a required denominator or base quantity is zero
	TypeComputation Type = "COMPUTATION_ERROR"

	// TypePolicyMapping indicates a cost center or account has no policy-table entry
	TypePolicyMapping Type = "POLICY_MAPPING_ERROR"

	// TypeReconciliation indicates the allocation total does not match the invoice
	TypeReconciliation Type = "RECONCILIATION_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// Input creates an input validation error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// DataFetch creates a data fetch error
func DataFetch(message string, cause error) *Error {
	return Wrap(TypeDataFetch, message, cause)
}

// Computation creates a computation error naming the offending quantity
func Computation(quantity, message string) *Error {
	return New(TypeComputation, message).WithContext("quantity", quantity)
}

// PolicyMapping creates a policy mapping error
func PolicyMapping(table, key string) *Error {
	return Newf(TypePolicyMapping, "no %s entry for %q", table, key).
		WithContext("table", table).
		WithContext("key", key)
}

// Reconciliation creates a reconciliation error
func Reconciliation(message string) *Error {
	return New(TypeReconciliation, message)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
