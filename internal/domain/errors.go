package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrSchema        = errors.New("schema mismatch")
	ErrUpstream      = errors.New("upstream error")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Fields returns the names of the offending fields in declaration order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		fields[i] = fe.Field
	}
	return fields
}

// MissingValuesReason renders the failure reason used for records that lack
// required values, e.g. "Missing the following values: title, summary".
func (e *ValidationError) MissingValuesReason() string {
	return "Missing the following values: " + strings.Join(e.Fields(), ", ")
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// RequireValues returns a ValidationError naming every key whose value is
// blank, or nil when all are present. Keys are checked in the given order.
func RequireValues(values []KeyValue) *ValidationError {
	var errs []FieldError
	for _, kv := range values {
		if strings.TrimSpace(kv.Value) == "" {
			errs = append(errs, FieldError{Field: kv.Key, Message: "required"})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return NewValidationErrors(errs)
}

// KeyValue is an ordered (name, value) pair used by RequireValues.
type KeyValue struct {
	Key   string
	Value string
}
