package service

import "strings"

// ValidationError reports one or more field-level problems with a request.
// Handlers map it to HTTP 400.
type ValidationError struct {
	Fields []string
}

// NewValidationError builds a ValidationError from field messages.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, "; ")
}
