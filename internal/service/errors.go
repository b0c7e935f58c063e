package service

import (
	"fmt"

	"github.com/pageza/foodgram/backend/internal/validation"
)

// ValidationError carries field -> messages for a rejected request.
type ValidationError struct {
	Fields validation.FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

// NewFieldError builds a single-field ValidationError.
func NewFieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: validation.FieldErrors{field: {msg}}}
}

// NotFoundError means a referenced entity does not exist. Field is set when
// the id came from a request field rather than the URL.
type NotFoundError struct {
	Field   string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func notFound(entity string) *NotFoundError {
	return &NotFoundError{Message: entity + " not found"}
}

// ConflictError reports a duplicate relation or a missing one on removal.
// The API maps it to 400 {"errors": Message}.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ForbiddenError means the caller may not modify the resource.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message == "" {
		return "forbidden"
	}
	return e.Message
}
