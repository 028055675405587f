package custom_error

import (
	"errors"
	"fmt"
	"net/http"
)

type ValidationError struct {
	Message  string `json:"message"`
	Property string `json:"property"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Property, e.Message)
}

func NewValidationError(property, message string) *ValidationError {
	return &ValidationError{Message: message, Property: property}
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// StatusCode maps typed errors to the HTTP status handlers answer with.
func StatusCode(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsUniqueViolation(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
