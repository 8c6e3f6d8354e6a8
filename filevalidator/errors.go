package filevalidator

import (
	"errors"
	"fmt"

	"github.com/gobeaver/mimekit"
)

// ValidationErrorType categorizes a validation failure
type ValidationErrorType string

const (
	ErrorTypeSize      ValidationErrorType = "size"
	ErrorTypeMediaType ValidationErrorType = "type"
	ErrorTypeFileName  ValidationErrorType = "filename"
	ErrorTypeExtension ValidationErrorType = "extension"
	ErrorTypeMismatch  ValidationErrorType = "mismatch"
	ErrorTypeRead      ValidationErrorType = "read"
)

// ValidationError reports why a file was rejected.
type ValidationError struct {
	// Type categorizes the failure for programmatic handling.
	Type ValidationErrorType

	// Message is the human-readable description.
	Message string

	// Detected is the media type found for the content, when detection ran
	// before the failure.
	Detected mimekit.MediaType

	// Err is the underlying cause, if any.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s validation error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s validation error: %s", e.Type, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a new ValidationError
func NewValidationError(errType ValidationErrorType, message string) *ValidationError {
	return &ValidationError{Type: errType, Message: message}
}

func typeError(detected mimekit.MediaType, format string, args ...any) *ValidationError {
	return &ValidationError{
		Type:     ErrorTypeMediaType,
		Message:  fmt.Sprintf(format, args...),
		Detected: detected,
	}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsErrorOfType checks if an error is a ValidationError of the specified type
func IsErrorOfType(err error, errType ValidationErrorType) bool {
	return GetErrorType(err) == errType
}

// GetErrorType returns the type of a ValidationError, or "" for other errors
func GetErrorType(err error) ValidationErrorType {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Type
	}
	return ""
}

// DetectedType returns the media type carried by a ValidationError. The zero
// MediaType is returned when err carries none.
func DetectedType(err error) mimekit.MediaType {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Detected
	}
	return mimekit.MediaType{}
}
