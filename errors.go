package mimekit

import (
	"errors"
	"fmt"
)

// Common detection errors
var (
	ErrFormat     = errors.New("malformed media type")
	ErrDefinition = errors.New("invalid type definition")
	ErrNotFound   = errors.New("media type not registered")
	ErrIO         = errors.New("stream read failed")
)

// TypeError records an error and the operation and media type that caused it
type TypeError struct {
	Op   string
	Type string
	Err  error
}

// Error implements the error interface
func (e *TypeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Type, e.Err)
}

// Unwrap returns the underlying error
func (e *TypeError) Unwrap() error {
	return e.Err
}

func definitionError(name, format string, args ...any) error {
	return &TypeError{
		Op:   "define",
		Type: name,
		Err:  fmt.Errorf("%w: %s", ErrDefinition, fmt.Sprintf(format, args...)),
	}
}

// IsFormat reports whether an error indicates a malformed media type string
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsDefinition reports whether an error indicates a rejected type definition
func IsDefinition(err error) bool {
	return errors.Is(err, ErrDefinition)
}

// IsNotFound reports whether an error indicates an unregistered media type
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsIO reports whether an error was caused by reading the input stream
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}
