package filevalidator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gobeaver/mimekit"
)

func TestValidationError(t *testing.T) {
	cause := errors.New("disk gone")
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "message only",
			err:  NewValidationError(ErrorTypeSize, "file size too big"),
			want: "size validation error: file size too big",
		},
		{
			name: "with cause",
			err:  &ValidationError{Type: ErrorTypeRead, Message: "failed to read content", Err: cause},
			want: "read validation error: failed to read content: disk gone",
		},
		{
			name: "with detected type",
			err:  typeError(mimekit.MustParse("image/png"), "file type %s is not accepted", "image/png"),
			want: "type validation error: file type image/png is not accepted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	png := mimekit.MustParse("image/png")
	wrapped := fmt.Errorf("upload: %w", typeError(png, "not accepted"))

	if !IsValidationError(wrapped) {
		t.Errorf("IsValidationError(wrapped) = false")
	}
	if !IsErrorOfType(wrapped, ErrorTypeMediaType) {
		t.Errorf("IsErrorOfType(wrapped, type) = false")
	}
	if IsErrorOfType(wrapped, ErrorTypeSize) {
		t.Errorf("IsErrorOfType(wrapped, size) = true")
	}
	if got := DetectedType(wrapped); got != png {
		t.Errorf("DetectedType() = %s, want image/png", got)
	}

	plain := errors.New("other")
	if IsValidationError(plain) || GetErrorType(plain) != "" || !DetectedType(plain).IsZero() {
		t.Errorf("helpers matched a plain error")
	}

	cause := errors.New("cause")
	if !errors.Is(&ValidationError{Type: ErrorTypeRead, Err: cause}, cause) {
		t.Errorf("ValidationError does not unwrap to its cause")
	}
}
