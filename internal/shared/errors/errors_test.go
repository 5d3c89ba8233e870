package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewValidationError(t *testing.T) {
	tests := []struct {
		name    string
		message string
		err     error
		want    string
	}{
		{
			name:    "validation error with underlying error",
			message: "Invalid input",
			err:     fmt.Errorf("field required"),
			want:    "VALIDATION_ERROR: Invalid input - field required",
		},
		{
			name:    "validation error without underlying error",
			message: "Invalid input",
			err:     nil,
			want:    "VALIDATION_ERROR: Invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.message, tt.err)
			if err == nil {
				t.Fatal("NewValidationError() returned nil")
			}
			if err.Code != CodeValidation {
				t.Errorf("Code = %v, want %v", err.Code, CodeValidation)
			}
			if err.Error() != tt.want {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.want)
			}
		})
	}
}

func TestNotFoundErrors(t *testing.T) {
	userErr := NewUserNotFoundError("u1")
	if userErr.Code != CodeUserNotFound {
		t.Errorf("Code = %v, want %v", userErr.Code, CodeUserNotFound)
	}
	if !IsNotFound(userErr) {
		t.Error("IsNotFound() = false for user not found")
	}

	profErr := NewProfileNotFoundError("u1", "p1")
	if profErr.Code != CodeProfileNotFound {
		t.Errorf("Code = %v, want %v", profErr.Code, CodeProfileNotFound)
	}
	if !IsNotFound(profErr) {
		t.Error("IsNotFound() = false for profile not found")
	}
	if IsRetryable(profErr) {
		t.Error("IsRetryable() = true for profile not found")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"concurrency error", NewConcurrencyError("write conflict", nil), true},
		{"database error", NewDatabaseError("timeout", nil), true},
		{"validation error", NewValidationError("bad input", nil), false},
		{"foreign error", errors.New("boom"), false},
		{"wrapped database error", fmt.Errorf("op failed: %w", NewDatabaseError("timeout", nil)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCode(t *testing.T) {
	if got := Code(errors.New("plain")); got != CodeInternal {
		t.Errorf("Code(plain error) = %v, want %v", got, CodeInternal)
	}
	wrapped := fmt.Errorf("outer: %w", NewConcurrencyError("conflict", nil))
	if got := Code(wrapped); got != CodeConcurrency {
		t.Errorf("Code(wrapped) = %v, want %v", got, CodeConcurrency)
	}
}
