package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Code: EINVALID, Message: "invalid quantity"},
			expected: "invalid quantity",
		},
		{
			name:     "with operation",
			err:      &Error{Code: EINVALID, Op: "cart.checkout", Message: "invalid quantity"},
			expected: "cart.checkout: invalid quantity",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EINTERNAL,
				Op:      "cart.save",
				Message: "failed to save",
				Err:     errors.New("connection refused"),
			},
			expected: "cart.save: failed to save: connection refused",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to save",
				Err:     errors.New("connection refused"),
			},
			expected: "failed to save: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(nil); got != "" {
		t.Errorf("ErrorCode(nil) = %q, want empty", got)
	}
	if got := ErrorCode(ErrCartNotFound); got != ENOTFOUND {
		t.Errorf("ErrorCode = %q, want %q", got, ENOTFOUND)
	}
	if got := ErrorCode(errors.New("plain")); got != EINTERNAL {
		t.Errorf("ErrorCode(plain) = %q, want %q", got, EINTERNAL)
	}

	// wrapped domain errors keep their code
	wrapped := fmt.Errorf("loading cart: %w", ErrCartNotFound)
	if got := ErrorCode(wrapped); got != ENOTFOUND {
		t.Errorf("ErrorCode(wrapped) = %q, want %q", got, ENOTFOUND)
	}
}

func TestErrorMessage(t *testing.T) {
	if got := ErrorMessage(ErrCartNotOpen); got != "Cart is not in a checkout-ready state" {
		t.Errorf("ErrorMessage = %q", got)
	}

	// internal details never reach users
	internal := Internal(errors.New("dial tcp: refused"), "cart.save", "failed to save cart")
	if got := ErrorMessage(internal); got != "An internal error occurred. Please try again later." {
		t.Errorf("ErrorMessage(internal) = %q", got)
	}
	if got := ErrorMessage(errors.New("raw")); got != "An internal error occurred. Please try again later." {
		t.Errorf("ErrorMessage(raw) = %q", got)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("cart.checkout", "pincode", "Pincode must be a 6-digit number")

	if !IsValidationError(err) {
		t.Fatal("expected a validation error")
	}

	fields := GetValidationFields(err)
	if fields["pincode"] != "Pincode must be a 6-digit number" {
		t.Errorf("fields = %v", fields)
	}

	if GetValidationFields(errors.New("plain")) != nil {
		t.Error("expected nil fields for non-validation error")
	}
}
