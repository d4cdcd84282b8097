package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "policy violation with formatting",
			err:      PolicyViolation("you have reached your borrowing limit of %d books", 3),
			expected: "you have reached your borrowing limit of 3 books",
		},
		{
			name:     "not found names the resource",
			err:      NotFound("loan"),
			expected: "loan not found",
		},
		{
			name:     "state conflict",
			err:      StateConflict("loan is not currently borrowed"),
			expected: "loan is not currently borrowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Error() = %q; want %q", tt.err.Error(), tt.expected)
			}
		})
	}
}

func TestErrorTypesSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("borrow failed: %w", PolicyViolation("no copies available for borrowing"))

	var pv *PolicyViolationError
	if !errors.As(wrapped, &pv) {
		t.Fatal("expected wrapped error to match *PolicyViolationError")
	}

	var nf *NotFoundError
	if errors.As(wrapped, &nf) {
		t.Error("policy violation must not match *NotFoundError")
	}
}
