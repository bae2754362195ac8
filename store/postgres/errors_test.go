package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
)

func pqError(code string) error {
	return &pq.Error{Code: pq.ErrorCode(code), Message: "test error"}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"unique violation", pqError(ErrCodeUniqueViolation), IsUniqueViolation, true},
		{"foreign key violation", pqError(ErrCodeForeignKeyViolation), IsForeignKeyViolation, true},
		{"not null violation", pqError(ErrCodeNotNullViolation), IsNotNullViolation, true},
		{"access denied", pqError(ErrCodeInsufficientPrivilege), IsAccessDenied, true},
		{"undefined table", pqError(ErrCodeUndefinedTable), IsUndefinedTable, true},
		{"deadlock", pqError(ErrCodeDeadlockDetected), IsDeadlock, true},
		{"serialization failure", pqError(ErrCodeSerializationFailure), IsSerializationFailure, true},
		{"connection failure", pqError(ErrCodeConnectionFailure), IsConnectionError, true},
		{"wrong code", pqError(ErrCodeUniqueViolation), IsForeignKeyViolation, false},
		{"plain error", errors.New("boom"), IsUniqueViolation, false},
		{"nil error", nil, IsUniqueViolation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []error{
		pqError(ErrCodeDeadlockDetected),
		pqError(ErrCodeSerializationFailure),
		pqError(ErrCodeConnectionFailure),
	}
	for _, err := range retryable {
		if !IsRetryable(err) {
			t.Errorf("Expected %v to be retryable", err)
		}
	}

	if IsRetryable(pqError(ErrCodeUniqueViolation)) {
		t.Error("Expected a unique violation to not be retryable")
	}
}

func TestWrapErrorKeepsCode(t *testing.T) {
	err := wrapError(pqError(ErrCodeUniqueViolation), "INSERT", "user_favorites")

	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("Expected a *StoreError, got %T", err)
	}
	if se.Code != ErrCodeUniqueViolation {
		t.Errorf("Expected code %s, got %s", ErrCodeUniqueViolation, se.Code)
	}
	if se.Operation != "INSERT" || se.Table != "user_favorites" {
		t.Errorf("Expected operation and table context, got %+v", se)
	}

	// Classification still works through the wrapper.
	if !IsUniqueViolation(err) {
		t.Error("Expected wrapped error to classify as unique violation")
	}
	if ErrorCode(err) != ErrCodeUniqueViolation {
		t.Errorf("Expected ErrorCode to find %s, got %s", ErrCodeUniqueViolation, ErrorCode(err))
	}

	// The original error is reachable via Unwrap.
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		t.Error("Expected the original pq error to be unwrappable")
	}
}

func TestWrapErrorNil(t *testing.T) {
	if wrapError(nil, "SELECT", "products") != nil {
		t.Error("Expected wrapping nil to stay nil")
	}
}

func TestStoreErrorMessage(t *testing.T) {
	err := wrapError(fmt.Errorf("boom"), "UPDATE", "orders")
	msg := err.Error()
	for _, part := range []string{"operation=UPDATE", "table=orders", "boom"} {
		if !strings.Contains(msg, part) {
			t.Errorf("Expected message to contain %q, got %q", part, msg)
		}
	}
}
