package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/medatechnology/goutil/medaerror"
)

// PostgreSQL error codes the storefront cares about.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 23 - Integrity Constraint Violation
	ErrCodeUniqueViolation     = "23505"
	ErrCodeForeignKeyViolation = "23503"
	ErrCodeNotNullViolation    = "23502"
	ErrCodeCheckViolation      = "23514"

	// Class 42 - Syntax Error or Access Rule Violation. The hosted backend
	// enforces row-level security, which surfaces as insufficient privilege.
	ErrCodeInsufficientPrivilege = "42501"
	ErrCodeUndefinedTable        = "42P01"
	ErrCodeUndefinedColumn       = "42703"

	// Class 08 - Connection Exception
	ErrCodeConnectionException    = "08000"
	ErrCodeConnectionFailure      = "08006"
	ErrCodeSQLClientCannotConnect = "08001"

	// Class 57 - Operator Intervention
	ErrCodeCannotConnectNow = "57P03"

	// Class 40 - Transaction Rollback
	ErrCodeDeadlockDetected     = "40P01"
	ErrCodeSerializationFailure = "40001"
)

// Postgres-layer errors using medaerror.
var (
	ErrNotConnected     medaerror.MedaError = medaerror.MedaError{Message: "PostgreSQL database is not connected"}
	ErrConnectionFailed medaerror.MedaError = medaerror.MedaError{Message: "failed to connect to PostgreSQL database"}
	ErrQueryFailed      medaerror.MedaError = medaerror.MedaError{Message: "PostgreSQL query execution failed"}
	ErrTxFailed         medaerror.MedaError = medaerror.MedaError{Message: "PostgreSQL transaction failed"}
	ErrInvalidConfig    medaerror.MedaError = medaerror.MedaError{Message: "invalid PostgreSQL configuration"}
)

// StoreError wraps a PostgreSQL error with the operation and table context.
type StoreError struct {
	Operation string // The operation that failed (e.g., "INSERT", "SELECT", "UPDATE")
	Table     string // The table involved (if applicable)
	Code      string // PostgreSQL error code
	Message   string // Error message
	Detail    string // Detailed error information
	Err       error  // Original error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	var parts []string

	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation=%s", e.Operation))
	}
	if e.Table != "" {
		parts = append(parts, fmt.Sprintf("table=%s", e.Table))
	}
	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	msg := e.Message
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(parts, ", "))
	}

	if e.Detail != "" {
		msg = fmt.Sprintf("%s - Detail: %s", msg, e.Detail)
	}

	return msg
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// wrapError wraps a PostgreSQL error with operation and table context.
func wrapError(err error, operation, table string) error {
	if err == nil {
		return nil
	}

	se := &StoreError{
		Operation: operation,
		Table:     table,
		Message:   err.Error(),
		Err:       err,
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		se.Code = string(pqErr.Code)
		se.Message = pqErr.Message
		se.Detail = pqErr.Detail
	}

	return se
}

// IsUniqueViolation checks if the error is a unique constraint violation
func IsUniqueViolation(err error) bool {
	return hasErrorCode(err, ErrCodeUniqueViolation)
}

// IsForeignKeyViolation checks if the error is a foreign key constraint violation
func IsForeignKeyViolation(err error) bool {
	return hasErrorCode(err, ErrCodeForeignKeyViolation)
}

// IsNotNullViolation checks if the error is a NOT NULL constraint violation
func IsNotNullViolation(err error) bool {
	return hasErrorCode(err, ErrCodeNotNullViolation)
}

// IsAccessDenied checks if the error is an insufficient-privilege violation.
// With row-level security enabled this is how a rejected write surfaces.
func IsAccessDenied(err error) bool {
	return hasErrorCode(err, ErrCodeInsufficientPrivilege)
}

// IsUndefinedTable checks if the error is due to a non-existent table
func IsUndefinedTable(err error) bool {
	return hasErrorCode(err, ErrCodeUndefinedTable)
}

// IsConnectionError checks if the error is related to database connection
func IsConnectionError(err error) bool {
	return hasErrorCode(err, ErrCodeConnectionException) ||
		hasErrorCode(err, ErrCodeConnectionFailure) ||
		hasErrorCode(err, ErrCodeSQLClientCannotConnect) ||
		hasErrorCode(err, ErrCodeCannotConnectNow)
}

// IsDeadlock checks if the error is due to a deadlock
func IsDeadlock(err error) bool {
	return hasErrorCode(err, ErrCodeDeadlockDetected)
}

// IsSerializationFailure checks if the error is a serialization failure
func IsSerializationFailure(err error) bool {
	return hasErrorCode(err, ErrCodeSerializationFailure)
}

// IsRetryable checks if the error is transient and the operation can be retried
func IsRetryable(err error) bool {
	return IsDeadlock(err) || IsSerializationFailure(err) || IsConnectionError(err)
}

// hasErrorCode checks if an error carries a specific PostgreSQL error code
func hasErrorCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}

	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}

	return false
}

// ErrorCode extracts the PostgreSQL error code from an error, if any.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}

	return ""
}
