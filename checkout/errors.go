package checkout

import (
	"strings"

	"github.com/medatechnology/goutil/medaerror"
)

// Customer-facing persistence failures. The mapping is by message substring
// so it works regardless of which driver produced the error.
var (
	ErrAccessDenied  medaerror.MedaError = medaerror.MedaError{Message: "the store refused to accept this order, please try again later"}
	ErrDuplicateData medaerror.MedaError = medaerror.MedaError{Message: "this order appears to be a duplicate"}
	ErrStaleData     medaerror.MedaError = medaerror.MedaError{Message: "part of this order references data that no longer exists"}
)

// PersistenceError wraps an unmapped store failure, keeping the raw cause
// for the logs while the Message stays presentable.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "failed to save order: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// mapPersistenceError translates a raw store error into one of the
// customer-facing sentinels.
func mapPersistenceError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "row-level security"):
		return ErrAccessDenied
	case strings.Contains(msg, "insufficient privilege"):
		return ErrAccessDenied
	case strings.Contains(msg, "duplicate key"):
		return ErrDuplicateData
	case strings.Contains(msg, "foreign key"):
		return ErrStaleData
	default:
		return &PersistenceError{Err: err}
	}
}
