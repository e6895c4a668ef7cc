// Package apperror holds the error kinds shared by every domain package.
//
// Domain errors are typed structs that report their kind through an Is method, so callers
// can branch on detail with errors.As and on category with errors.Is.
package apperror

import "errors"

type Kind string

func (k Kind) Error() string { return string(k) }

const (
	ErrValidation         = Kind("validation failed")
	ErrNotFound           = Kind("not found")
	ErrConflict           = Kind("conflict")
	ErrForbidden          = Kind("forbidden")
	ErrTransactionFailure = Kind("transaction failure")
)

// Classified reports whether err carries one of the caller-facing kinds other than
// ErrTransactionFailure.
func Classified(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden)
}

// ValidationError is a validation failure for a single input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (err ValidationError) Error() string {
	return "invalid " + err.Field + ": " + err.Reason
}

func (err ValidationError) Is(target error) bool { return target == ErrValidation }
