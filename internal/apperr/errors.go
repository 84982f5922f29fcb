// Package apperr defines the error taxonomy shared by the store,
// service, and api layers. Callers classify with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks an absent referenced entity.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied marks an authenticated caller with the wrong role.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConflict marks a duplicate unique field.
	ErrConflict = errors.New("already exists")

	// ErrGatewayUnavailable marks an external provider failure after
	// retries were exhausted. Retryable by the caller.
	ErrGatewayUnavailable = errors.New("gateway unavailable")

	// ErrCapacityExhausted is the domain outcome of a confirmation that
	// found no beds left. Not a system error.
	ErrCapacityExhausted = errors.New("capacity exhausted")
)
