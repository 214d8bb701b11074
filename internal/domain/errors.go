package domain

import "errors"

// Sentinel errors shared across the service and API layers. Handlers map
// these onto HTTP statuses; everything else surfaces as an internal error.
var (
	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden means the caller lacks a required role.
	ErrForbidden = errors.New("missing required role")

	// ErrConflict means an optimistic write lost its revision check and
	// retries were exhausted.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrNotFinished means an operation requires a fully resolved import.
	ErrNotFinished = errors.New("bulk import still has pending names")
)
