package domain

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// ErrUnauthorized means the caller presented a wrong credential.
	// ErrNotReady means the credential could not even be checked yet
	// (the shared secret has not been loaded); the two are kept apart
	// so operators can tell "misconfigured" from "attacked".
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotReady     = errors.New("service not ready")

	ErrStorageUnavailable = errors.New("object storage unavailable")
	ErrQueueUnavailable   = errors.New("queue unavailable")
	ErrSecretUnavailable  = errors.New("secret unavailable")
)
