// Package common defines the sentinel errors shared by the repository,
// service, and transport layers. Callers match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Credential failures. ErrInvalidCredentials covers both "no such email"
	// and "wrong password" so a caller cannot tell which one happened.
	// ErrAccessDenied covers every refresh failure: missing session,
	// superseded token, unknown principal.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessDenied       = errors.New("access denied")

	// ErrorTransient marks store unavailability or timeouts. Safe to retry;
	// must never be collapsed into a credential failure.
	ErrorTransient = errors.New("transient store error")

	ErrorInternal = errors.New("internal error")

	// Token errors (malformed, bad signature, expired).
	ErrInvalidToken = errors.New("invalid token")
)
