// errors.go - Sentinel errors shared across the exchange core.
//
// Callers match these with errors.Is. Every kind is recoverable by the
// caller; none is process-fatal.
package server

import "errors"

var (
	// Authentication and session errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")

	// Gate errors, in pipeline order.
	ErrInactiveAccount  = errors.New("inactive account")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrRoleForbidden    = errors.New("role forbidden")

	// Registration errors.
	ErrAlreadyRegistered = errors.New("email or username already registered")
	ErrInvalidInput      = errors.New("invalid input")

	// File and download-grant errors.
	ErrFileNotFound         = errors.New("file not found")
	ErrGrantNotFound        = errors.New("download grant not found")
	ErrGrantExpired         = errors.New("download grant expired")
	ErrGrantAlreadyConsumed = errors.New("download grant already consumed")

	// Store-level failure, fatal to the request but not the process.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// isStoreUnavailable distinguishes infrastructure failures from the
// domain rejections above, so callers never mask an outage as a
// credential or grant problem.
func isStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// Token codec errors. ResolveSession collapses all of these into
// ErrUnauthenticated so the outward surface never differentiates why a
// bearer token was rejected.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrBadSignature   = errors.New("bad token signature")
	ErrWrongPurpose   = errors.New("token purpose mismatch")
	ErrMalformedToken = errors.New("malformed token")
)
