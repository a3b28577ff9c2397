package session

import "errors"

// Error taxonomy for the session lifecycle. Decode and storage problems are
// self-healed by the Manager (clear and fall back to unauthenticated) and
// never reach the screens; login failures surface exactly once at the call
// site.
var (
	// ErrTokenMalformed marks a credential that is not a well-formed token.
	ErrTokenMalformed = errors.New("credential malformed")

	// ErrTokenExpired marks a credential whose expiry is no longer in the
	// future.
	ErrTokenExpired = errors.New("credential expired")

	// ErrLoginRejected means the issuing service actively refused the
	// credentials (bad password, unknown or unverified account).
	ErrLoginRejected = errors.New("login rejected")

	// ErrNetworkFailure means the login request could not complete. It is
	// surfaced as a transient error and never retried automatically.
	ErrNetworkFailure = errors.New("login request failed")
)
