package store

import "errors"

// Sentinel errors for store operations.
var (
	// ErrUserNotFound indicates the token or sender does not resolve
	// to a registered user.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrUserExists indicates a registration already exists for the
	// same provider and provider ID.
	ErrUserExists = errors.New("store: user already exists")

	// ErrGateRejected indicates the invite code was missing, unknown,
	// or already consumed.
	ErrGateRejected = errors.New("store: invite code rejected")
)
