// Package store defines the persistence contracts for loglink: user
// identities, the per-user message queue, and beta invite codes.
// Implementations live under modules/store.
package store

import (
	"context"
	"time"
)

// User is a registered sender identity, keyed by the chat provider and
// the provider's conversation ID.
type User struct {
	// ID is the internal identifier, a UUID. Never exposed to clients.
	ID string

	// Token is the polling credential, <provider> followed by 36 hex
	// characters. Shown to the user once per issue.
	Token string

	// Provider is the channel the user registered on ("telegram",
	// "whatsapp").
	Provider string

	// ProviderID is the provider-scoped chat identifier.
	ProviderID string

	// Approved gates message relay for providers that require an
	// invite code at signup.
	Approved bool

	// UploadKey is the user's image-host API key, empty until they
	// register one.
	UploadKey string

	// APICallCount counts messages relayed on behalf of this user.
	APICallCount int64

	CreatedAt time.Time
}

// Message is one queued relay payload awaiting (or past) delivery.
type Message struct {
	ID                string
	UserID            string
	Provider          string
	ProviderMessageID string

	// Contents is the final plain-text payload handed to the polling
	// client, already normalized (location rendering, media URL).
	Contents string

	// Seq orders messages by arrival. Monotonically increasing per
	// database, assigned at append.
	Seq int64

	Delivered bool
	CreatedAt time.Time

	// DeliveredAt is the time of the drain that handed the message to a
	// polling client, zero while it is still pending.
	DeliveredAt time.Time
}

// IdentityStore manages user lifecycle and lookup.
type IdentityStore interface {
	// CreateUser registers a new user with a fresh token. When
	// betaCode is non-empty it is consumed in the same transaction;
	// ErrGateRejected means the code was missing or already used and
	// nothing was created. ErrUserExists means another registration
	// for the same (provider, providerID) won the race.
	CreateUser(ctx context.Context, provider, providerID, betaCode string) (*User, error)

	// UserByToken resolves a polling token. Returns ErrUserNotFound
	// for unknown tokens.
	UserByToken(ctx context.Context, token string) (*User, error)

	// UserByProviderID resolves a sender. Returns ErrUserNotFound when
	// the sender has never registered.
	UserByProviderID(ctx context.Context, provider, providerID string) (*User, error)

	// UserByID resolves an internal user ID. Returns ErrUserNotFound
	// for unknown IDs.
	UserByID(ctx context.Context, userID string) (*User, error)

	// ListUsers returns all registered users, ordered by creation.
	ListUsers(ctx context.Context) ([]User, error)

	// RotateToken issues a new token and deletes all the user's queued
	// messages in the same transaction. The old token stops resolving
	// immediately.
	RotateToken(ctx context.Context, userID string) (newToken string, err error)

	// SetUploadKey stores the user's image-host API key.
	SetUploadKey(ctx context.Context, userID, key string) error

	// DeleteUser removes the user and, by cascade, all their messages.
	DeleteUser(ctx context.Context, userID string) error

	// UserCount reports the number of registered users.
	UserCount(ctx context.Context) (int64, error)
}

// MessageQueue manages queued relay payloads.
type MessageQueue interface {
	// Append queues a payload for the user and increments the user's
	// relay counter in the same transaction.
	Append(ctx context.Context, userID, provider, providerMessageID, contents string) (*Message, error)

	// Drain atomically marks all undelivered messages for the user as
	// delivered and returns them in arrival order. When purge is true
	// the delivered rows are deleted in the same transaction. A second
	// concurrent drain observes an empty queue.
	Drain(ctx context.Context, userID string, purge bool) ([]Message, error)

	// PurgeDelivered deletes messages whose delivery is older than the
	// given age and reports how many were removed. Retention is measured
	// from the drain that delivered the message, not from arrival, so a
	// client that polls rarely keeps its full window.
	PurgeDelivered(ctx context.Context, olderThan time.Duration) (int64, error)

	// PendingCount reports the number of undelivered messages across
	// all users.
	PendingCount(ctx context.Context) (int64, error)
}

// BetaCodeStore manages single-use invite codes.
type BetaCodeStore interface {
	// CreateCodes mints n fresh codes and returns them.
	CreateCodes(ctx context.Context, n int) ([]string, error)

	// ListCodes returns all unconsumed codes.
	ListCodes(ctx context.Context) ([]string, error)
}
