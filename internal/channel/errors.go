package channel

import "errors"

// Sentinel errors for channel operations.
var (
	// ErrNoChannel indicates the target provider has no registered channel.
	ErrNoChannel = errors.New("channel: unknown channel")

	// ErrDuplicateChannel indicates a channel with the same name is already
	// registered in the dispatcher.
	ErrDuplicateChannel = errors.New("channel: duplicate channel name")

	// ErrNoInbox indicates a channel's inbox callback has not been set.
	ErrNoInbox = errors.New("channel: inbox not set")

	// ErrUnauthorized indicates a webhook request failed the provider's
	// shared-secret check.
	ErrUnauthorized = errors.New("channel: webhook not authorized")
)

// MalformedEventError indicates a webhook payload that could not be
// decoded into a provider update at all. Payloads that decode but carry
// nothing actionable are not malformed; channels acknowledge those.
type MalformedEventError struct {
	Reason string
}

func (e *MalformedEventError) Error() string {
	return "channel: malformed event: " + e.Reason
}
