// Package event defines the normalized message model exchanged between
// channel modules and the relay engine. Channel modules translate
// provider-specific webhook payloads into Inbound events; the engine
// never sees raw provider structures.
package event

import "time"

// Kind classifies the content of an inbound event.
type Kind string

const (
	KindText        Kind = "text"
	KindMedia       Kind = "media"
	KindLocation    Kind = "location"
	KindChoice      Kind = "choice"
	KindUnsupported Kind = "unsupported"
)

// Inbound is a single normalized message received from a chat provider.
type Inbound struct {
	// Provider is the channel name the event arrived on ("telegram",
	// "whatsapp").
	Provider string

	// ChatID is the provider-scoped conversation identifier, used both
	// to identify the sender and to address replies.
	ChatID string

	// ProviderMessageID is the provider's own ID for this message,
	// when available.
	ProviderMessageID string

	// Kind says which of the payload fields below is meaningful.
	Kind Kind

	// Text is the message body for KindText.
	Text string

	// Media describes the attachment for KindMedia.
	Media *Media

	// Location describes the coordinates for KindLocation.
	Location *Location

	// ChoiceID is the button identifier for KindChoice (a tapped
	// interactive reply button).
	ChoiceID string

	// KindLabel is a human-readable description of the original content
	// type for KindUnsupported ("sticker", "voice note", "document").
	KindLabel string

	// Timestamp is when the provider says the message was sent.
	Timestamp time.Time
}

// Media is an attachment reference. FileRef is a provider-scoped handle
// that the originating channel can resolve to bytes.
type Media struct {
	FileRef  string
	MIMEType string
	Caption  string
}

// Location is a shared geographic position. Name and Address are only
// set for venue-style shares.
type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
}

// Prompt is an interactive question the engine asks a user. Channels
// that support reply buttons render Buttons natively; others fall back
// to a plain-text rendition.
type Prompt struct {
	Header  string
	Body    string
	Buttons []Button
}

// Button is one tappable choice in a Prompt. ID comes back as
// Inbound.ChoiceID when the user taps it.
type Button struct {
	ID    string
	Title string
}
