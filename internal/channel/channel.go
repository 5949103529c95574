// Package channel defines the bridge between chat providers and the relay
// engine. It provides the Channel interface, the outbound Dispatcher, and a
// mock implementation for tests.
package channel

import (
	"context"
	"io"

	"github.com/hankhank10/loglink-server/internal/core"
	"github.com/hankhank10/loglink-server/pkg/event"
)

// Channel is the bridge between a chat provider and the relay engine.
// Every concrete channel (Telegram, WhatsApp) must implement this interface.
//
// A channel receives webhook payloads from its provider, normalizes them
// into event.Inbound values, and pushes them to the engine via the inbox
// callback. Replies flow back through SendText and SendPrompt.
type Channel interface {
	core.Module

	// SendText delivers a plain-text reply to the given provider chat.
	// When quiet is true the channel asks the provider to suppress the
	// notification, where the provider supports that.
	SendText(ctx context.Context, chatID, text string, quiet bool) error

	// SendMedia delivers an image by public URL, with an optional
	// caption. The provider fetches the URL itself.
	SendMedia(ctx context.Context, chatID, url, caption string, quiet bool) error

	// SendPrompt delivers an interactive question. Channels without
	// native button support render a plain-text fallback that lists
	// the choices.
	SendPrompt(ctx context.Context, chatID string, p event.Prompt) error

	// SetInbox gives the channel a function to push inbound events to
	// the engine. The engine calls this during wiring, before Start().
	SetInbox(fn func(ctx context.Context, ev event.Inbound) error)
}

// MediaFetcher is implemented by channels that can resolve an
// event.Media FileRef to its content. The returned name is a suggested
// filename for the download.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, fileRef string) (body io.ReadCloser, name string, err error)
}
