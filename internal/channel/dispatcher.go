package channel

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hankhank10/loglink-server/pkg/event"
)

// Dispatcher routes outbound replies to the correct registered channel.
// The relay engine holds one Dispatcher and addresses channels by
// provider name.
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel under the given provider name.
// Returns ErrDuplicateChannel if the name is already taken.
func (d *Dispatcher) Register(name string, ch Channel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.channels[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateChannel, name)
	}
	d.channels[name] = ch
	return nil
}

// Get returns the channel registered under name, or false if none.
func (d *Dispatcher) Get(name string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ch, ok := d.channels[name]
	return ch, ok
}

// SendText dispatches a text reply to the channel for the given
// provider. It returns ErrNoChannel if no channel is registered under
// that name.
func (d *Dispatcher) SendText(ctx context.Context, provider, chatID, text string, quiet bool) error {
	ch, ok := d.Get(provider)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, provider)
	}
	return ch.SendText(ctx, chatID, text, quiet)
}

// SendMedia dispatches an image reply to the channel for the given
// provider.
func (d *Dispatcher) SendMedia(ctx context.Context, provider, chatID, url, caption string, quiet bool) error {
	ch, ok := d.Get(provider)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, provider)
	}
	return ch.SendMedia(ctx, chatID, url, caption, quiet)
}

// SendPrompt dispatches an interactive prompt to the channel for the
// given provider.
func (d *Dispatcher) SendPrompt(ctx context.Context, provider, chatID string, p event.Prompt) error {
	ch, ok := d.Get(provider)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, provider)
	}
	return ch.SendPrompt(ctx, chatID, p)
}

// FetchMedia resolves a media reference through the channel it arrived
// on. Returns ErrNoChannel if the provider is unknown, and an error if
// the channel cannot fetch media at all.
func (d *Dispatcher) FetchMedia(ctx context.Context, provider, fileRef string) (body io.ReadCloser, name string, err error) {
	ch, ok := d.Get(provider)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrNoChannel, provider)
	}
	f, ok := ch.(MediaFetcher)
	if !ok {
		return nil, "", fmt.Errorf("channel %s cannot fetch media", provider)
	}
	return f.FetchMedia(ctx, fileRef)
}

// Channels returns the names of all registered channels.
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	return names
}
