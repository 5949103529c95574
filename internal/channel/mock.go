package channel

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/hankhank10/loglink-server/internal/core"
	"github.com/hankhank10/loglink-server/pkg/event"
)

// SentText is one recorded SendText call.
type SentText struct {
	ChatID string
	Text   string
	Quiet  bool
}

// SentMedia is one recorded SendMedia call.
type SentMedia struct {
	ChatID  string
	URL     string
	Caption string
	Quiet   bool
}

// SentPrompt is one recorded SendPrompt call.
type SentPrompt struct {
	ChatID string
	Prompt event.Prompt
}

// MockChannel is a test double that implements Channel and MediaFetcher.
// It records outbound calls and allows simulating inbound events via
// SimulateEvent.
type MockChannel struct {
	name  string
	inbox func(ctx context.Context, ev event.Inbound) error

	mu      sync.Mutex
	texts   []SentText
	media   []SentMedia
	prompts []SentPrompt

	// SendTextFunc, if set, is called instead of the default recording
	// behavior.
	SendTextFunc func(ctx context.Context, chatID, text string, quiet bool) error

	// MediaContent maps file refs to bytes returned by FetchMedia.
	MediaContent map[string][]byte
}

// Compile-time interface guards.
var (
	_ Channel      = (*MockChannel)(nil)
	_ MediaFetcher = (*MockChannel)(nil)
)

// NewMockChannel creates a MockChannel with the given provider name.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{
		name:         name,
		MediaContent: make(map[string][]byte),
	}
}

// ModuleInfo implements core.Module.
func (m *MockChannel) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID: core.ModuleID("channel." + m.name),
		New: func() core.Module {
			return NewMockChannel(m.name)
		},
	}
}

// SendText records the outbound text. If SendTextFunc is set, it
// delegates to it.
func (m *MockChannel) SendText(ctx context.Context, chatID, text string, quiet bool) error {
	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, chatID, text, quiet)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, SentText{ChatID: chatID, Text: text, Quiet: quiet})
	return nil
}

// SendMedia records the outbound image.
func (m *MockChannel) SendMedia(_ context.Context, chatID, url, caption string, quiet bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media = append(m.media, SentMedia{ChatID: chatID, URL: url, Caption: caption, Quiet: quiet})
	return nil
}

// SendPrompt records the outbound prompt.
func (m *MockChannel) SendPrompt(_ context.Context, chatID string, p event.Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, SentPrompt{ChatID: chatID, Prompt: p})
	return nil
}

// SetInbox stores the inbox callback provided by the engine.
func (m *MockChannel) SetInbox(fn func(ctx context.Context, ev event.Inbound) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = fn
}

// FetchMedia returns the bytes registered in MediaContent for fileRef.
func (m *MockChannel) FetchMedia(_ context.Context, fileRef string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	content, ok := m.MediaContent[fileRef]
	m.mu.Unlock()
	if !ok {
		return nil, "", &MalformedEventError{Reason: "unknown file ref " + fileRef}
	}
	return io.NopCloser(bytes.NewReader(content)), fileRef, nil
}

// SimulateEvent pushes an inbound event into the inbox, tagging it with
// this channel's provider name. Returns ErrNoInbox if SetInbox has not
// been called.
func (m *MockChannel) SimulateEvent(ctx context.Context, ev event.Inbound) error {
	m.mu.Lock()
	inbox := m.inbox
	m.mu.Unlock()

	if inbox == nil {
		return ErrNoInbox
	}
	ev.Provider = m.name
	return inbox(ctx, ev)
}

// SentTexts returns a copy of all texts recorded by SendText.
func (m *MockChannel) SentTexts() []SentText {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]SentText, len(m.texts))
	copy(cp, m.texts)
	return cp
}

// SentMediaCalls returns a copy of all images recorded by SendMedia.
func (m *MockChannel) SentMediaCalls() []SentMedia {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]SentMedia, len(m.media))
	copy(cp, m.media)
	return cp
}

// SentPrompts returns a copy of all prompts recorded by SendPrompt.
func (m *MockChannel) SentPrompts() []SentPrompt {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]SentPrompt, len(m.prompts))
	copy(cp, m.prompts)
	return cp
}

// Reset clears all recorded outbound calls.
func (m *MockChannel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = nil
	m.media = nil
	m.prompts = nil
}
