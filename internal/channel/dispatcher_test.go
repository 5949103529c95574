package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/hankhank10/loglink-server/pkg/event"
)

func TestDispatcher_Register(t *testing.T) {
	d := NewDispatcher()
	if err := d.Register("telegram", NewMockChannel("telegram")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := d.Get("telegram"); !ok {
		t.Error("expected telegram channel to be registered")
	}
}

func TestDispatcher_RegisterDuplicate(t *testing.T) {
	d := NewDispatcher()
	if err := d.Register("telegram", NewMockChannel("telegram")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := d.Register("telegram", NewMockChannel("telegram"))
	if !errors.Is(err, ErrDuplicateChannel) {
		t.Errorf("expected ErrDuplicateChannel, got %v", err)
	}
}

func TestDispatcher_SendText(t *testing.T) {
	d := NewDispatcher()
	mock := NewMockChannel("telegram")
	if err := d.Register("telegram", mock); err != nil {
		t.Fatal(err)
	}

	if err := d.SendText(context.Background(), "telegram", "42", "hello", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := mock.SentTexts()
	if len(sent) != 1 {
		t.Fatalf("expected 1 sent text, got %d", len(sent))
	}
	if sent[0].ChatID != "42" || sent[0].Text != "hello" || !sent[0].Quiet {
		t.Errorf("unexpected sent text: %+v", sent[0])
	}
}

func TestDispatcher_SendText_UnknownProvider(t *testing.T) {
	d := NewDispatcher()
	err := d.SendText(context.Background(), "discord", "42", "hello", false)
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("expected ErrNoChannel, got %v", err)
	}
}

func TestDispatcher_SendMedia(t *testing.T) {
	d := NewDispatcher()
	mock := NewMockChannel("telegram")
	if err := d.Register("telegram", mock); err != nil {
		t.Fatal(err)
	}

	if err := d.SendMedia(context.Background(), "telegram", "42", "https://i.ibb.co/x/photo.jpg", "whiteboard", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := mock.SentMediaCalls()
	if len(sent) != 1 {
		t.Fatalf("expected 1 sent media, got %d", len(sent))
	}
	if sent[0].ChatID != "42" || sent[0].URL != "https://i.ibb.co/x/photo.jpg" || sent[0].Caption != "whiteboard" {
		t.Errorf("unexpected sent media: %+v", sent[0])
	}
}

func TestDispatcher_SendMedia_UnknownProvider(t *testing.T) {
	d := NewDispatcher()
	err := d.SendMedia(context.Background(), "discord", "42", "https://example.com/a.jpg", "", false)
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("expected ErrNoChannel, got %v", err)
	}
}

func TestDispatcher_SendPrompt(t *testing.T) {
	d := NewDispatcher()
	mock := NewMockChannel("whatsapp")
	if err := d.Register("whatsapp", mock); err != nil {
		t.Fatal(err)
	}

	p := event.Prompt{
		Body: "What would you like to do?",
		Buttons: []event.Button{
			{ID: "token_reminder", Title: "Send token reminder"},
			{ID: "new_token", Title: "Issue new token"},
		},
	}
	if err := d.SendPrompt(context.Background(), "whatsapp", "4477", p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompts := mock.SentPrompts()
	if len(prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(prompts))
	}
	if len(prompts[0].Prompt.Buttons) != 2 {
		t.Errorf("expected 2 buttons, got %d", len(prompts[0].Prompt.Buttons))
	}
}

func TestDispatcher_FetchMedia(t *testing.T) {
	d := NewDispatcher()
	mock := NewMockChannel("telegram")
	mock.MediaContent["photo-1"] = []byte{0xff, 0xd8}
	if err := d.Register("telegram", mock); err != nil {
		t.Fatal(err)
	}

	body, name, err := d.FetchMedia(context.Background(), "telegram", "photo-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()
	if name != "photo-1" {
		t.Errorf("name = %q, want %q", name, "photo-1")
	}
}

func TestDispatcher_FetchMedia_UnknownProvider(t *testing.T) {
	d := NewDispatcher()
	_, _, err := d.FetchMedia(context.Background(), "discord", "photo-1")
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("expected ErrNoChannel, got %v", err)
	}
}

func TestMockChannel_SimulateEvent_NoInbox(t *testing.T) {
	mock := NewMockChannel("telegram")
	err := mock.SimulateEvent(context.Background(), event.Inbound{Kind: event.KindText, Text: "hi"})
	if !errors.Is(err, ErrNoInbox) {
		t.Errorf("expected ErrNoInbox, got %v", err)
	}
}

func TestMockChannel_SimulateEvent_TagsProvider(t *testing.T) {
	mock := NewMockChannel("telegram")

	var got event.Inbound
	mock.SetInbox(func(_ context.Context, ev event.Inbound) error {
		got = ev
		return nil
	})

	if err := mock.SimulateEvent(context.Background(), event.Inbound{Kind: event.KindText, Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Provider != "telegram" {
		t.Errorf("Provider = %q, want %q", got.Provider, "telegram")
	}
}
