package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hankhank10/loglink-server/pkg/event"
)

func newTestChannel(srvURL string) *Telegram {
	return &Telegram{
		config: Config{Token: "1:abc", APIURL: srvURL},
		client: NewClient("1:abc", srvURL),
		logger: testLogger(),
	}
}

func TestSendText_QuietSetsDisableNotification(t *testing.T) {
	t.Parallel()

	var got SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"message_id": 1}})
	}))
	defer srv.Close()

	ch := newTestChannel(srv.URL)
	if err := ch.SendText(context.Background(), "42", "line one^line two", true); err != nil {
		t.Fatalf("send text: %v", err)
	}

	if !got.DisableNotification {
		t.Error("quiet send should disable notification")
	}
	if got.Text != "line one\nline two" {
		t.Errorf("text = %q", got.Text)
	}
	if got.ParseMode != "MarkdownV2" {
		t.Errorf("parse mode = %q", got.ParseMode)
	}
}

func TestSendText_EscapesReservedCharacters(t *testing.T) {
	t.Parallel()

	var got SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"message_id": 1}})
	}))
	defer srv.Close()

	ch := newTestChannel(srv.URL)
	if err := ch.SendText(context.Background(), "42", "*Done!* Saved to my-notes.md", false); err != nil {
		t.Fatalf("send text: %v", err)
	}

	if got.Text != `*Done\!* Saved to my\-notes\.md` {
		t.Errorf("text = %q", got.Text)
	}
}

func TestSendText_FallsBackToPlainOnParseError(t *testing.T) {
	t.Parallel()

	var requests []SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		requests = append(requests, req)

		if req.ParseMode != "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok": false, "error_code": 400, "description": "can't parse entities",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"message_id": 1}})
	}))
	defer srv.Close()

	ch := newTestChannel(srv.URL)
	if err := ch.SendText(context.Background(), "42", "broken *markdown", false); err != nil {
		t.Fatalf("send text should succeed via fallback: %v", err)
	}

	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(requests))
	}
	if requests[1].ParseMode != "" {
		t.Error("second attempt should drop the parse mode")
	}
}

func TestSendMedia_SendsPhotoByURL(t *testing.T) {
	t.Parallel()

	var method string
	var got SendPhotoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"message_id": 1}})
	}))
	defer srv.Close()

	ch := newTestChannel(srv.URL)
	if err := ch.SendMedia(context.Background(), "42", "https://i.ibb.co/x/shot.png", "screenshot", true); err != nil {
		t.Fatalf("send media: %v", err)
	}

	if method != "/bot1:abc/sendPhoto" {
		t.Errorf("method path = %q", method)
	}
	if got.ChatID != 42 || got.Photo != "https://i.ibb.co/x/shot.png" {
		t.Errorf("request = %+v", got)
	}
	if got.Caption != "screenshot" {
		t.Errorf("caption = %q", got.Caption)
	}
	if !got.DisableNotification {
		t.Error("quiet send should disable notification")
	}
}

func TestSendMedia_InvalidChatID(t *testing.T) {
	t.Parallel()

	ch := newTestChannel("http://unused")
	if err := ch.SendMedia(context.Background(), "nope", "https://example.com/a.jpg", "", false); err == nil {
		t.Fatal("expected error for non-numeric chat id")
	}
}

func TestSendText_InvalidChatID(t *testing.T) {
	t.Parallel()

	ch := newTestChannel("http://unused")
	if err := ch.SendText(context.Background(), "not-a-number", "x", false); err == nil {
		t.Fatal("expected error for non-numeric chat id")
	}
}

func TestSendPrompt_BuildsKeyboard(t *testing.T) {
	t.Parallel()

	var got SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"message_id": 1}})
	}))
	defer srv.Close()

	ch := newTestChannel(srv.URL)
	err := ch.SendPrompt(context.Background(), "42", promptWithButtons())
	if err != nil {
		t.Fatalf("send prompt: %v", err)
	}

	if got.ReplyMarkup == nil {
		t.Fatal("expected an inline keyboard")
	}
	if len(got.ReplyMarkup.InlineKeyboard) != 2 {
		t.Fatalf("keyboard rows = %d, want 2", len(got.ReplyMarkup.InlineKeyboard))
	}
	first := got.ReplyMarkup.InlineKeyboard[0][0]
	if first.CallbackData != "token_reminder" || first.Text != "Send token reminder" {
		t.Errorf("first button = %+v", first)
	}
}

func promptWithButtons() event.Prompt {
	return event.Prompt{
		Header: "Help",
		Body:   "What do you need?",
		Buttons: []event.Button{
			{ID: "token_reminder", Title: "Send token reminder"},
			{ID: "new_token", Title: "Generate new token"},
		},
	}
}
