package whatsapp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/hankhank10/loglink-server/internal/channel"
	"github.com/hankhank10/loglink-server/pkg/event"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func collectInbox(events *[]event.Inbound) func(ctx context.Context, ev event.Inbound) error {
	return func(_ context.Context, ev event.Inbound) error {
		*events = append(*events, ev)
		return nil
	}
}

const textPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "123",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "messages": [{
          "from": "441234567890",
          "id": "wamid.1",
          "timestamp": "1700000000",
          "type": "text",
          "text": {"body": "hello"}
        }]
      }
    }]
  }]
}`

func TestVerifySubscription(t *testing.T) {
	t.Parallel()

	w := NewWebhookReceiver(nil, testLogger(), "verifyme", "")

	challenge, err := w.VerifySubscription(map[string][]string{
		"hub.mode":         {"subscribe"},
		"hub.verify_token": {"verifyme"},
		"hub.challenge":    {"1158201444"},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if challenge != "1158201444" {
		t.Errorf("challenge = %q", challenge)
	}

	_, err = w.VerifySubscription(map[string][]string{
		"hub.mode":         {"subscribe"},
		"hub.verify_token": {"wrong"},
		"hub.challenge":    {"1158201444"},
	})
	if !errors.Is(err, channel.ErrUnauthorized) {
		t.Fatalf("wrong token should be unauthorized, got %v", err)
	}
}

func TestHandleWebhook_DeliversMessages(t *testing.T) {
	t.Parallel()

	var events []event.Inbound
	w := NewWebhookReceiver(collectInbox(&events), testLogger(), "v", "")

	if err := w.HandleWebhook(context.Background(), http.Header{}, []byte(textPayload)); err != nil {
		t.Fatalf("handle webhook: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("inbox received %d events, want 1", len(events))
	}
	if events[0].Text != "hello" || events[0].ChatID != "441234567890" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestHandleWebhook_SignatureValidation(t *testing.T) {
	t.Parallel()

	var events []event.Inbound
	w := NewWebhookReceiver(collectInbox(&events), testLogger(), "v", "app-secret")

	body := []byte(textPayload)

	headers := http.Header{}
	headers.Set(signatureHeader, "sha256=deadbeef")
	err := w.HandleWebhook(context.Background(), headers, body)
	if !errors.Is(err, channel.ErrUnauthorized) {
		t.Fatalf("bad signature should be unauthorized, got %v", err)
	}

	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write(body)
	headers.Set(signatureHeader, "sha256="+hex.EncodeToString(mac.Sum(nil)))
	if err := w.HandleWebhook(context.Background(), headers, body); err != nil {
		t.Fatalf("valid signature: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("inbox received %d events, want 1", len(events))
	}
}

func TestHandleWebhook_StatusOnlyDelivery(t *testing.T) {
	t.Parallel()

	var events []event.Inbound
	w := NewWebhookReceiver(collectInbox(&events), testLogger(), "v", "")

	body := []byte(`{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messaging_product":"whatsapp","statuses":[{"id":"wamid.1","status":"delivered"}]}}]}]}`)
	if err := w.HandleWebhook(context.Background(), http.Header{}, body); err != nil {
		t.Fatalf("status delivery should be consumed: %v", err)
	}
	if len(events) != 0 {
		t.Fatal("statuses should not reach the inbox")
	}
}

func TestHandleWebhook_Malformed(t *testing.T) {
	t.Parallel()

	w := NewWebhookReceiver(collectInbox(&[]event.Inbound{}), testLogger(), "v", "")

	var malformed *channel.MalformedEventError
	if err := w.HandleWebhook(context.Background(), http.Header{}, []byte("nope")); !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedEventError, got %v", err)
	}
	if err := w.HandleWebhook(context.Background(), http.Header{}, []byte(`{"object":"page"}`)); !errors.As(err, &malformed) {
		t.Fatalf("wrong object should be malformed, got %v", err)
	}
}
