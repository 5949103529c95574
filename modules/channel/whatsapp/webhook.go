package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hankhank10/loglink-server/internal/channel"
	"github.com/hankhank10/loglink-server/pkg/event"
)

const signatureHeader = "X-Hub-Signature-256"

// WebhookReceiver processes incoming Cloud API webhook payloads. It
// implements gateway.WebhookReceiver and gateway.SubscriptionVerifier.
type WebhookReceiver struct {
	inbox       func(ctx context.Context, ev event.Inbound) error
	logger      *slog.Logger
	verifyToken string
	appSecret   string
}

// NewWebhookReceiver creates a new WebhookReceiver.
func NewWebhookReceiver(inbox func(ctx context.Context, ev event.Inbound) error, logger *slog.Logger, verifyToken, appSecret string) *WebhookReceiver {
	return &WebhookReceiver{
		inbox:       inbox,
		logger:      logger,
		verifyToken: verifyToken,
		appSecret:   appSecret,
	}
}

// VerifySubscription answers Meta's GET handshake: the challenge is
// echoed back when the verify token matches.
func (w *WebhookReceiver) VerifySubscription(query map[string][]string) (string, error) {
	mode := first(query, "hub.mode")
	token := first(query, "hub.verify_token")
	challenge := first(query, "hub.challenge")

	if mode != "subscribe" || token != w.verifyToken {
		return "", channel.ErrUnauthorized
	}
	return challenge, nil
}

// HandleWebhook validates the payload signature, unwraps the delivery
// envelope, and pushes each message to the relay inbox. Status-only
// deliveries (sent, read receipts) are consumed silently.
func (w *WebhookReceiver) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if w.appSecret != "" && !validSignature(body, headers.Get(signatureHeader), w.appSecret) {
		return channel.ErrUnauthorized
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return &channel.MalformedEventError{Reason: "invalid payload JSON: " + err.Error()}
	}
	if payload.Object != "whatsapp_business_account" {
		return &channel.MalformedEventError{Reason: "unexpected object " + payload.Object}
	}

	for _, e := range payload.Entry {
		for _, ch := range e.Changes {
			for i := range ch.Value.Messages {
				ev, ok := convertInbound(&ch.Value.Messages[i])
				if !ok {
					w.logger.Debug("skipping webhook message",
						"id", ch.Value.Messages[i].ID, "type", ch.Value.Messages[i].Type)
					continue
				}
				if err := w.inbox(ctx, ev); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// validSignature checks the sha256= HMAC header Meta sends with each
// delivery.
func validSignature(body []byte, header, secret string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(want))
}

func first(query map[string][]string, key string) string {
	if vals := query[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}
