package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hankhank10/loglink-server/internal/channel"
	"github.com/hankhank10/loglink-server/pkg/event"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookReceiver processes incoming Telegram webhook payloads. It
// implements gateway.WebhookReceiver.
type WebhookReceiver struct {
	client *Client
	inbox  func(ctx context.Context, ev event.Inbound) error
	logger *slog.Logger
	secret string
}

// NewWebhookReceiver creates a new WebhookReceiver.
func NewWebhookReceiver(client *Client, inbox func(ctx context.Context, ev event.Inbound) error, logger *slog.Logger, secret string) *WebhookReceiver {
	return &WebhookReceiver{
		client: client,
		inbox:  inbox,
		logger: logger,
		secret: secret,
	}
}

// HandleWebhook validates Telegram's secret token header, parses the
// update, and pushes the normalized event to the relay inbox.
func (w *WebhookReceiver) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if w.secret != "" {
		token := headers.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(w.secret), []byte(token)) != 1 {
			return channel.ErrUnauthorized
		}
	}

	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		return &channel.MalformedEventError{Reason: "invalid update JSON: " + err.Error()}
	}

	ev, ok := convertInbound(&update)
	if !ok {
		w.logger.Debug("skipping webhook update", "update_id", update.UpdateID)
		return nil
	}

	// Dismiss the button spinner before the relay acts on the choice.
	if update.CallbackQuery != nil {
		if err := w.client.AnswerCallbackQuery(ctx, update.CallbackQuery.ID); err != nil {
			w.logger.Warn("answerCallbackQuery failed", "error", err)
		}
	}

	return w.inbox(ctx, ev)
}
