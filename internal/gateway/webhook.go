package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/hankhank10/loglink-server/internal/channel"
)

// WebhookReceiver processes a webhook delivery for one provider. The
// receiver owns request authentication (shared-secret headers) and
// payload decoding; returned errors map onto HTTP statuses:
// channel.ErrUnauthorized → 401, channel.MalformedEventError → 400,
// anything else → 500.
type WebhookReceiver interface {
	HandleWebhook(ctx context.Context, header http.Header, body []byte) error
}

// SubscriptionVerifier is implemented by receivers whose provider
// probes the webhook with a GET challenge before delivering events
// (the WhatsApp Cloud API handshake). The returned string is echoed
// back to the provider.
type SubscriptionVerifier interface {
	VerifySubscription(query map[string][]string) (challenge string, err error)
}

// WebhookDispatcher routes incoming webhooks to the receiver
// registered for the provider named in the URL.
type WebhookDispatcher struct {
	mu        sync.RWMutex
	receivers map[string]WebhookReceiver
	logger    *slog.Logger
	metrics   *Metrics
}

// NewWebhookDispatcher creates a ready-to-use dispatcher.
func NewWebhookDispatcher(logger *slog.Logger, metrics *Metrics) *WebhookDispatcher {
	return &WebhookDispatcher{
		receivers: make(map[string]WebhookReceiver),
		logger:    logger,
		metrics:   metrics,
	}
}

// Register adds a receiver for the given provider name. Channel
// modules call this at Start.
func (d *WebhookDispatcher) Register(provider string, r WebhookReceiver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receivers[provider] = r
}

func (d *WebhookDispatcher) receiver(provider string) (WebhookReceiver, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.receivers[provider]
	return r, ok
}

// Providers returns the names of all registered receivers.
func (d *WebhookDispatcher) Providers() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.receivers))
	for name := range d.receivers {
		names = append(names, name)
	}
	return names
}

// handlePost serves POST /{provider}/webhook.
func (d *WebhookDispatcher) handlePost(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	recv, ok := d.receiver(provider)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_provider", "no channel registered for "+provider)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed_request", "failed to read body")
		return
	}

	d.metrics.WebhookReceived(provider)

	err = recv.HandleWebhook(r.Context(), r.Header, body)
	var malformed *channel.MalformedEventError
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	case errors.Is(err, channel.ErrUnauthorized):
		d.logger.Warn("webhook rejected", "provider", provider)
		writeError(w, http.StatusUnauthorized, "unauthorized", "webhook not authorized")
	case errors.As(err, &malformed):
		d.logger.Warn("malformed webhook", "provider", provider, "reason", malformed.Reason)
		writeError(w, http.StatusBadRequest, "malformed_event", malformed.Reason)
	default:
		d.logger.Error("webhook processing failed", "provider", provider, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "event processing failed")
	}
}

// handleGet serves GET /{provider}/webhook, used by providers that
// verify the subscription with a challenge.
func (d *WebhookDispatcher) handleGet(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	recv, ok := d.receiver(provider)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_provider", "no channel registered for "+provider)
		return
	}

	v, ok := recv.(SubscriptionVerifier)
	if !ok {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	challenge, err := v.VerifySubscription(r.URL.Query())
	if err != nil {
		d.logger.Warn("subscription verification failed", "provider", provider, "error", err)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	_, _ = w.Write([]byte(challenge))
}

// writeError emits the structured error body shared by all endpoints.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "error",
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}
