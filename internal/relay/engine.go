// Package relay implements the message relay engine: it turns
// normalized inbound chat events into queued payloads for polling
// clients, and drives the conversational command surface used for
// onboarding, token management, and account deletion.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hankhank10/loglink-server/internal/channel"
	"github.com/hankhank10/loglink-server/internal/store"
	"github.com/hankhank10/loglink-server/pkg/event"
)

// Uploader pushes image bytes to a cloud host and returns a public URL.
// The key is the user's own account credential with the host.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, name, key string) (url string, err error)
	ValidateKey(ctx context.Context, key string) error
}

// Metrics receives relay-level counters. The gateway registers a
// Prometheus-backed implementation; absent that, counting is a no-op.
type Metrics interface {
	MessageQueued(provider string)
	MessagesDelivered(n int)
	SendFailure(provider string)
}

type nopMetrics struct{}

func (nopMetrics) MessageQueued(string)  {}
func (nopMetrics) MessagesDelivered(int) {}
func (nopMetrics) SendFailure(string)    {}

// Engine is the relay core. One instance serves all channels.
type Engine struct {
	logger     *slog.Logger
	cfg        Config
	msgs       templates
	dispatcher *channel.Dispatcher
	users      store.IdentityStore
	queue      store.MessageQueue
	uploader   Uploader
	pending    *pendingStore
	versions   *VersionCache
	metrics    Metrics
}

// NewEngine wires an engine from its collaborators. uploader may be
// nil, in which case media relay always reports the upload notice.
func NewEngine(logger *slog.Logger, cfg Config, dispatcher *channel.Dispatcher,
	users store.IdentityStore, queue store.MessageQueue, uploader Uploader) *Engine {
	cfg.defaults()
	return &Engine{
		logger:     logger,
		cfg:        cfg,
		msgs:       newTemplates(cfg.AppURI),
		dispatcher: dispatcher,
		users:      users,
		queue:      queue,
		uploader:   uploader,
		pending:    newPendingStore(cfg.PendingTTL),
		versions:   NewVersionCache(cfg.ReleasesURL, cfg.VersionCacheTTL),
		metrics:    nopMetrics{},
	}
}

// SetMetrics replaces the no-op counter sink. Called during wiring,
// before any traffic.
func (e *Engine) SetMetrics(m Metrics) {
	if m != nil {
		e.metrics = m
	}
}

// Versions exposes the plugin version cache for the housekeeping
// refresher.
func (e *Engine) Versions() *VersionCache {
	return e.versions
}

// Dispatcher exposes the channel registry for wiring.
func (e *Engine) Dispatcher() *channel.Dispatcher {
	return e.dispatcher
}

// HandleInbound processes one normalized event from a channel. A nil
// return means the event was consumed, including the cases where the
// engine replied with a notice instead of queuing anything.
func (e *Engine) HandleInbound(ctx context.Context, ev event.Inbound) error {
	if e.users == nil || e.queue == nil {
		return errNotReady
	}
	user, err := e.users.UserByProviderID(ctx, ev.Provider, ev.ChatID)
	if errors.Is(err, store.ErrUserNotFound) {
		return e.handleUnknownSender(ctx, ev)
	}
	if err != nil {
		return fmt.Errorf("relay: resolve sender: %w", err)
	}

	// Any input other than the matching confirm command disarms a
	// pending destructive action.
	if !isConfirmCommand(ev) {
		e.pending.clear(user.ID)
	}

	switch ev.Kind {
	case event.KindText:
		return e.handleText(ctx, user, ev)
	case event.KindMedia:
		return e.handleMedia(ctx, user, ev)
	case event.KindLocation:
		return e.handleLocation(ctx, user, ev)
	case event.KindChoice:
		return e.handleChoice(ctx, user, ev)
	default:
		e.logger.Info("unsupported message kind",
			"provider", ev.Provider, "kind", string(ev.Kind), "label", ev.KindLabel)
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.notSupported, false)
		return nil
	}
}

// handleUnknownSender deals with events from chat IDs that have no
// account: /start begins onboarding, anything else gets a pointer to
// /start and is dropped.
func (e *Engine) handleUnknownSender(ctx context.Context, ev event.Inbound) error {
	if ev.Kind == event.KindText {
		if cmd, arg, ok := parseCommand(ev.Text); ok && cmd == "start" {
			return e.register(ctx, ev.Provider, ev.ChatID, arg)
		}
	}
	e.notify(ctx, ev.Provider, ev.ChatID, e.msgs.pleaseStart, false)
	return nil
}

// register creates the account and runs the welcome sequence. The
// first message arrives loud; the rest are quiet so the token lands as
// an easily copied standalone message without three extra pings.
func (e *Engine) register(ctx context.Context, provider, chatID, betaCode string) error {
	if e.cfg.gated(provider) && betaCode == "" {
		e.notify(ctx, provider, chatID, e.msgs.betaCodeNotFound, false)
		return nil
	}
	if !e.cfg.gated(provider) {
		betaCode = ""
	}

	user, err := e.users.CreateUser(ctx, provider, chatID, betaCode)
	switch {
	case errors.Is(err, store.ErrGateRejected):
		e.notify(ctx, provider, chatID, e.msgs.betaCodeNotFound, false)
		return nil
	case errors.Is(err, store.ErrUserExists):
		// Lost a concurrent signup race; the sender has an account.
		e.notify(ctx, provider, chatID, e.msgs.alreadyRegistered, false)
		return nil
	case err != nil:
		e.notify(ctx, provider, chatID, e.msgs.problemCreating, false)
		return fmt.Errorf("relay: create user: %w", err)
	}

	e.logger.Info("new user registered", "provider", provider, "user", user.ID)

	e.notify(ctx, provider, chatID, e.msgs.welcome, false)
	e.notify(ctx, provider, chatID, e.msgs.tokenComing, true)
	e.notify(ctx, provider, chatID, user.Token, true)
	e.notify(ctx, provider, chatID, e.msgs.pluginInstructions, true)
	return nil
}

func (e *Engine) handleText(ctx context.Context, user *store.User, ev event.Inbound) error {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.couldNotSave, false)
		return nil
	}

	if cmd, arg, ok := parseCommand(text); ok {
		return e.handleCommand(ctx, user, cmd, arg)
	}

	if isReservedKeyword(text) {
		return e.sendHelpPrompt(ctx, user)
	}

	return e.enqueue(ctx, user, ev.ProviderMessageID, ev.Text)
}

func (e *Engine) handleLocation(ctx context.Context, user *store.User, ev event.Inbound) error {
	if ev.Location == nil {
		return &channel.MalformedEventError{Reason: "location event without coordinates"}
	}
	return e.enqueue(ctx, user, ev.ProviderMessageID, composeLocation(*ev.Location))
}

func (e *Engine) handleMedia(ctx context.Context, user *store.User, ev event.Inbound) error {
	if ev.Media == nil {
		return &channel.MalformedEventError{Reason: "media event without attachment"}
	}
	contents, ok := e.composeMedia(ctx, user, ev)
	if !ok {
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.cannotUpload, false)
		return nil
	}
	return e.enqueue(ctx, user, ev.ProviderMessageID, contents)
}

// enqueue persists the payload and reports failures to the sender.
func (e *Engine) enqueue(ctx context.Context, user *store.User, providerMessageID, contents string) error {
	if _, err := e.queue.Append(ctx, user.ID, user.Provider, providerMessageID, contents); err != nil {
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.couldNotSave, false)
		return fmt.Errorf("relay: queue message: %w", err)
	}
	e.metrics.MessageQueued(user.Provider)
	return nil
}

// notify sends a reply, logging rather than failing the event when the
// provider send breaks. The inbound side already succeeded; a reply
// failure should not make the provider redeliver.
func (e *Engine) notify(ctx context.Context, provider, chatID, text string, quiet bool) {
	if err := e.dispatcher.SendText(ctx, provider, chatID, text, quiet); err != nil {
		e.metrics.SendFailure(provider)
		e.logger.Error("outbound send failed", "provider", provider, "error", err)
	}
}
