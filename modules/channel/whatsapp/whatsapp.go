package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"

	"github.com/hankhank10/loglink-server/internal/channel"
	"github.com/hankhank10/loglink-server/internal/core"
	"github.com/hankhank10/loglink-server/internal/gateway"
	"github.com/hankhank10/loglink-server/pkg/event"
	"gopkg.in/yaml.v3"
)

const providerName = "whatsapp"

func init() {
	core.RegisterModule(&WhatsApp{})
}

// Compile-time interface guards.
var (
	_ channel.Channel      = (*WhatsApp)(nil)
	_ channel.MediaFetcher = (*WhatsApp)(nil)
	_ core.Configurable    = (*WhatsApp)(nil)
	_ core.Provisioner     = (*WhatsApp)(nil)
	_ core.Validator       = (*WhatsApp)(nil)
	_ core.Starter         = (*WhatsApp)(nil)
)

// WhatsApp bridges the WhatsApp Cloud API to the relay engine.
type WhatsApp struct {
	config Config
	client *Client
	logger *slog.Logger
	inbox  func(ctx context.Context, ev event.Inbound) error
	appCtx *core.AppContext

	webhookReceiver *WebhookReceiver
}

// ModuleInfo implements core.Module.
func (w *WhatsApp) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "channel.whatsapp",
		New: func() core.Module { return &WhatsApp{} },
	}
}

// Configure implements core.Configurable.
func (w *WhatsApp) Configure(node *yaml.Node) error {
	if err := node.Decode(&w.config); err != nil {
		return fmt.Errorf("whatsapp: decode config: %w", err)
	}
	w.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (w *WhatsApp) Provision(ctx *core.AppContext) error {
	w.appCtx = ctx
	w.logger = ctx.Logger
	w.client = NewClient(w.config)
	return nil
}

// Validate implements core.Validator.
func (w *WhatsApp) Validate() error {
	if w.config.AccessToken == "" {
		return errors.New("whatsapp: access_token is required")
	}
	if w.config.PhoneNumberID == "" {
		return errors.New("whatsapp: phone_number_id is required")
	}
	return w.config.validate()
}

// Start implements core.Starter. It wires itself into the relay's
// channel registry and registers the webhook receiver with the gateway.
func (w *WhatsApp) Start() error {
	svc, ok := w.appCtx.Service("relay.inbox")
	if !ok {
		return errors.New("whatsapp: relay.inbox service not available (is relay.engine configured?)")
	}
	inbox, ok := svc.(func(ctx context.Context, ev event.Inbound) error)
	if !ok {
		return fmt.Errorf("whatsapp: relay.inbox has unexpected type %T", svc)
	}
	w.inbox = func(ctx context.Context, ev event.Inbound) error {
		ev.Provider = providerName
		return inbox(ctx, ev)
	}

	svc, ok = w.appCtx.Service("relay.channels")
	if !ok {
		return errors.New("whatsapp: relay.channels service not available")
	}
	dispatcher, ok := svc.(*channel.Dispatcher)
	if !ok {
		return fmt.Errorf("whatsapp: relay.channels has unexpected type %T", svc)
	}
	if err := dispatcher.Register(providerName, w); err != nil {
		return err
	}

	svc, ok = w.appCtx.Service("gateway.webhooks")
	if !ok {
		return errors.New("whatsapp: gateway.webhooks service not available (is gateway.http configured?)")
	}
	webhooks, ok := svc.(*gateway.WebhookDispatcher)
	if !ok {
		return fmt.Errorf("whatsapp: gateway.webhooks has unexpected type %T", svc)
	}

	if w.config.AppSecret == "" {
		w.logger.Warn("whatsapp webhook running without app_secret, " +
			"payload signatures will not be validated")
	}
	w.webhookReceiver = NewWebhookReceiver(w.inbox, w.logger, w.config.VerifyToken, w.config.AppSecret)
	webhooks.Register(providerName, w.webhookReceiver)

	w.logger.Info("whatsapp channel started", "phone_number_id", w.config.PhoneNumberID)
	return nil
}

// SetInbox implements channel.Channel.
func (w *WhatsApp) SetInbox(fn func(ctx context.Context, ev event.Inbound) error) {
	w.inbox = fn
}

// SendText implements channel.Channel. The Cloud API has no silent
// delivery flag, so quiet is a no-op here.
func (w *WhatsApp) SendText(ctx context.Context, chatID, text string, _ bool) error {
	_, err := w.client.Send(ctx, sendRequest{
		To:   chatID,
		Type: "text",
		Text: &textBody{Body: renderOutbound(text)},
	})
	return err
}

// SendMedia implements channel.Channel. The Cloud API downloads the
// linked image itself; quiet is a no-op as with SendText.
func (w *WhatsApp) SendMedia(ctx context.Context, chatID, url, caption string, _ bool) error {
	_, err := w.client.Send(ctx, sendRequest{
		To:    chatID,
		Type:  "image",
		Image: &mediaLink{Link: url, Caption: caption},
	})
	return err
}

// SendPrompt implements channel.Channel using reply buttons. The Cloud
// API caps reply buttons at three per message.
func (w *WhatsApp) SendPrompt(ctx context.Context, chatID string, p event.Prompt) error {
	buttons := make([]sendButton, 0, len(p.Buttons))
	for _, b := range p.Buttons {
		if len(buttons) == 3 {
			break
		}
		buttons = append(buttons, sendButton{
			Type:  "reply",
			Reply: sendButtonReply{ID: b.ID, Title: b.Title},
		})
	}

	text := p.Body
	if p.Header != "" {
		text = "*" + p.Header + "*^^" + p.Body
	}

	_, err := w.client.Send(ctx, sendRequest{
		To:   chatID,
		Type: "interactive",
		Interactive: &sendInteractive{
			Type:   "button",
			Body:   textBody{Body: renderOutbound(text)},
			Action: sendButtonList{Buttons: buttons},
		},
	})
	return err
}

// FetchMedia implements channel.MediaFetcher: resolve the media ID to
// its short-lived URL, then download with the same bearer token.
func (w *WhatsApp) FetchMedia(ctx context.Context, fileRef string) (io.ReadCloser, string, error) {
	info, err := w.client.MediaInfo(ctx, fileRef)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: resolve media: %w", err)
	}
	if info.URL == "" {
		return nil, "", errors.New("whatsapp: media info returned no URL")
	}

	body, err := w.client.DownloadMedia(ctx, info.URL)
	if err != nil {
		return nil, "", err
	}

	name := fileRef
	if exts, err := mime.ExtensionsByType(info.MIMEType); err == nil && len(exts) > 0 {
		name += exts[0]
	}
	return body, name, nil
}
