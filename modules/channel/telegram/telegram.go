package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"

	"github.com/hankhank10/loglink-server/internal/channel"
	"github.com/hankhank10/loglink-server/internal/core"
	"github.com/hankhank10/loglink-server/internal/gateway"
	"github.com/hankhank10/loglink-server/pkg/event"
	"gopkg.in/yaml.v3"
)

const providerName = "telegram"

func init() {
	core.RegisterModule(&Telegram{})
}

// Compile-time interface guards.
var (
	_ channel.Channel      = (*Telegram)(nil)
	_ channel.MediaFetcher = (*Telegram)(nil)
	_ core.Configurable    = (*Telegram)(nil)
	_ core.Provisioner     = (*Telegram)(nil)
	_ core.Validator       = (*Telegram)(nil)
	_ core.Starter         = (*Telegram)(nil)
	_ core.Stopper         = (*Telegram)(nil)
)

// Telegram bridges the Telegram Bot API to the relay engine.
type Telegram struct {
	config  Config
	client  *Client
	logger  *slog.Logger
	inbox   func(ctx context.Context, ev event.Inbound) error
	botUser *User
	appCtx  *core.AppContext

	webhookReceiver *WebhookReceiver
}

// ModuleInfo implements core.Module.
func (t *Telegram) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "channel.telegram",
		New: func() core.Module { return &Telegram{} },
	}
}

// Configure implements core.Configurable.
func (t *Telegram) Configure(node *yaml.Node) error {
	if err := node.Decode(&t.config); err != nil {
		return fmt.Errorf("telegram: decode config: %w", err)
	}
	t.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (t *Telegram) Provision(ctx *core.AppContext) error {
	t.appCtx = ctx
	t.logger = ctx.Logger
	t.client = NewClient(t.config.Token, t.config.APIURL)
	return nil
}

// Validate implements core.Validator.
func (t *Telegram) Validate() error {
	if t.config.Token == "" {
		return errors.New("telegram: token is required")
	}
	if t.config.WebhookURL == "" {
		return errors.New("telegram: webhook_url is required")
	}
	return t.config.validate()
}

// Start implements core.Starter. It wires itself into the relay's
// channel registry, registers the webhook receiver with the gateway,
// validates the bot token, and points Telegram at the webhook URL.
func (t *Telegram) Start() error {
	svc, ok := t.appCtx.Service("relay.inbox")
	if !ok {
		return errors.New("telegram: relay.inbox service not available (is relay.engine configured?)")
	}
	inbox, ok := svc.(func(ctx context.Context, ev event.Inbound) error)
	if !ok {
		return fmt.Errorf("telegram: relay.inbox has unexpected type %T", svc)
	}
	t.inbox = func(ctx context.Context, ev event.Inbound) error {
		ev.Provider = providerName
		return inbox(ctx, ev)
	}

	svc, ok = t.appCtx.Service("relay.channels")
	if !ok {
		return errors.New("telegram: relay.channels service not available")
	}
	dispatcher, ok := svc.(*channel.Dispatcher)
	if !ok {
		return fmt.Errorf("telegram: relay.channels has unexpected type %T", svc)
	}
	if err := dispatcher.Register(providerName, t); err != nil {
		return err
	}

	svc, ok = t.appCtx.Service("gateway.webhooks")
	if !ok {
		return errors.New("telegram: gateway.webhooks service not available (is gateway.http configured?)")
	}
	webhooks, ok := svc.(*gateway.WebhookDispatcher)
	if !ok {
		return fmt.Errorf("telegram: gateway.webhooks has unexpected type %T", svc)
	}

	if t.config.WebhookSecret == "" {
		t.logger.Warn("telegram webhook running without secret_token, " +
			"consider setting webhook_secret for production deployments")
	}
	t.webhookReceiver = NewWebhookReceiver(t.client, t.inbox, t.logger, t.config.WebhookSecret)
	webhooks.Register(providerName, t.webhookReceiver)

	user, err := t.client.GetMe(context.Background())
	if err != nil {
		return fmt.Errorf("telegram: getMe failed (check token): %w", err)
	}
	t.botUser = user
	t.logger.Info("telegram bot authenticated",
		"id", user.ID,
		"username", user.Username,
	)

	if err := t.client.SetWebhook(context.Background(), SetWebhookRequest{
		URL:            t.config.WebhookURL,
		SecretToken:    t.config.WebhookSecret,
		AllowedUpdates: []string{"message", "callback_query"},
	}); err != nil {
		return fmt.Errorf("telegram: setWebhook failed: %w", err)
	}
	t.logger.Info("telegram webhook configured", "url", t.config.WebhookURL)

	return nil
}

// Stop implements core.Stopper.
func (t *Telegram) Stop(ctx context.Context) error {
	if t.client == nil {
		return nil
	}
	if err := t.client.DeleteWebhook(ctx); err != nil {
		t.logger.Warn("telegram: failed to delete webhook on shutdown", "error", err)
	}
	return nil
}

// SetInbox implements channel.Channel.
func (t *Telegram) SetInbox(fn func(ctx context.Context, ev event.Inbound) error) {
	t.inbox = fn
}

// SendText implements channel.Channel.
func (t *Telegram) SendText(ctx context.Context, chatID, text string, quiet bool) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat ID %q: %w", chatID, err)
	}

	req := SendMessageRequest{
		ChatID:                id,
		Text:                  formatMarkdownV2(renderOutbound(text)),
		ParseMode:             "MarkdownV2",
		DisableWebPagePreview: true,
		DisableNotification:   quiet,
	}
	_, err = t.client.SendMessage(ctx, req)

	// Markdown parse failures come back as 400. Resend the literal
	// text rather than dropping the message.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == 400 {
		req.Text = renderOutbound(text)
		req.ParseMode = ""
		_, err = t.client.SendMessage(ctx, req)
	}
	return err
}

// SendMedia implements channel.Channel via sendPhoto. Telegram fetches
// the URL itself; the caption goes out unformatted.
func (t *Telegram) SendMedia(ctx context.Context, chatID, url, caption string, quiet bool) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat ID %q: %w", chatID, err)
	}

	_, err = t.client.SendPhoto(ctx, SendPhotoRequest{
		ChatID:              id,
		Photo:               url,
		Caption:             caption,
		DisableNotification: quiet,
	})
	return err
}

// SendPrompt implements channel.Channel using an inline keyboard.
func (t *Telegram) SendPrompt(ctx context.Context, chatID string, p event.Prompt) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat ID %q: %w", chatID, err)
	}

	rows := make([][]InlineKeyboardButton, 0, len(p.Buttons))
	for _, b := range p.Buttons {
		rows = append(rows, []InlineKeyboardButton{{Text: b.Title, CallbackData: b.ID}})
	}

	text := p.Body
	if p.Header != "" {
		text = "*" + p.Header + "*^^" + p.Body
	}

	_, err = t.client.SendMessage(ctx, SendMessageRequest{
		ChatID:      id,
		Text:        formatMarkdownV2(renderOutbound(text)),
		ParseMode:   "MarkdownV2",
		ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	return err
}

// FetchMedia implements channel.MediaFetcher by resolving the file_id
// through getFile and downloading the result.
func (t *Telegram) FetchMedia(ctx context.Context, fileRef string) (io.ReadCloser, string, error) {
	file, err := t.client.GetFile(ctx, fileRef)
	if err != nil {
		return nil, "", fmt.Errorf("telegram: getFile failed: %w", err)
	}
	if file.FilePath == "" {
		return nil, "", errors.New("telegram: getFile returned no file path")
	}
	body, err := t.client.DownloadFile(ctx, file.FilePath)
	if err != nil {
		return nil, "", err
	}
	return body, path.Base(file.FilePath), nil
}
