package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/hankhank10/loglink-server/internal/store"
	"github.com/hankhank10/loglink-server/pkg/event"
)

// reservedKeywords are bare words that trigger the help prompt instead
// of being relayed. Reserved words always win over literal content.
var reservedKeywords = map[string]bool{
	"help":    true,
	"token":   true,
	"refresh": true,
	"readme":  true,
}

func isReservedKeyword(text string) bool {
	return reservedKeywords[strings.ToLower(strings.TrimSpace(text))]
}

// parseCommand splits "/cmd arg..." into its name and argument.
func parseCommand(text string) (cmd, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	name, rest, _ := strings.Cut(text[1:], " ")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(rest), true
}

func isConfirmCommand(ev event.Inbound) bool {
	if ev.Kind != event.KindText {
		return false
	}
	cmd, _, ok := parseCommand(ev.Text)
	return ok && (cmd == "token_refresh_confirm" || cmd == "delete_account_confirm")
}

func (e *Engine) handleCommand(ctx context.Context, user *store.User, cmd, arg string) error {
	switch cmd {
	case "start":
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.alreadyRegistered, false)
		return nil

	case "help":
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.help, false)
		return nil

	case "more_help":
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.moreHelp, false)
		return nil

	case "token_refresh":
		e.pending.set(user.ID, pendingRotate)
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.confirmRefresh, false)
		return nil

	case "token_refresh_confirm":
		if e.pending.consume(user.ID) != pendingRotate {
			e.notify(ctx, user.Provider, user.ProviderID, e.msgs.didntUnderstand, false)
			return nil
		}
		return e.rotateToken(ctx, user)

	case "delete_account":
		e.pending.set(user.ID, pendingDelete)
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.confirmDelete, false)
		return nil

	case "delete_account_confirm":
		if e.pending.consume(user.ID) != pendingDelete {
			e.notify(ctx, user.Provider, user.ProviderID, e.msgs.didntUnderstand, false)
			return nil
		}
		return e.deleteAccount(ctx, user)

	case "imgbb":
		return e.setUploadKey(ctx, user, arg)

	default:
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.didntUnderstand, false)
		return nil
	}
}

// rotateToken swaps the user's credential and walks them through the
// new one. The old token and any queued messages are already gone when
// the first reply leaves.
func (e *Engine) rotateToken(ctx context.Context, user *store.User) error {
	token, err := e.users.RotateToken(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("relay: rotate token: %w", err)
	}
	e.logger.Info("token rotated", "provider", user.Provider, "user", user.ID)

	e.notify(ctx, user.Provider, user.ProviderID, e.msgs.resettingToken, false)
	e.notify(ctx, user.Provider, user.ProviderID, e.msgs.tokenComing, true)
	e.notify(ctx, user.Provider, user.ProviderID, token, true)
	return nil
}

func (e *Engine) deleteAccount(ctx context.Context, user *store.User) error {
	if err := e.users.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("relay: delete account: %w", err)
	}
	e.logger.Info("account deleted", "provider", user.Provider, "user", user.ID)

	e.notify(ctx, user.Provider, user.ProviderID, e.msgs.userDeleted, false)
	return nil
}

func (e *Engine) setUploadKey(ctx context.Context, user *store.User, key string) error {
	if key == "" {
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.imgbbNoArgument, false)
		return nil
	}
	if e.uploader == nil {
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.cannotUpload, false)
		return nil
	}
	if err := e.uploader.ValidateKey(ctx, key); err != nil {
		e.logger.Info("upload key rejected", "user", user.ID, "error", err)
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.imgbbInvalidKey, false)
		return nil
	}
	if err := e.users.SetUploadKey(ctx, user.ID, key); err != nil {
		return fmt.Errorf("relay: store upload key: %w", err)
	}
	e.notify(ctx, user.Provider, user.ProviderID, e.msgs.imgbbKeySet, false)
	return nil
}

// sendHelpPrompt answers a bare reserved keyword with the interactive
// help prompt. Button IDs come back as choice events.
func (e *Engine) sendHelpPrompt(ctx context.Context, user *store.User) error {
	p := event.Prompt{
		Header: "LogLink",
		Body:   "What would you like to do?",
		Buttons: []event.Button{
			{ID: "token_reminder", Title: "Send token reminder"},
			{ID: "new_token", Title: "Issue new token"},
			{ID: "more_help", Title: "More help"},
		},
	}
	if err := e.dispatcher.SendPrompt(ctx, user.Provider, user.ProviderID, p); err != nil {
		e.metrics.SendFailure(user.Provider)
		return fmt.Errorf("relay: send help prompt: %w", err)
	}
	return nil
}

// handleChoice reacts to a tapped prompt button. On providers with
// real buttons the tap itself is the confirmation, so new_token
// rotates immediately.
func (e *Engine) handleChoice(ctx context.Context, user *store.User, ev event.Inbound) error {
	switch ev.ChoiceID {
	case "token_reminder":
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.tokenComing, false)
		e.notify(ctx, user.Provider, user.ProviderID, user.Token, true)
		return nil
	case "new_token":
		return e.rotateToken(ctx, user)
	case "more_help":
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.moreHelp, false)
		return nil
	default:
		e.notify(ctx, user.Provider, user.ProviderID, e.msgs.didntUnderstand, false)
		return nil
	}
}
