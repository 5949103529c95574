package relay

import (
	"context"
	"fmt"

	"github.com/hankhank10/loglink-server/internal/store"
)

// PollResult is the outcome of one client poll: the drained messages
// plus an optional non-persisted upgrade nudge.
type PollResult struct {
	Messages []store.Message

	// Nudge is an extra message appended to the response when the
	// polling client reports a version behind the latest release. It
	// exists only in this response, never in the queue.
	Nudge string
}

// Poll authenticates the token, drains the user's queue, and applies
// the plugin version check. Returns store.ErrUserNotFound for unknown
// tokens.
func (e *Engine) Poll(ctx context.Context, token, pluginVersion string) (*PollResult, error) {
	if e.users == nil || e.queue == nil {
		return nil, errNotReady
	}
	user, err := e.users.UserByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	msgs, err := e.queue.Drain(ctx, user.ID, e.cfg.purgeImmediately())
	if err != nil {
		return nil, fmt.Errorf("relay: drain queue: %w", err)
	}
	e.metrics.MessagesDelivered(len(msgs))

	res := &PollResult{Messages: msgs}

	if pluginVersion != "" {
		latest := e.versions.Latest(ctx)
		if behind(pluginVersion, latest) {
			e.logger.Info("outdated plugin polled",
				"user", user.ID, "client", pluginVersion, "latest", latest)
			res.Nudge = e.msgs.newVersion
			e.notify(ctx, user.Provider, user.ProviderID, e.msgs.newVersionDesktop, true)
		}
	}

	return res, nil
}

func behind(client, latest string) bool {
	c, l := versionNumber(client), versionNumber(latest)
	return c > 0 && l > 0 && c < l
}

// ServiceMessage sends an operator notice to one user, or to every
// user when userID is empty. Notices are quiet and never queued.
func (e *Engine) ServiceMessage(ctx context.Context, contents, userID string) error {
	text := e.msgs.servicePrefix + contents

	if userID != "" {
		user, err := e.users.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		e.notify(ctx, user.Provider, user.ProviderID, text, true)
		return nil
	}

	users, err := e.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("relay: list users: %w", err)
	}
	for _, u := range users {
		e.notify(ctx, u.Provider, u.ProviderID, text, true)
	}
	return nil
}
