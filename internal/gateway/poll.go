package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hankhank10/loglink-server/internal/relay"
	"github.com/hankhank10/loglink-server/internal/store"
)

type pollRequest struct {
	UserID        string `json:"user_id"`
	PluginVersion string `json:"plugin_version"`
}

type pollResponse struct {
	Status   string       `json:"status"`
	Messages pollMessages `json:"messages"`
}

type pollMessages struct {
	Count    int      `json:"count"`
	Contents []string `json:"contents"`
}

// pollHandler serves POST /get_new_messages/. The body carries the
// client token as user_id plus an optional plugin_version; the
// response drains the queue in arrival order.
type pollHandler struct {
	engine  *relay.Engine
	logger  *slog.Logger
	metrics *Metrics
}

func (h *pollHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		h.metrics.PollServed("malformed")
		writeError(w, http.StatusBadRequest, "malformed_request", "body must be JSON with a user_id field")
		return
	}

	res, err := h.engine.Poll(r.Context(), req.UserID, req.PluginVersion)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		h.metrics.PollServed("unknown_user")
		writeError(w, http.StatusNotFound, "user_not_found", "no user matches that token")
		return
	case err != nil:
		h.logger.Error("poll failed", "error", err)
		h.metrics.PollServed("error")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to fetch messages")
		return
	}

	contents := make([]string, 0, len(res.Messages)+1)
	for _, m := range res.Messages {
		contents = append(contents, m.Contents)
	}
	if res.Nudge != "" {
		contents = append(contents, res.Nudge)
	}

	h.metrics.PollServed("ok")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pollResponse{
		Status: "success",
		Messages: pollMessages{
			Count:    len(contents),
			Contents: contents,
		},
	})
}
