package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/hankhank10/loglink-server/internal/store"
)

// healthHandler serves the liveness and health endpoints.
type healthHandler struct {
	users    store.IdentityStore
	queue    store.MessageQueue
	webhooks *WebhookDispatcher
	logger   *slog.Logger
	started  time.Time
	version  string
}

// liveness is the bare GET / probe. A plain string keeps uptime
// monitors and load balancers happy without exposing anything.
func (h *healthHandler) liveness(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("LogLink server is running"))
}

func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	type dbStats struct {
		Users   int64 `json:"users"`
		Pending int64 `json:"pending_messages"`
	}

	status := "ok"
	httpStatus := http.StatusOK
	var db dbStats

	users, err := h.users.UserCount(r.Context())
	if err == nil {
		db.Users = users
		db.Pending, err = h.queue.PendingCount(r.Context())
	}
	if err != nil {
		h.logger.Error("health check failed", "error", err)
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	channels := h.webhooks.Providers()
	sort.Strings(channels)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   status,
		"version":  h.version,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"database": db,
		"channels": channels,
	})
}

// status is the admin-authed snapshot. Same data as health plus the
// raw uptime seconds for scraping scripts.
func (h *healthHandler) status(w http.ResponseWriter, r *http.Request) {
	users, _ := h.users.UserCount(r.Context())
	pending, _ := h.queue.PendingCount(r.Context())
	channels := h.webhooks.Providers()
	sort.Strings(channels)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":           "success",
		"version":          h.version,
		"uptime_seconds":   int64(time.Since(h.started).Seconds()),
		"users":            users,
		"pending_messages": pending,
		"channels":         channels,
	})
}
