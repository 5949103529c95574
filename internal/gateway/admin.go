package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hankhank10/loglink-server/internal/relay"
	"github.com/hankhank10/loglink-server/internal/store"
)

// adminHandler serves the operator endpoints. All routes sit behind
// the admin auth middleware.
type adminHandler struct {
	engine    *relay.Engine
	betaCodes store.BetaCodeStore
	logger    *slog.Logger
}

const maxCodesPerRequest = 100

func (h *adminHandler) createBetaCodes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NumberOfCodes int `json:"number_of_codes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_request", "body must be JSON with number_of_codes")
		return
	}
	if req.NumberOfCodes < 1 || req.NumberOfCodes > maxCodesPerRequest {
		writeError(w, http.StatusBadRequest, "malformed_request", "number_of_codes must be between 1 and 100")
		return
	}

	codes, err := h.betaCodes.CreateCodes(r.Context(), req.NumberOfCodes)
	if err != nil {
		h.logger.Error("beta code creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create codes")
		return
	}

	h.logger.Info("beta codes created", "count", len(codes))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "success",
		"codes_added": codes,
	})
}

func (h *adminHandler) listBetaCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.betaCodes.ListCodes(r.Context())
	if err != nil {
		h.logger.Error("beta code listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list codes")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"count":  len(codes),
		"codes":  codes,
	})
}

func (h *adminHandler) sendServiceMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Contents string `json:"contents"`
		UserID   string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Contents == "" {
		writeError(w, http.StatusBadRequest, "malformed_request", "body must be JSON with contents")
		return
	}

	err := h.engine.ServiceMessage(r.Context(), req.Contents, req.UserID)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", "no user with that id")
		return
	case err != nil:
		h.logger.Error("service message failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to send service message")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}
