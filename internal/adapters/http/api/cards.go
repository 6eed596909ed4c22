// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// CardsDependencies defines the interface for card administration.
type CardsDependencies interface {
	SetCardEnabled(ctx context.Context, scryfallID string, enabled bool) error
}

// CardsHandler handles card administration requests.
type CardsHandler struct {
	deps CardsDependencies
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(deps CardsDependencies) *CardsHandler {
	return &CardsHandler{deps: deps}
}

type enabledRequest struct {
	Enabled bool `json:"enabled"`
}

// HandleCard handles POST /cards/{id}/enabled requests.
func (h *CardsHandler) HandleCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/cards/")
	id, action, found := strings.Cut(rest, "/")
	if !found || action != "enabled" || id == "" {
		http.NotFound(w, r)
		return
	}

	var req enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadBody)
		return
	}
	if err := h.deps.SetCardEnabled(r.Context(), id, req.Enabled); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "enabled": req.Enabled})
}
