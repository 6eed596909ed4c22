// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/andli/cardartvoter/internal/app"
)

// PairDependencies defines the interface for pair issuing.
type PairDependencies interface {
	RequestPair(ctx context.Context, sessionID, targetID string) (service.PairView, error)
}

// PairHandler handles pair requests.
type PairHandler struct {
	deps PairDependencies
}

// NewPairHandler creates a new pair handler.
func NewPairHandler(deps PairDependencies) *PairHandler {
	return &PairHandler{deps: deps}
}

type pairResponse struct {
	Cards [2]cardView `json:"cards"`
	Token string      `json:"token"`
}

// HandleGetPair handles GET /pair?session=S[&target=ID] requests.
func (h *PairHandler) HandleGetPair(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingSession)
		return
	}
	targetID := strings.TrimSpace(r.URL.Query().Get("target"))

	view, err := h.deps.RequestPair(r.Context(), sessionID, targetID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairResponse{
		Cards: [2]cardView{toCardView(view.CardA), toCardView(view.CardB)},
		Token: view.Token,
	})
}
