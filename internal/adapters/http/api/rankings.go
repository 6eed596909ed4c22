// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/andli/cardartvoter/internal/domain/model"
	"github.com/andli/cardartvoter/internal/domain/ranking"
)

// RankingsDependencies defines the interface for ranking queries.
type RankingsDependencies interface {
	TopCards(ctx context.Context, limit, minComparisons int) ([]model.Card, error)
	TopGroups(ctx context.Context, dim ranking.Dimension, limit int) ([]ranking.Group, error)
	BottomGroups(ctx context.Context, dim ranking.Dimension, limit int) ([]ranking.Group, error)
}

// RankingsHandler handles ranking queries.
type RankingsHandler struct {
	deps     RankingsDependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetCards handles GET /rankings/cards?limit=N&min_comparisons=M.
func (h *RankingsHandler) HandleGetCards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}
	minComparisons := 0
	if raw := r.URL.Query().Get("min_comparisons"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadLimit)
			return
		}
		minComparisons = n
	}

	cards, err := h.deps.TopCards(r.Context(), limit, minComparisons)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]cardView, len(cards))
	for i, c := range cards {
		views[i] = toCardView(c)
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleGetArtists handles GET /rankings/artists?limit=N&order=top|bottom.
func (h *RankingsHandler) HandleGetArtists(w http.ResponseWriter, r *http.Request) {
	h.handleGroups(w, r, ranking.DimensionArtist)
}

// HandleGetSets handles GET /rankings/sets?limit=N&order=top|bottom.
func (h *RankingsHandler) HandleGetSets(w http.ResponseWriter, r *http.Request) {
	h.handleGroups(w, r, ranking.DimensionSet)
}

func (h *RankingsHandler) handleGroups(w http.ResponseWriter, r *http.Request, dim ranking.Dimension) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	var groups []ranking.Group
	var err error
	switch r.URL.Query().Get("order") {
	case "", "top":
		groups, err = h.deps.TopGroups(r.Context(), dim, limit)
	case "bottom":
		groups, err = h.deps.BottomGroups(r.Context(), dim, limit)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadOrder)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]groupView, len(groups))
	for i, g := range groups {
		views[i] = toGroupView(g)
	}
	writeJSON(w, http.StatusOK, views)
}

// parseLimit reads limit, defaulting to the cap and rejecting values
// beyond it.
func (h *RankingsHandler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.maxLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadLimit)
		return 0, false
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadLimit)
		return 0, false
	}
	return n, true
}
