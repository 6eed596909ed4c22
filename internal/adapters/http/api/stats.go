// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/andli/cardartvoter/internal/app"
)

// StatsDependencies defines the interface for service statistics.
type StatsDependencies interface {
	Stats(ctx context.Context) (service.ServiceStats, error)
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	deps StatsDependencies
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps StatsDependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

type statsResponse struct {
	TotalCards       int `json:"total_cards"`
	EnabledCards     int `json:"enabled_cards"`
	VoteCount        int `json:"vote_count"`
	OutstandingPairs int `json:"outstanding_pairs"`
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats, err := h.deps.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalCards:       stats.TotalCards,
		EnabledCards:     stats.EnabledCards,
		VoteCount:        stats.VoteCount,
		OutstandingPairs: stats.OutstandingPairs,
	})
}
