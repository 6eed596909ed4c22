// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/andli/cardartvoter/internal/app"
	"github.com/andli/cardartvoter/internal/domain/model"
	"github.com/andli/cardartvoter/internal/domain/pairing"
	"github.com/andli/cardartvoter/internal/domain/ranking"
	"github.com/andli/cardartvoter/internal/domain/session"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	RequestPair(ctx context.Context, sessionID, targetID string) (service.PairView, error)
	SubmitVote(ctx context.Context, sessionID, token, selectedID string) (service.VoteResult, error)
	TopCards(ctx context.Context, limit, minComparisons int) ([]model.Card, error)
	TopGroups(ctx context.Context, dim ranking.Dimension, limit int) ([]ranking.Group, error)
	BottomGroups(ctx context.Context, dim ranking.Dimension, limit int) ([]ranking.Group, error)
	SetCardEnabled(ctx context.Context, scryfallID string, enabled bool) error
	Stats(ctx context.Context) (service.ServiceStats, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	pairHandler     *PairHandler
	voteHandler     *VoteHandler
	rankingsHandler *RankingsHandler
	cardsHandler    *CardsHandler
	statsHandler    *StatsHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// limit parameter of ranking queries.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		pairHandler:     NewPairHandler(deps),
		voteHandler:     NewVoteHandler(deps),
		rankingsHandler: NewRankingsHandler(deps, maxLimit),
		cardsHandler:    NewCardsHandler(deps),
		statsHandler:    NewStatsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/pair", MetricsMiddleware(s.pairHandler.HandleGetPair, "pair"))
	mux.HandleFunc("/vote", MetricsMiddleware(s.voteHandler.HandlePostVote, "vote"))
	mux.HandleFunc("/rankings/cards", MetricsMiddleware(s.rankingsHandler.HandleGetCards, "rankings_cards"))
	mux.HandleFunc("/rankings/artists", MetricsMiddleware(s.rankingsHandler.HandleGetArtists, "rankings_artists"))
	mux.HandleFunc("/rankings/sets", MetricsMiddleware(s.rankingsHandler.HandleGetSets, "rankings_sets"))
	mux.HandleFunc("/cards/", MetricsMiddleware(s.cardsHandler.HandleCard, "cards"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
}

// cardView mirrors the read shape of one card.
type cardView struct {
	ScryfallID  string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Set         string `json:"set"`
	SetName     string `json:"set_name,omitempty"`
	ImageURL    string `json:"image_url"`
	Rating      int    `json:"rating"`
	Comparisons int    `json:"comparisons"`
}

func toCardView(c model.Card) cardView {
	return cardView{
		ScryfallID:  c.ScryfallID,
		Name:        c.Name,
		Artist:      c.Artist,
		Set:         c.Set,
		SetName:     c.SetName,
		ImageURL:    c.ImageURL,
		Rating:      c.Rating,
		Comparisons: c.Comparisons,
	}
}

// groupView mirrors the read shape of one ranked group.
type groupView struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Rating      float64   `json:"rating"`
	MeanRating  float64   `json:"mean_rating"`
	MemberCount int       `json:"members"`
	Notable     *cardView `json:"notable,omitempty"`
}

func toGroupView(g ranking.Group) groupView {
	v := groupView{
		Key:         g.Key,
		Name:        g.Name,
		Rating:      g.ShrunkRating,
		MeanRating:  g.MeanRating,
		MemberCount: g.MemberCount,
	}
	if g.Notable != nil {
		n := toCardView(*g.Notable)
		v.Notable = &n
	}
	return v
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates the core error taxonomy to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pairing.ErrNotEnoughCards):
		writeError(w, http.StatusServiceUnavailable, "not_enough_cards", err)
	case errors.Is(err, session.ErrInvalidToken):
		writeError(w, http.StatusConflict, "invalid_token", err)
	case errors.Is(err, service.ErrUnknownCard):
		writeError(w, http.StatusNotFound, "unknown_card", err)
	case errors.Is(err, service.ErrUnknownDimension):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
