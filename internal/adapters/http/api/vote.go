// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/andli/cardartvoter/internal/app"
)

// VoteDependencies defines the interface for vote submission.
type VoteDependencies interface {
	SubmitVote(ctx context.Context, sessionID, token, selectedID string) (service.VoteResult, error)
}

// VoteHandler handles vote submissions.
type VoteHandler struct {
	deps VoteDependencies
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(deps VoteDependencies) *VoteHandler {
	return &VoteHandler{deps: deps}
}

type voteRequest struct {
	Session    string `json:"session"`
	Token      string `json:"token"`
	SelectedID string `json:"selected_id"`
}

func (v voteRequest) validate() error {
	switch {
	case strings.TrimSpace(v.Session) == "":
		return ErrMissingSession
	case strings.TrimSpace(v.Token) == "":
		return ErrMissingToken
	case strings.TrimSpace(v.SelectedID) == "":
		return ErrMissingSelection
	}
	return nil
}

type voteResponse struct {
	Winner cardView `json:"winner"`
	Loser  cardView `json:"loser"`
	Delta  int      `json:"delta"`
}

// HandlePostVote handles POST /vote requests.
func (h *VoteHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.deps.SubmitVote(r.Context(), req.Session, req.Token, req.SelectedID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voteResponse{
		Winner: toCardView(result.Winner),
		Loser:  toCardView(result.Loser),
		Delta:  result.Delta,
	})
}
