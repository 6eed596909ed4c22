package repository

import (
	"context"
	"sync"
	"time"

	"github.com/andli/cardartvoter/internal/domain/model"
	"github.com/andli/cardartvoter/pkg/metrics"
)

// MemStore is an in-memory Store. Vote history is retained in memory, so
// it suits tests and single-process deployments without durability needs.
type MemStore struct {
	mu     sync.RWMutex
	cards  map[string]model.Card
	votes  []model.Vote
	closed bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		cards: make(map[string]model.Card),
	}
}

// UpsertCard inserts a new card or refreshes an existing card's identity
// fields, never touching rating, comparisons or enabled.
func (s *MemStore) UpsertCard(ctx context.Context, seed model.CardSeed, initialRating int) (bool, error) {
	defer recordOp("upsert_card", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	if existing, ok := s.cards[seed.ScryfallID]; ok {
		existing.Name = seed.Name
		existing.Artist = seed.Artist
		existing.Set = seed.Set
		existing.SetName = seed.SetName
		existing.ImageURL = seed.ImageURL
		s.cards[seed.ScryfallID] = existing
		return false, nil
	}

	s.cards[seed.ScryfallID] = model.Card{
		ScryfallID:  seed.ScryfallID,
		Name:        seed.Name,
		Artist:      seed.Artist,
		Set:         seed.Set,
		SetName:     seed.SetName,
		ImageURL:    seed.ImageURL,
		Rating:      initialRating,
		Comparisons: 0,
		Enabled:     true,
	}
	return true, nil
}

// Card returns one card by scryfall id.
func (s *MemStore) Card(ctx context.Context, scryfallID string) (model.Card, error) {
	defer recordOp("card", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Card{}, ErrClosed
	}
	c, ok := s.cards[scryfallID]
	if !ok {
		return model.Card{}, ErrNotFound
	}
	return c, nil
}

// SetEnabled toggles a card's eligibility.
func (s *MemStore) SetEnabled(ctx context.Context, scryfallID string, enabled bool) error {
	defer recordOp("set_enabled", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	c, ok := s.cards[scryfallID]
	if !ok {
		return ErrNotFound
	}
	c.Enabled = enabled
	s.cards[scryfallID] = c
	return nil
}

// EnabledCards returns a snapshot of all enabled cards.
func (s *MemStore) EnabledCards(ctx context.Context) ([]model.Card, error) {
	defer recordOp("enabled_cards", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Card, 0, len(s.cards))
	for _, c := range s.cards {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out, nil
}

// ApplyVote applies both card updates and appends the audit record under
// one lock, so readers never observe a half-applied pair.
func (s *MemStore) ApplyVote(ctx context.Context, u VoteUpdate) error {
	defer recordOp("apply_vote", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	winner, ok := s.cards[u.WinnerID]
	if !ok {
		return ErrNotFound
	}
	loser, ok := s.cards[u.LoserID]
	if !ok {
		return ErrNotFound
	}

	winner.Rating = u.WinnerRating
	winner.Comparisons = u.WinnerComparisons
	loser.Rating = u.LoserRating
	loser.Comparisons = u.LoserComparisons
	s.cards[u.WinnerID] = winner
	s.cards[u.LoserID] = loser

	s.votes = append(s.votes, model.Vote{
		WinnerID:  u.WinnerID,
		LoserID:   u.LoserID,
		Delta:     u.Delta,
		CreatedAt: u.CreatedAt,
		Extension: u.Extension,
	})
	return nil
}

// Counts returns the total and enabled card counts.
func (s *MemStore) Counts(ctx context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, 0, ErrClosed
	}
	enabled := 0
	for _, c := range s.cards {
		if c.Enabled {
			enabled++
		}
	}
	return len(s.cards), enabled, nil
}

// TotalComparisons sums every card's comparison count.
func (s *MemStore) TotalComparisons(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	sum := 0
	for _, c := range s.cards {
		sum += c.Comparisons
	}
	return sum, nil
}

// Votes returns a copy of the audit log. Test and debugging helper.
func (s *MemStore) Votes() []model.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Vote, len(s.votes))
	copy(out, s.votes)
	return out
}

// Close marks the store closed; subsequent calls return ErrClosed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// recordOp reports an operation's latency to the metrics manager.
func recordOp(op string, start time.Time) {
	metrics.RecordRepositoryOp(op, float64(time.Since(start).Microseconds())/1000)
}
