// Package repository defines the card store interface and its adapters.
package repository

import (
	"context"
	"time"

	"github.com/andli/cardartvoter/internal/domain/model"
)

// VoteUpdate carries the paired write for one accepted vote: both cards'
// new standings plus the append-only audit record. The store must apply
// both card updates or neither from the perspective of the same call;
// backends without multi-document transactions may leave one card a vote
// behind after a crash, which the ranking tolerates.
type VoteUpdate struct {
	WinnerID          string
	WinnerRating      int
	WinnerComparisons int

	LoserID          string
	LoserRating      int
	LoserComparisons int

	Delta     int
	CreatedAt time.Time
	Extension map[string]string
}

// Store provides read/write access to the card population.
type Store interface {
	// UpsertCard inserts a new card with the given initial rating.
	// Known cards keep their rating, comparisons and enabled flag; only
	// identity/display fields are refreshed. Returns true when the card
	// was newly created.
	UpsertCard(ctx context.Context, seed model.CardSeed, initialRating int) (bool, error)

	// Card returns one card by scryfall id. Returns ErrNotFound when the
	// id is unknown.
	Card(ctx context.Context, scryfallID string) (model.Card, error)

	// SetEnabled toggles a card's eligibility for selection and
	// aggregation. Disabled cards keep their historical rating.
	SetEnabled(ctx context.Context, scryfallID string, enabled bool) error

	// EnabledCards returns a snapshot of all enabled cards.
	EnabledCards(ctx context.Context) ([]model.Card, error)

	// ApplyVote persists the paired rating write and the audit record.
	ApplyVote(ctx context.Context, u VoteUpdate) error

	// Counts returns the total and enabled card counts.
	Counts(ctx context.Context) (total, enabled int, err error)

	// TotalComparisons sums every card's comparison count. Each vote
	// touches two cards, so the vote count is half of this.
	TotalComparisons(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}
