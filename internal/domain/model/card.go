// Package model contains domain models passed between layers.
package model

import "time"

// Card represents a single ranked card artwork.
//
// Identity fields are immutable after ingestion; rating, comparisons and
// enabled are the only mutable state, and rating/comparisons change only
// through vote application, always for both members of a compared pair.
type Card struct {
	ScryfallID string // unique external id
	Name       string
	Artist     string // group dimension
	Set        string // group dimension (set code)
	SetName    string
	ImageURL   string

	Rating      int
	Comparisons int
	Enabled     bool
}

// CardSeed carries the identity fields supplied by catalog ingestion.
// Rating, comparisons and enabled are assigned by the store on first insert
// and never overwritten for already-known cards.
type CardSeed struct {
	ScryfallID string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Set        string `json:"set"`
	SetName    string `json:"set_name"`
	ImageURL   string `json:"image_url"`
}

// Vote is the append-only audit record of a single comparison outcome.
type Vote struct {
	WinnerID  string
	LoserID   string
	Delta     int
	CreatedAt time.Time

	// Extension holds optional well-typed audit metadata (e.g. session hints).
	Extension map[string]string
}
