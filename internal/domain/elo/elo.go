// Package elo implements the rating update engine for pairwise votes.
//
// The engine is pure: given the two standings of a compared pair and the
// outcome, it returns the new standings. No I/O, no hidden randomness.
package elo

import (
	"math"
)

// Default rating configuration constants.
const (
	defaultScale     = 400
	defaultMinRating = 1000
	defaultMaxRating = 2000
)

// Tier maps a comparison-count range to a K-factor. A standing pair whose
// average comparison count is below Threshold uses K.
type Tier struct {
	Threshold int
	K         int
}

// defaultTiers gives fast-moving ratings to new cards and stable ratings to
// long-established ones. The terminal tier has no threshold.
func defaultTiers() []Tier {
	return []Tier{
		{Threshold: 10, K: 48},
		{Threshold: 30, K: 32},
		{Threshold: 100, K: 24},
	}
}

const defaultTerminalK = 16

// Standing is the mutable ranking state of one card.
type Standing struct {
	Rating      int
	Comparisons int
}

// Result holds both updated standings and the applied delta.
type Result struct {
	Winner Standing
	Loser  Standing
	Delta  int
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBounds sets the saturating rating bounds.
func WithBounds(minRating, maxRating int) Option {
	return func(e *Engine) {
		if maxRating > minRating {
			e.minRating = minRating
			e.maxRating = maxRating
		}
	}
}

// WithScale sets the Elo sensitivity scale.
func WithScale(scale float64) Option {
	return func(e *Engine) {
		if scale > 0 {
			e.scale = scale
		}
	}
}

// WithTiers replaces the K-factor tiering. Tiers must be ordered by
// ascending threshold with descending K; terminalK applies beyond the last
// threshold.
func WithTiers(tiers []Tier, terminalK int) Option {
	return func(e *Engine) {
		if len(tiers) > 0 && terminalK > 0 {
			e.tiers = tiers
			e.terminalK = terminalK
		}
	}
}

// Engine computes rating updates from single win/lose outcomes.
type Engine struct {
	scale     float64
	minRating int
	maxRating int
	tiers     []Tier
	terminalK int
}

// New constructs an Engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		scale:     defaultScale,
		minRating: defaultMinRating,
		maxRating: defaultMaxRating,
		tiers:     defaultTiers(),
		terminalK: defaultTerminalK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// KFactor selects the K-factor for the average comparison count of a pair.
// It is monotonically non-increasing in avgComparisons.
func (e *Engine) KFactor(avgComparisons float64) int {
	for _, t := range e.tiers {
		if avgComparisons < float64(t.Threshold) {
			return t.K
		}
	}
	return e.terminalK
}

// Bounds returns the configured saturating rating bounds.
func (e *Engine) Bounds() (minRating, maxRating int) {
	return e.minRating, e.maxRating
}

// Apply computes new standings after the winner beat the loser.
//
// Both comparison counts increment by one regardless of clamping; a card
// already pinned at a bound gains or loses no further rating but still gains
// the comparison. Identical inputs always produce identical output.
func (e *Engine) Apply(winner, loser Standing) (Result, error) {
	diff := float64(winner.Rating - loser.Rating)
	expected := 1 / (1 + math.Pow(10, -diff/e.scale))

	avg := float64(winner.Comparisons+loser.Comparisons) / 2
	k := e.KFactor(avg)

	delta := int(math.Round(float64(k) * (1 - expected)))
	if delta < 0 {
		return Result{}, computationErrorf("negative delta %d (k=%d expected=%f)", delta, k, expected)
	}

	res := Result{
		Winner: Standing{
			Rating:      e.clamp(winner.Rating + delta),
			Comparisons: winner.Comparisons + 1,
		},
		Loser: Standing{
			Rating:      e.clamp(loser.Rating - delta),
			Comparisons: loser.Comparisons + 1,
		},
		Delta: delta,
	}

	if res.Winner.Rating < e.minRating || res.Winner.Rating > e.maxRating ||
		res.Loser.Rating < e.minRating || res.Loser.Rating > e.maxRating {
		return Result{}, computationErrorf("rating outside [%d, %d] after clamp", e.minRating, e.maxRating)
	}
	return res, nil
}

func (e *Engine) clamp(rating int) int {
	if rating < e.minRating {
		return e.minRating
	}
	if rating > e.maxRating {
		return e.maxRating
	}
	return rating
}
