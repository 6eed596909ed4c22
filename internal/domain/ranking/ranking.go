// Package ranking aggregates per-card ratings into artist and set rankings.
//
// Naive per-group means are unreliable for small groups, so group ratings
// are shrunk toward the global mean in proportion to how few member cards
// the group has (a Bayesian average). Everything here is pure, recomputed
// on demand from the card population, never cached inside the package.
package ranking

import (
	"math"
	"sort"

	"github.com/andli/cardartvoter/internal/domain/model"
)

// Default aggregation constants.
const (
	defaultArtistPrior   = 25  // virtual sample size for artist shrinkage
	defaultSetPrior      = 60  // sets are naturally larger groups
	defaultMinGroupSize  = 6   // groups below this are excluded outright
	defaultInitialRating = 1500
)

// Dimension selects the card attribute used to bucket groups.
type Dimension string

// Supported group dimensions.
const (
	DimensionArtist Dimension = "artist"
	DimensionSet    Dimension = "set"
)

// Order selects ranking direction.
type Order string

// Supported ranking orders.
const (
	OrderTop    Order = "top"
	OrderBottom Order = "bottom"
)

// Group is one ranked group with its shrinkage-adjusted rating.
type Group struct {
	Key          string
	Name         string // display name (set name when known, else the key)
	ShrunkRating float64
	MeanRating   float64
	MemberCount  int

	// Notable is the group's highest-rated member for top rankings and
	// lowest-rated for bottom rankings; display only.
	Notable *model.Card
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithPrior sets the virtual sample size C for one dimension.
func WithPrior(dim Dimension, c float64) Option {
	return func(r *Ranker) {
		if c > 0 {
			r.priors[dim] = c
		}
	}
}

// WithMinGroupSize sets the member-count floor for ranked output.
func WithMinGroupSize(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.minGroupSize = n
		}
	}
}

// WithInitialRating sets the global-mean fallback for empty populations.
func WithInitialRating(rating int) Option {
	return func(r *Ranker) {
		if rating > 0 {
			r.initialRating = float64(rating)
		}
	}
}

// Ranker computes shrinkage-adjusted group rankings.
type Ranker struct {
	priors        map[Dimension]float64
	minGroupSize  int
	initialRating float64
}

// New constructs a Ranker with default configuration.
func New(opts ...Option) *Ranker {
	r := &Ranker{
		priors: map[Dimension]float64{
			DimensionArtist: defaultArtistPrior,
			DimensionSet:    defaultSetPrior,
		},
		minGroupSize:  defaultMinGroupSize,
		initialRating: defaultInitialRating,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RankGroups groups the enabled cards by dim and returns groups ordered by
// shrunk rating. Disabled cards are excluded entirely; cards with an empty
// dimension value contribute to the global mean only. limit <= 0 returns
// all qualifying groups.
func (r *Ranker) RankGroups(cards []model.Card, dim Dimension, limit int, order Order) ([]Group, error) {
	globalMean := r.globalMean(cards)
	prior := r.priors[dim]
	if prior <= 0 {
		prior = defaultArtistPrior
	}

	groups := make(map[string][]model.Card)
	for _, c := range cards {
		if !c.Enabled {
			continue
		}
		key := groupKey(c, dim)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], c)
	}

	out := make([]Group, 0, len(groups))
	for key, members := range groups {
		n := len(members)
		if n < r.minGroupSize {
			continue
		}
		sum := 0
		for _, m := range members {
			sum += m.Rating
		}
		mean := float64(sum) / float64(n)
		shrunk := (prior*globalMean + float64(n)*mean) / (prior + float64(n))
		if math.IsNaN(shrunk) || math.IsInf(shrunk, 0) {
			return nil, invariantErrorf("non-finite shrunk rating for group %q", key)
		}
		out = append(out, Group{
			Key:          key,
			Name:         groupName(members[0], dim),
			ShrunkRating: shrunk,
			MeanRating:   mean,
			MemberCount:  n,
			Notable:      notable(members, order),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ShrunkRating != out[j].ShrunkRating {
			if order == OrderBottom {
				return out[i].ShrunkRating < out[j].ShrunkRating
			}
			return out[i].ShrunkRating > out[j].ShrunkRating
		}
		if out[i].MemberCount != out[j].MemberCount {
			return out[i].MemberCount > out[j].MemberCount
		}
		return out[i].Key < out[j].Key
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TopCards returns the highest-rated enabled cards with at least
// minComparisons votes, ordered rating desc with deterministic tie-breaks.
func (r *Ranker) TopCards(cards []model.Card, limit, minComparisons int) []model.Card {
	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if c.Enabled && c.Comparisons >= minComparisons {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		if out[i].Comparisons != out[j].Comparisons {
			return out[i].Comparisons > out[j].Comparisons
		}
		return out[i].ScryfallID < out[j].ScryfallID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// globalMean is the mean rating over all enabled cards, defaulting to the
// initial rating for an empty population so the shrinkage formula never
// operates on NaN.
func (r *Ranker) globalMean(cards []model.Card) float64 {
	sum, n := 0, 0
	for _, c := range cards {
		if c.Enabled {
			sum += c.Rating
			n++
		}
	}
	if n == 0 {
		return r.initialRating
	}
	return float64(sum) / float64(n)
}

func groupKey(c model.Card, dim Dimension) string {
	switch dim {
	case DimensionSet:
		return c.Set
	default:
		return c.Artist
	}
}

func groupName(c model.Card, dim Dimension) string {
	if dim == DimensionSet && c.SetName != "" {
		return c.SetName
	}
	return groupKey(c, dim)
}

// notable picks the display member: best for top rankings, worst for bottom.
func notable(members []model.Card, order Order) *model.Card {
	pick := members[0]
	for _, m := range members[1:] {
		better := m.Rating > pick.Rating || (m.Rating == pick.Rating && m.ScryfallID < pick.ScryfallID)
		if order == OrderBottom {
			better = m.Rating < pick.Rating || (m.Rating == pick.Rating && m.ScryfallID < pick.ScryfallID)
		}
		if better {
			pick = m
		}
	}
	return &pick
}
