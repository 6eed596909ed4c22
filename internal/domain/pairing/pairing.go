// Package pairing picks which two cards to present for the next vote.
//
// Selection runs over an in-memory snapshot of the enabled population and
// mixes three strategies: pure random exposure, extreme pairing that probes
// the tails of the rating distribution, and a majority band biased toward
// under-compared cards.
package pairing

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Default pairing policy constants, mirroring the production tuning.
const (
	defaultRandomBand      = 0.10
	defaultExtremeBand     = 0.15
	defaultRatingTolerance = 200
	defaultExtremePoolSize = 20
	defaultExtremeMinComps = 5
)

// defaultBuckets are the upper bounds of the comparison-count buckets used
// by the under-compared band: [0,6) [6,21) [21,51) [51,101) [101,∞).
func defaultBuckets() []int {
	return []int{6, 21, 51, 101}
}

// Candidate is one enabled card as seen by the selector.
type Candidate struct {
	ScryfallID  string
	Rating      int
	Comparisons int
}

// Selector implements the mixed pairing strategy.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand

	randomBand  float64
	extremeBand float64
	tolerance   int
	buckets     []int
	extremePool int
	extremeMin  int
}

// New constructs a Selector with default policy.
func New(opts ...Option) *Selector {
	s := &Selector{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // selection bias, not security
		randomBand:  defaultRandomBand,
		extremeBand: defaultExtremeBand,
		tolerance:   defaultRatingTolerance,
		buckets:     defaultBuckets(),
		extremePool: defaultExtremePoolSize,
		extremeMin:  defaultExtremeMinComps,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select picks two distinct cards from the enabled population.
// Returns ErrNotEnoughCards when fewer than two candidates exist.
func (s *Selector) Select(population []Candidate) (Candidate, Candidate, error) {
	if len(population) < 2 {
		return Candidate{}, Candidate{}, ErrNotEnoughCards
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draw := s.rng.Float64()
	switch {
	case draw < s.randomBand:
		a, b := s.randomPair(population)
		return a, b, nil
	case draw < s.randomBand+s.extremeBand:
		a, b := s.extremePair(population)
		return a, b, nil
	default:
		a, b := s.underComparedPair(population)
		return a, b, nil
	}
}

// SelectTargeted features one specific card; the partner is chosen at
// random from the rest of the population. An unknown target falls back to
// the untargeted strategy.
func (s *Selector) SelectTargeted(population []Candidate, targetID string) (Candidate, Candidate, error) {
	if len(population) < 2 {
		return Candidate{}, Candidate{}, ErrNotEnoughCards
	}

	var target *Candidate
	for i := range population {
		if population[i].ScryfallID == targetID {
			target = &population[i]
			break
		}
	}
	if target == nil {
		return s.Select(population)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	partner := s.pickOther(population, target.ScryfallID)
	return *target, partner, nil
}

// randomPair selects two distinct candidates uniformly.
func (s *Selector) randomPair(population []Candidate) (Candidate, Candidate) {
	i := s.rng.Intn(len(population))
	j := s.rng.Intn(len(population) - 1)
	if j >= i {
		j++
	}
	return population[i], population[j]
}

// extremePair stresses rating separation at the tails: two from the top,
// two from the bottom, or one of each, restricted to candidates with enough
// comparisons that novelty does not masquerade as an extreme.
func (s *Selector) extremePair(population []Candidate) (Candidate, Candidate) {
	eligible := make([]Candidate, 0, len(population))
	for _, c := range population {
		if c.Comparisons >= s.extremeMin {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) < 2 {
		return s.randomPair(population)
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Rating != eligible[j].Rating {
			return eligible[i].Rating > eligible[j].Rating
		}
		return eligible[i].ScryfallID < eligible[j].ScryfallID
	})

	pool := s.extremePool
	if pool > len(eligible)/2 {
		pool = len(eligible) / 2
	}
	if pool < 1 {
		pool = 1
	}
	top := eligible[:pool]
	bottom := eligible[len(eligible)-pool:]

	switch s.rng.Intn(3) {
	case 0: // top vs top
		if len(top) >= 2 {
			a, b := s.randomPair(top)
			return a, b
		}
	case 1: // bottom vs bottom
		if len(bottom) >= 2 {
			a, b := s.randomPair(bottom)
			return a, b
		}
	default: // top vs bottom
		a := top[s.rng.Intn(len(top))]
		b := bottom[s.rng.Intn(len(bottom))]
		if a.ScryfallID != b.ScryfallID {
			return a, b
		}
	}
	return s.randomPair(eligible)
}

// underComparedPair picks the first card from the lowest non-empty
// comparison-count bucket, then a partner within the rating tolerance
// window, falling back to any other enabled card.
func (s *Selector) underComparedPair(population []Candidate) (Candidate, Candidate) {
	bucket := s.lowestBucket(population)
	first := bucket[s.rng.Intn(len(bucket))]

	close := make([]Candidate, 0, len(population))
	for _, c := range population {
		if c.ScryfallID == first.ScryfallID {
			continue
		}
		if abs(c.Rating-first.Rating) <= s.tolerance {
			close = append(close, c)
		}
	}
	if len(close) > 0 {
		return first, close[s.rng.Intn(len(close))]
	}
	return first, s.pickOther(population, first.ScryfallID)
}

// lowestBucket groups candidates by comparison-count ranges and returns the
// lowest non-empty group. Bucketing rather than a strict global minimum
// avoids always picking the single least-seen card.
func (s *Selector) lowestBucket(population []Candidate) []Candidate {
	lower := 0
	for _, upper := range s.buckets {
		var group []Candidate
		for _, c := range population {
			if c.Comparisons >= lower && c.Comparisons < upper {
				group = append(group, c)
			}
		}
		if len(group) > 0 {
			return group
		}
		lower = upper
	}
	var rest []Candidate
	for _, c := range population {
		if c.Comparisons >= lower {
			rest = append(rest, c)
		}
	}
	if len(rest) > 0 {
		return rest
	}
	return population
}

// pickOther selects a uniform candidate excluding the given id.
func (s *Selector) pickOther(population []Candidate, excludeID string) Candidate {
	others := make([]Candidate, 0, len(population)-1)
	for _, c := range population {
		if c.ScryfallID != excludeID {
			others = append(others, c)
		}
	}
	return others[s.rng.Intn(len(others))]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
