package pairing

import "math/rand"

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithRand injects the random source. Tests use a seeded source for
// deterministic band selection.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithBands sets the probability mass of the random and extreme bands.
// The remainder goes to the under-compared band.
func WithBands(random, extreme float64) Option {
	return func(s *Selector) {
		if random >= 0 && extreme >= 0 && random+extreme <= 1 {
			s.randomBand = random
			s.extremeBand = extreme
		}
	}
}

// WithRatingTolerance sets the adjacency window for the under-compared band.
func WithRatingTolerance(tolerance int) Option {
	return func(s *Selector) {
		if tolerance > 0 {
			s.tolerance = tolerance
		}
	}
}

// WithBuckets replaces the comparison-count bucket upper bounds.
func WithBuckets(uppers []int) Option {
	return func(s *Selector) {
		if len(uppers) > 0 {
			s.buckets = uppers
		}
	}
}

// WithExtremePoolSize sets how many cards count as the top/bottom tail.
func WithExtremePoolSize(size int) Option {
	return func(s *Selector) {
		if size > 0 {
			s.extremePool = size
		}
	}
}

// WithExtremeMinComparisons sets the minimum comparison count for a card to
// participate in extreme pairing.
func WithExtremeMinComparisons(minComps int) Option {
	return func(s *Selector) {
		if minComps >= 0 {
			s.extremeMin = minComps
		}
	}
}
