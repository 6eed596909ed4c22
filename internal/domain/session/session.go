// Package session guards the binding between issued pairs and votes.
//
// Each user session is a two-state machine: Idle (no live pair) or
// PairIssued (one outstanding token). A vote is honored only when it
// redeems the outstanding token, and every token is single-use: consumed
// by a valid vote or invalidated by expiry, never honored again.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultTTL bounds the lifetime of an outstanding pair token.
const defaultTTL = 15 * time.Minute

// Pair is the outstanding state of a PairIssued session.
type Pair struct {
	CardA    string
	CardB    string
	Token    string
	IssuedAt time.Time
}

// contains reports whether id is one of the pair's members.
func (p Pair) contains(id string) bool {
	return id == p.CardA || id == p.CardB
}

// Other returns the pair member that is not id.
func (p Pair) Other(id string) string {
	if id == p.CardA {
		return p.CardB
	}
	return p.CardA
}

// Option applies a configuration option to the Guard.
type Option func(*Guard)

// WithTTL sets the pair token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithLenientMatch accepts a vote whose token mismatches the outstanding
// one as long as the selected card belongs to the issued pair. Off by
// default: strict rejection is the safer reading of a stale client.
func WithLenientMatch(lenient bool) Option {
	return func(g *Guard) {
		g.lenient = lenient
	}
}

// WithClock injects the time source. Tests use a fake clock to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// Guard tracks at most one outstanding pair per session.
type Guard struct {
	mu      sync.Mutex
	pairs   map[string]Pair // session id -> outstanding pair
	ttl     time.Duration
	lenient bool
	now     func() time.Time
}

// NewGuard constructs a Guard with default configuration.
func NewGuard(opts ...Option) *Guard {
	g := &Guard{
		pairs: make(map[string]Pair),
		ttl:   defaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Issue transitions the session to PairIssued with a fresh unguessable
// token, replacing any previously outstanding pair.
func (g *Guard) Issue(sessionID, cardA, cardB string) Pair {
	p := Pair{
		CardA:    cardA,
		CardB:    cardB,
		Token:    uuid.NewString(),
		IssuedAt: g.now(),
	}
	g.mu.Lock()
	g.pairs[sessionID] = p
	g.mu.Unlock()
	return p
}

// Redeem consumes the session's outstanding pair for a vote on selectedID.
// On success the session returns to Idle and the issued pair is returned so
// the caller can resolve the losing card. All rejections leave the pair
// state and every rating untouched, except expiry, which clears the pair.
func (g *Guard) Redeem(sessionID, token, selectedID string) (Pair, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.pairs[sessionID]
	if !ok {
		return Pair{}, ErrNoPairIssued
	}
	if g.now().Sub(p.IssuedAt) > g.ttl {
		delete(g.pairs, sessionID)
		return Pair{}, errExpired
	}
	if !p.contains(selectedID) {
		return Pair{}, errWrongPair
	}
	if token != p.Token && !g.lenient {
		return Pair{}, errTokenMismatch
	}

	delete(g.pairs, sessionID)
	return p, nil
}

// PruneExpired drops expired pairs and returns how many were removed.
// Expiry is also enforced on Redeem; pruning just reclaims memory for
// sessions that never voted.
func (g *Guard) PruneExpired() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-g.ttl)
	removed := 0
	for id, p := range g.pairs {
		if p.IssuedAt.Before(cutoff) {
			delete(g.pairs, id)
			removed++
		}
	}
	return removed
}

// Outstanding returns the number of live pair tokens.
func (g *Guard) Outstanding() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pairs)
}
