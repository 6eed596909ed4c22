// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andli/cardartvoter/internal/adapters/repository"
	"github.com/andli/cardartvoter/internal/domain/elo"
	"github.com/andli/cardartvoter/internal/domain/model"
	"github.com/andli/cardartvoter/internal/domain/pairing"
	"github.com/andli/cardartvoter/internal/domain/ranking"
	"github.com/andli/cardartvoter/internal/domain/session"
	"github.com/andli/cardartvoter/pkg/logger"
	"github.com/andli/cardartvoter/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultInitialRating = 1500
	defaultMaxLimit      = 100
	defaultPruneInterval = 5 * time.Minute
)

// PairView is one issued pair as shown to a voter.
type PairView struct {
	CardA model.Card
	CardB model.Card
	Token string
}

// VoteResult reports the applied outcome of an accepted vote.
type VoteResult struct {
	Winner model.Card
	Loser  model.Card
	Delta  int
}

// ServiceStats is a read-only snapshot for monitoring.
type ServiceStats struct {
	TotalCards       int
	EnabledCards     int
	VoteCount        int
	OutstandingPairs int
}

// Service implements the voting core: pair issuing, vote application and
// ranking queries over the card store.
type Service struct {
	mu sync.Mutex

	store    repository.Store
	engine   *elo.Engine
	selector *pairing.Selector
	ranker   *ranking.Ranker
	guard    *session.Guard

	initialRating int
	maxLimit      int
	pruneInterval time.Duration

	started bool
	stopCh  chan struct{}

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the card store backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngine sets the rating update engine.
func WithEngine(engine *elo.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithSelector sets the pair selection strategy.
func WithSelector(selector *pairing.Selector) Option {
	return func(s *Service) {
		if selector != nil {
			s.selector = selector
		}
	}
}

// WithRanker sets the aggregate ranking engine.
func WithRanker(ranker *ranking.Ranker) Option {
	return func(s *Service) {
		if ranker != nil {
			s.ranker = ranker
		}
	}
}

// WithGuard sets the pair integrity guard.
func WithGuard(guard *session.Guard) Option {
	return func(s *Service) {
		if guard != nil {
			s.guard = guard
		}
	}
}

// WithInitialRating sets the rating assigned to newly ingested cards.
func WithInitialRating(rating int) Option {
	return func(s *Service) {
		if rating > 0 {
			s.initialRating = rating
		}
	}
}

// WithMaxLimit caps the limit parameter of ranking queries.
func WithMaxLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// WithPruneInterval sets the cadence of the expired-token sweep.
func WithPruneInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pruneInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		initialRating: defaultInitialRating,
		maxLimit:      defaultMaxLimit,
		pruneInterval: defaultPruneInterval,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start fills in missing components with defaults and launches background
// maintenance (token expiry sweep, catalog gauges).
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	if s.engine == nil {
		s.engine = elo.New()
	}
	if s.selector == nil {
		s.selector = pairing.New()
	}
	if s.ranker == nil {
		s.ranker = ranking.New()
	}
	if s.guard == nil {
		s.guard = session.NewGuard()
	}

	go s.maintenanceLoop(ctx)

	s.started = true
	s.log.Info(ctx, "voting service started",
		logger.Int("initialRating", s.initialRating),
		logger.Duration("pruneInterval", s.pruneInterval),
	)
	return nil
}

// Stop shuts down background maintenance and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	if err := s.store.Close(); err != nil {
		s.log.Error(context.Background(), "store close failed", logger.Error(err))
	}
	s.started = false
	s.log.Info(context.Background(), "voting service stopped")
}

// maintenanceLoop prunes expired pair tokens and refreshes catalog gauges.
func (s *Service) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if n := s.guard.PruneExpired(); n > 0 {
				metrics.RecordTokensExpired(n)
			}
			if total, enabled, err := s.store.Counts(ctx); err == nil {
				metrics.UpdateCardCounts(total, enabled)
			}
		}
	}
}

// RequestPair selects two cards and issues a single-use pair token for the
// session. A non-empty targetID features that card when it is enabled,
// falling back to the normal strategy otherwise.
func (s *Service) RequestPair(ctx context.Context, sessionID, targetID string) (PairView, error) {
	cards, err := s.store.EnabledCards(ctx)
	if err != nil {
		return PairView{}, fmt.Errorf("load population: %w", err)
	}

	byID := make(map[string]model.Card, len(cards))
	population := make([]pairing.Candidate, len(cards))
	for i, c := range cards {
		byID[c.ScryfallID] = c
		population[i] = pairing.Candidate{
			ScryfallID:  c.ScryfallID,
			Rating:      c.Rating,
			Comparisons: c.Comparisons,
		}
	}

	var a, b pairing.Candidate
	if targetID != "" {
		a, b, err = s.selector.SelectTargeted(population, targetID)
	} else {
		a, b, err = s.selector.Select(population)
	}
	if err != nil {
		return PairView{}, err
	}

	p := s.guard.Issue(sessionID, a.ScryfallID, b.ScryfallID)
	metrics.RecordPairIssued()

	return PairView{
		CardA: byID[a.ScryfallID],
		CardB: byID[b.ScryfallID],
		Token: p.Token,
	}, nil
}

// SubmitVote validates the token against the session's issued pair and
// applies the outcome. Every rejection leaves both cards untouched.
func (s *Service) SubmitVote(ctx context.Context, sessionID, token, selectedID string) (VoteResult, error) {
	p, err := s.guard.Redeem(sessionID, token, selectedID)
	if err != nil {
		metrics.RecordVoteRejected("invalid_token")
		return VoteResult{}, err
	}

	loserID := p.Other(selectedID)
	winner, err := s.votableCard(ctx, selectedID)
	if err != nil {
		metrics.RecordVoteRejected("unknown_card")
		return VoteResult{}, err
	}
	loser, err := s.votableCard(ctx, loserID)
	if err != nil {
		metrics.RecordVoteRejected("unknown_card")
		return VoteResult{}, err
	}

	res, err := s.engine.Apply(
		elo.Standing{Rating: winner.Rating, Comparisons: winner.Comparisons},
		elo.Standing{Rating: loser.Rating, Comparisons: loser.Comparisons},
	)
	if err != nil {
		// Invariant violation: refuse to persist rather than corrupt data.
		metrics.RecordVoteRejected("invariant")
		s.log.Error(ctx, "rating computation rejected",
			logger.String("winner", winner.ScryfallID),
			logger.String("loser", loser.ScryfallID),
			logger.Error(err),
		)
		return VoteResult{}, err
	}

	update := repository.VoteUpdate{
		WinnerID:          winner.ScryfallID,
		WinnerRating:      res.Winner.Rating,
		WinnerComparisons: res.Winner.Comparisons,
		LoserID:           loser.ScryfallID,
		LoserRating:       res.Loser.Rating,
		LoserComparisons:  res.Loser.Comparisons,
		Delta:             res.Delta,
		CreatedAt:         time.Now(),
		Extension:         map[string]string{"session": sessionID},
	}
	if err := s.store.ApplyVote(ctx, update); err != nil {
		metrics.RecordVoteRejected("store_error")
		return VoteResult{}, fmt.Errorf("apply vote: %w", err)
	}

	metrics.RecordVoteAccepted(res.Delta)

	winner.Rating = res.Winner.Rating
	winner.Comparisons = res.Winner.Comparisons
	loser.Rating = res.Loser.Rating
	loser.Comparisons = res.Loser.Comparisons
	return VoteResult{Winner: winner, Loser: loser, Delta: res.Delta}, nil
}

// votableCard resolves an id to an enabled card, translating misses and
// mid-flight disables into ErrUnknownCard.
func (s *Service) votableCard(ctx context.Context, id string) (model.Card, error) {
	c, err := s.store.Card(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Card{}, fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	if err != nil {
		return model.Card{}, fmt.Errorf("load card %s: %w", id, err)
	}
	if !c.Enabled {
		return model.Card{}, fmt.Errorf("%w: %s is disabled", ErrUnknownCard, id)
	}
	return c, nil
}

// TopCards returns the highest-rated enabled cards.
func (s *Service) TopCards(ctx context.Context, limit, minComparisons int) ([]model.Card, error) {
	limit = s.clampLimit(limit)
	cards, err := s.store.EnabledCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load population: %w", err)
	}
	return s.ranker.TopCards(cards, limit, minComparisons), nil
}

// TopGroups returns the best groups of one dimension by shrunk rating.
func (s *Service) TopGroups(ctx context.Context, dim ranking.Dimension, limit int) ([]ranking.Group, error) {
	return s.rankGroups(ctx, dim, limit, ranking.OrderTop)
}

// BottomGroups returns the worst groups of one dimension by shrunk rating.
func (s *Service) BottomGroups(ctx context.Context, dim ranking.Dimension, limit int) ([]ranking.Group, error) {
	return s.rankGroups(ctx, dim, limit, ranking.OrderBottom)
}

func (s *Service) rankGroups(ctx context.Context, dim ranking.Dimension, limit int, order ranking.Order) ([]ranking.Group, error) {
	if dim != ranking.DimensionArtist && dim != ranking.DimensionSet {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	limit = s.clampLimit(limit)
	cards, err := s.store.EnabledCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load population: %w", err)
	}
	return s.ranker.RankGroups(cards, dim, limit, order)
}

// SetCardEnabled toggles an individual card. Disabling takes effect for
// the next pair selection; an already-issued pair is unaffected until its
// vote resolves, at which point the vote is rejected.
func (s *Service) SetCardEnabled(ctx context.Context, scryfallID string, enabled bool) error {
	err := s.store.SetEnabled(ctx, scryfallID, enabled)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownCard, scryfallID)
	}
	return err
}

// UpsertCards ingests catalog records, creating unknown cards with the
// configured initial rating and refreshing identity fields of known ones.
// Returns the number of newly created cards.
func (s *Service) UpsertCards(ctx context.Context, seeds []model.CardSeed) (int, error) {
	created := 0
	for _, seed := range seeds {
		isNew, err := s.store.UpsertCard(ctx, seed, s.initialRating)
		if err != nil {
			return created, fmt.Errorf("upsert %s: %w", seed.ScryfallID, err)
		}
		if isNew {
			created++
			metrics.RecordCardIngested()
		}
	}
	return created, nil
}

// Stats returns counters for monitoring. The vote count is derived from
// comparisons: every vote touches two cards.
func (s *Service) Stats(ctx context.Context) (ServiceStats, error) {
	total, enabled, err := s.store.Counts(ctx)
	if err != nil {
		return ServiceStats{}, fmt.Errorf("count cards: %w", err)
	}
	comparisons, err := s.store.TotalComparisons(ctx)
	if err != nil {
		return ServiceStats{}, fmt.Errorf("count comparisons: %w", err)
	}
	metrics.UpdateCardCounts(total, enabled)
	return ServiceStats{
		TotalCards:       total,
		EnabledCards:     enabled,
		VoteCount:        comparisons / 2,
		OutstandingPairs: s.guard.Outstanding(),
	}, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 || limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}
