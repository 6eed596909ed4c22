package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andli/cardartvoter/internal/domain/model"
	"github.com/andli/cardartvoter/pkg/logger"
	"github.com/andli/cardartvoter/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultWorkerCount  = 4
	shutdownGracePeriod = 30 * time.Second
)

// Upserter is the slice of the card store the ingest workers need.
type Upserter interface {
	UpsertCard(ctx context.Context, seed model.CardSeed, initialRating int) (bool, error)
}

// Pool drains the ingest queue with a fixed set of workers.
type Pool struct {
	queue         Queue
	store         Upserter
	workerCount   int
	initialRating int

	wg   sync.WaitGroup
	log  logger.Logger
	once sync.Once
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithWorkerCount sets the number of ingest workers.
func WithWorkerCount(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workerCount = n
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(log logger.Logger) PoolOption {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPool creates an ingest worker pool. New cards are created with
// initialRating.
func NewPool(queue Queue, store Upserter, initialRating int, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:         queue,
		store:         store,
		workerCount:   defaultWorkerCount,
		initialRating: initialRating,
		log:           logger.Named("ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. They run until the queue closes and drains
// or ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	records := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case seed, ok := <-records:
			if !ok {
				return
			}
			if err := p.ingest(ctx, seed); err != nil {
				p.log.Error(ctx, "card ingest failed",
					logger.Int("worker", id),
					logger.String("scryfallID", seed.ScryfallID),
					logger.Error(err),
				)
			}
		}
	}
}

func (p *Pool) ingest(ctx context.Context, seed model.CardSeed) error {
	created, err := p.store.UpsertCard(ctx, seed, p.initialRating)
	if err != nil {
		metrics.RecordRepositoryError()
		return fmt.Errorf("upsert %s: %w", seed.ScryfallID, err)
	}
	if created {
		metrics.RecordCardIngested()
	}
	return nil
}

// Stop closes the queue and waits for the workers to drain it.
func (p *Pool) Stop(ctx context.Context) error {
	var err error
	p.once.Do(func() {
		if closeErr := p.queue.Close(); closeErr != nil {
			err = fmt.Errorf("close ingest queue: %w", closeErr)
			return
		}
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(shutdownGracePeriod):
			err = fmt.Errorf("ingest pool shutdown timed out")
		case <-ctx.Done():
			err = fmt.Errorf("ingest pool shutdown: %w", ctx.Err())
		}
	})
	return err
}
