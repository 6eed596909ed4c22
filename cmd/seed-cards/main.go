// Command seed-cards loads card records into the store, either from a
// local bulk JSON file or straight from the Scryfall API one set at a
// time.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/andli/cardartvoter/internal/adapters/catalog"
	"github.com/andli/cardartvoter/internal/adapters/repository"
	"github.com/andli/cardartvoter/internal/config"
	"github.com/andli/cardartvoter/internal/domain/model"
	"github.com/andli/cardartvoter/pkg/logger"
)

const seedTimeout = 30 * time.Minute

func main() {
	var (
		filePath = flag.String("file", "", "Bulk JSON file of card records to load")
		setCode  = flag.String("set", "", "Scryfall set code to fetch and load")
		dbPath   = flag.String("db", "cardartvoter.db", "SQLite database file")
		delay    = flag.Duration("delay", 100*time.Millisecond, "Pacing between Scryfall requests")
		workers  = flag.Int("workers", 4, "Number of ingest workers")
	)
	flag.Parse()

	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("seed-cards")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	if (*filePath == "") == (*setCode == "") {
		os.Stderr.WriteString("exactly one of -file or -set is required\n")
		flag.Usage()
		os.Exit(2)
	}

	seeds, err := loadSeeds(ctx, *filePath, *setCode, *delay)
	if err != nil {
		log.Error(ctx, "failed to load card records", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "loaded card records", logger.Int("count", len(seeds)))

	store, err := repository.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.String("db", *dbPath), logger.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	initialRating := config.New().Elo.InitialRating

	queue := catalog.NewInMemoryQueue(catalog.WithCapacity(len(seeds) + 1))
	pool := catalog.NewPool(queue, store, initialRating,
		catalog.WithWorkerCount(*workers),
		catalog.WithLogger(log),
	)
	pool.Start(ctx)

	dropped := 0
	for _, seed := range seeds {
		if !queue.Enqueue(ctx, seed) {
			dropped++
		}
	}
	if err := pool.Stop(ctx); err != nil {
		log.Error(ctx, "ingest did not finish cleanly", logger.Error(err))
		os.Exit(1)
	}
	if dropped > 0 {
		log.Warn(ctx, "some records were not enqueued", logger.Int("dropped", dropped))
	}
	log.Info(ctx, "seeding complete", logger.Int("records", len(seeds)-dropped))
}

// loadSeeds returns records from the bulk file or from the Scryfall API,
// whichever was requested.
func loadSeeds(ctx context.Context, filePath, setCode string, delay time.Duration) ([]model.CardSeed, error) {
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		var seeds []model.CardSeed
		if err := json.NewDecoder(f).Decode(&seeds); err != nil {
			return nil, err
		}
		return seeds, nil
	}

	client := catalog.NewClient(catalog.WithRequestDelay(delay))
	return client.FetchSet(ctx, setCode)
}
