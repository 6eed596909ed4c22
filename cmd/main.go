package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andli/cardartvoter/internal/adapters/http/api"
	"github.com/andli/cardartvoter/internal/adapters/repository"
	service "github.com/andli/cardartvoter/internal/app"
	"github.com/andli/cardartvoter/internal/config"
	"github.com/andli/cardartvoter/internal/domain/elo"
	"github.com/andli/cardartvoter/internal/domain/pairing"
	"github.com/andli/cardartvoter/internal/domain/ranking"
	"github.com/andli/cardartvoter/internal/domain/session"
	"github.com/andli/cardartvoter/pkg/logger"
	"github.com/andli/cardartvoter/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Optional .env file for local development.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "failed to close store", logger.Error(err))
		}
	}()

	svc := service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithEngine(newEngine(cfg)),
		service.WithSelector(newSelector(cfg)),
		service.WithRanker(newRanker(cfg)),
		service.WithGuard(newGuard(cfg)),
		service.WithInitialRating(cfg.Elo.InitialRating),
		service.WithMaxLimit(cfg.Ranking.MaxLimit),
		service.WithPruneInterval(time.Duration(cfg.Session.PruneIntervalMinutes)*time.Minute),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, cfg.Ranking.MaxLimit)
	apiServer.Register(ctx, mux)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Storage == config.StorageSQLite {
		return repository.OpenSQLite(ctx, cfg.DBPath)
	}
	return repository.NewMemStore(), nil
}

func newEngine(cfg *config.Config) *elo.Engine {
	tiers := []elo.Tier{
		{Threshold: cfg.Elo.NewBelow, K: cfg.Elo.KNew},
		{Threshold: cfg.Elo.EstablishingBelow, K: cfg.Elo.KEstablishing},
		{Threshold: cfg.Elo.EstablishedBelow, K: cfg.Elo.KEstablished},
	}
	return elo.New(
		elo.WithBounds(cfg.Elo.MinRating, cfg.Elo.MaxRating),
		elo.WithScale(cfg.Elo.Scale),
		elo.WithTiers(tiers, cfg.Elo.KWellEstablished),
	)
}

func newSelector(cfg *config.Config) *pairing.Selector {
	return pairing.New(
		pairing.WithBands(cfg.Pairing.RandomBand, cfg.Pairing.ExtremeBand),
		pairing.WithRatingTolerance(cfg.Pairing.RatingTolerance),
		pairing.WithExtremePoolSize(cfg.Pairing.ExtremePoolSize),
		pairing.WithExtremeMinComparisons(cfg.Pairing.ExtremeMinComparisons),
	)
}

func newRanker(cfg *config.Config) *ranking.Ranker {
	return ranking.New(
		ranking.WithPrior(ranking.DimensionArtist, cfg.Ranking.ArtistPrior),
		ranking.WithPrior(ranking.DimensionSet, cfg.Ranking.SetPrior),
		ranking.WithMinGroupSize(cfg.Ranking.MinGroupSize),
		ranking.WithInitialRating(cfg.Elo.InitialRating),
	)
}

func newGuard(cfg *config.Config) *session.Guard {
	return session.NewGuard(
		session.WithTTL(time.Duration(cfg.Session.TTLMinutes)*time.Minute),
		session.WithLenientMatch(cfg.Session.LenientMatch),
	)
}

// startSystemMetricsUpdater updates memory and goroutine gauges on a timer.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
