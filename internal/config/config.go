// Package config defines service configuration structures and loading hooks.
package config

// Storage backend names.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Storage selects the card store backend: memory or sqlite.
	Storage string `koanf:"storage"`

	// DBPath is the SQLite database file (sqlite backend only).
	DBPath string `koanf:"db_path"`

	Elo     EloConfig     `koanf:"elo"`
	Pairing PairingConfig `koanf:"pairing"`
	Ranking RankingConfig `koanf:"ranking"`
	Session SessionConfig `koanf:"session"`
	Ingest  IngestConfig  `koanf:"ingest"`
}

// EloConfig tunes the rating update engine.
type EloConfig struct {
	InitialRating int     `koanf:"initial_rating"`
	MinRating     int     `koanf:"min_rating"`
	MaxRating     int     `koanf:"max_rating"`
	Scale         float64 `koanf:"scale"`

	// K-factor tiers on the pair's average comparison count.
	KNew              int `koanf:"k_new"`              // below NewBelow comparisons
	KEstablishing     int `koanf:"k_establishing"`     // below EstablishingBelow
	KEstablished      int `koanf:"k_established"`      // below EstablishedBelow
	KWellEstablished  int `koanf:"k_well_established"` // everything beyond
	NewBelow          int `koanf:"new_below"`
	EstablishingBelow int `koanf:"establishing_below"`
	EstablishedBelow  int `koanf:"established_below"`
}

// PairingConfig tunes the mixed pair selection strategy.
type PairingConfig struct {
	RandomBand            float64 `koanf:"random_band"`
	ExtremeBand           float64 `koanf:"extreme_band"`
	RatingTolerance       int     `koanf:"rating_tolerance"`
	ExtremePoolSize       int     `koanf:"extreme_pool_size"`
	ExtremeMinComparisons int     `koanf:"extreme_min_comparisons"`
}

// RankingConfig tunes the aggregate ranking engine.
type RankingConfig struct {
	// ArtistPrior and SetPrior are the virtual sample sizes C used for
	// shrinkage toward the global mean, per dimension.
	ArtistPrior  float64 `koanf:"artist_prior"`
	SetPrior     float64 `koanf:"set_prior"`
	MinGroupSize int     `koanf:"min_group_size"`

	// MaxLimit caps the limit parameter of ranking queries.
	MaxLimit int `koanf:"max_limit"`
}

// SessionConfig tunes the pair integrity guard.
type SessionConfig struct {
	// TTLMinutes bounds the lifetime of an outstanding pair token.
	TTLMinutes int `koanf:"ttl_minutes"`

	// LenientMatch accepts votes whose token mismatches as long as the
	// selected card belongs to the issued pair. Strict by default.
	LenientMatch bool `koanf:"lenient_match"`

	// PruneIntervalMinutes drives the background expiry sweep.
	PruneIntervalMinutes int `koanf:"prune_interval_minutes"`
}

// IngestConfig tunes the catalog ingestion pipeline.
type IngestConfig struct {
	QueueSize      int `koanf:"queue_size"`
	Workers        int `koanf:"workers"`
	RequestDelayMS int `koanf:"request_delay_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":8080",
		Storage:  StorageMemory,
		DBPath:   "cardartvoter.db",
		Elo: EloConfig{
			InitialRating:     1500,
			MinRating:         1000,
			MaxRating:         2000,
			Scale:             400,
			KNew:              48,
			KEstablishing:     32,
			KEstablished:      24,
			KWellEstablished:  16,
			NewBelow:          10,
			EstablishingBelow: 30,
			EstablishedBelow:  100,
		},
		Pairing: PairingConfig{
			RandomBand:            0.10,
			ExtremeBand:           0.15,
			RatingTolerance:       200,
			ExtremePoolSize:       20,
			ExtremeMinComparisons: 5,
		},
		Ranking: RankingConfig{
			ArtistPrior:  25,
			SetPrior:     60,
			MinGroupSize: 6,
			MaxLimit:     100,
		},
		Session: SessionConfig{
			TTLMinutes:           15,
			LenientMatch:         false,
			PruneIntervalMinutes: 5,
		},
		Ingest: IngestConfig{
			QueueSize:      10_000,
			Workers:        4,
			RequestDelayMS: 100,
		},
	}
}
