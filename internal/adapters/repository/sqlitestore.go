package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/andli/cardartvoter/internal/domain/model"
)

// SQLiteStore persists the card population and vote audit log in SQLite.
// The paired vote write runs in a single transaction, so this backend never
// exposes a half-applied pair even across crashes.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite connects to (or creates) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// UpsertCard inserts a new card or refreshes identity fields of a known
// one, keyed by scryfall id. Rating, comparisons and enabled are only set
// on first insert.
func (s *SQLiteStore) UpsertCard(ctx context.Context, seed model.CardSeed, initialRating int) (bool, error) {
	defer recordOp("upsert_card", time.Now())

	now := time.Now().UTC().Format(time.RFC3339Nano)

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM cards WHERE scryfall_id = ?", seed.ScryfallID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check card: %w", err)
	}

	if exists > 0 {
		_, err = s.db.ExecContext(ctx,
			`UPDATE cards SET name = ?, artist = ?, set_code = ?, set_name = ?, image_url = ?, updated_at = ?
             WHERE scryfall_id = ?`,
			seed.Name, seed.Artist, seed.Set, seed.SetName, seed.ImageURL, now, seed.ScryfallID,
		)
		if err != nil {
			return false, fmt.Errorf("refresh card: %w", err)
		}
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cards (
            scryfall_id, name, artist, set_code, set_name, image_url,
            rating, comparisons, enabled, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, 0, 1, ?, ?)`,
		seed.ScryfallID, seed.Name, seed.Artist, seed.Set, seed.SetName, seed.ImageURL,
		initialRating, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert card: %w", err)
	}
	return true, nil
}

// Card returns one card by scryfall id.
func (s *SQLiteStore) Card(ctx context.Context, scryfallID string) (model.Card, error) {
	defer recordOp("card", time.Now())

	row := s.db.QueryRowContext(ctx,
		`SELECT scryfall_id, name, artist, set_code, set_name, image_url, rating, comparisons, enabled
         FROM cards WHERE scryfall_id = ?`, scryfallID)
	return scanCard(row)
}

// SetEnabled toggles a card's eligibility.
func (s *SQLiteStore) SetEnabled(ctx context.Context, scryfallID string, enabled bool) error {
	defer recordOp("set_enabled", time.Now())

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		"UPDATE cards SET enabled = ?, updated_at = ? WHERE scryfall_id = ?",
		boolToInt(enabled), now, scryfallID,
	)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// EnabledCards returns a snapshot of all enabled cards.
func (s *SQLiteStore) EnabledCards(ctx context.Context) ([]model.Card, error) {
	defer recordOp("enabled_cards", time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT scryfall_id, name, artist, set_code, set_name, image_url, rating, comparisons, enabled
         FROM cards WHERE enabled = 1`)
	if err != nil {
		return nil, fmt.Errorf("query enabled cards: %w", err)
	}
	defer rows.Close()

	var out []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return out, nil
}

// ApplyVote applies both card updates and the audit insert in one
// transaction.
func (s *SQLiteStore) ApplyVote(ctx context.Context, u VoteUpdate) error {
	defer recordOp("apply_vote", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := u.CreatedAt.UTC().Format(time.RFC3339Nano)
	for _, upd := range []struct {
		id          string
		rating      int
		comparisons int
	}{
		{u.WinnerID, u.WinnerRating, u.WinnerComparisons},
		{u.LoserID, u.LoserRating, u.LoserComparisons},
	} {
		res, execErr := tx.ExecContext(ctx,
			"UPDATE cards SET rating = ?, comparisons = ?, updated_at = ? WHERE scryfall_id = ?",
			upd.rating, upd.comparisons, now, upd.id,
		)
		if execErr != nil {
			return fmt.Errorf("update card %s: %w", upd.id, execErr)
		}
		n, raErr := res.RowsAffected()
		if raErr != nil {
			return fmt.Errorf("rows affected: %w", raErr)
		}
		if n == 0 {
			return ErrNotFound
		}
	}

	var extJSON any
	if len(u.Extension) > 0 {
		data, marshalErr := json.Marshal(u.Extension)
		if marshalErr != nil {
			return fmt.Errorf("marshal vote extension: %w", marshalErr)
		}
		extJSON = string(data)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO votes (winner_id, loser_id, delta, created_at, extension_json) VALUES (?, ?, ?, ?, ?)",
		u.WinnerID, u.LoserID, u.Delta, now, extJSON,
	); err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote tx: %w", err)
	}
	return nil
}

// Counts returns the total and enabled card counts.
func (s *SQLiteStore) Counts(ctx context.Context) (int, int, error) {
	var total, enabled int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM cards").Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("count cards: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM cards WHERE enabled = 1").Scan(&enabled); err != nil {
		return 0, 0, fmt.Errorf("count enabled cards: %w", err)
	}
	return total, enabled, nil
}

// TotalComparisons sums every card's comparison count.
func (s *SQLiteStore) TotalComparisons(ctx context.Context) (int, error) {
	var sum int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(comparisons), 0) FROM cards").Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum comparisons: %w", err)
	}
	return sum, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (model.Card, error) {
	var c model.Card
	var enabled int
	err := row.Scan(&c.ScryfallID, &c.Name, &c.Artist, &c.Set, &c.SetName, &c.ImageURL,
		&c.Rating, &c.Comparisons, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Card{}, ErrNotFound
	}
	if err != nil {
		return model.Card{}, fmt.Errorf("scan card: %w", err)
	}
	c.Enabled = enabled != 0
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
