// Package sqlite persists unlock and celebration history for the accolade
// daemon. Uses WAL mode for concurrent reads and crash-safe writes. The
// in-memory engine is authoritative; this store is the durable audit log
// behind the query surface and the tracking-service health probe.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/greenhouse-games/accolade/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/history.db.
// Enables WAL mode, foreign keys, and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "history.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// Name implements domain.Collaborator.
func (d *DB) Name() string { return "tracking" }

// Ready implements domain.Collaborator.
func (d *DB) Ready(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS unlocks (
			id                TEXT PRIMARY KEY,
			player_id         TEXT NOT NULL,
			accomplishment_id TEXT NOT NULL,
			points            INTEGER NOT NULL,
			unlocked_at       INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_unlocks_player_acc
			ON unlocks(player_id, accomplishment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_unlocks_at ON unlocks(unlocked_at)`,

		`CREATE TABLE IF NOT EXISTS celebrations (
			id                TEXT PRIMARY KEY,
			player_id         TEXT NOT NULL,
			accomplishment_id TEXT NOT NULL,
			style             TEXT NOT NULL,
			faulted           BOOLEAN DEFAULT 0,
			started_at        INTEGER,
			completed_at      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_celebrations_at ON celebrations(completed_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Unlock History ─────────────────────────────────────────────────────────

// RecordUnlock persists one unlock event. Replays of the same
// (player, accomplishment) pair are absorbed; the engine already
// guarantees at-most-once unlocks, so a conflict means a daemon restart
// replay, not a logic fault.
func (d *DB) RecordUnlock(ev domain.UnlockEvent) error {
	_, err := d.db.Exec(
		`INSERT INTO unlocks (id, player_id, accomplishment_id, points, unlocked_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(player_id, accomplishment_id) DO NOTHING`,
		ev.ID, ev.PlayerID, ev.AccomplishmentID, ev.PointsAwarded, ev.Timestamp.Unix(),
	)
	return err
}

// ListUnlocks returns a player's unlock history, most recent first.
func (d *DB) ListUnlocks(playerID string, limit int) ([]domain.UnlockEvent, error) {
	rows, err := d.db.Query(
		`SELECT id, player_id, accomplishment_id, points, unlocked_at
		 FROM unlocks WHERE player_id = ? ORDER BY unlocked_at DESC LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.UnlockEvent
	for rows.Next() {
		var ev domain.UnlockEvent
		var ts int64
		if err := rows.Scan(&ev.ID, &ev.PlayerID, &ev.AccomplishmentID, &ev.PointsAwarded, &ts); err != nil {
			return nil, err
		}
		ev.Timestamp = time.Unix(ts, 0)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// UnlockCount returns the number of persisted unlocks for a player.
func (d *DB) UnlockCount(playerID string) (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM unlocks WHERE player_id = ?`, playerID,
	).Scan(&n)
	return n, err
}

// ─── Celebration History ────────────────────────────────────────────────────

// RecordCelebration persists one completed celebration sequence.
func (d *DB) RecordCelebration(item domain.CelebrationItem, faulted bool) error {
	_, err := d.db.Exec(
		`INSERT INTO celebrations (id, player_id, accomplishment_id, style, faulted, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		item.ID, item.PlayerID, item.Def.ID, string(item.Profile.Style),
		faulted, nullableUnix(item.StartedAt), item.CompletedAt.Unix(),
	)
	return err
}

// CelebrationCount returns the number of persisted celebrations.
func (d *DB) CelebrationCount() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM celebrations`).Scan(&n)
	return n, err
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
