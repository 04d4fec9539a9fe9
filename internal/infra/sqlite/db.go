// Package sqlite provides SQLite-based persistent storage for Readly.
// Uses WAL mode for concurrent reads and crash-safe writes.
//
// Every idempotency guarantee of the engagement engine is backed by a
// constraint here rather than application-level locking: one check-in
// per (user, book, day), one badge per (user, badge), one challenge
// reward per (user, day), one reminder per (user, type, day).
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
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

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Accounts
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			role       TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		// Parent/teacher → child links, one row per pair
		`CREATE TABLE IF NOT EXISTS relationships (
			parent_id TEXT NOT NULL,
			child_id  TEXT NOT NULL,
			PRIMARY KEY (parent_id, child_id)
		)`,

		// Cached aggregates, 1:1 with users, recomputed from the ledgers
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id        TEXT PRIMARY KEY,
			total_books    INTEGER NOT NULL DEFAULT 0,
			total_minutes  INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			total_points   INTEGER NOT NULL DEFAULT 0,
			level          INTEGER NOT NULL DEFAULT 1
		)`,

		// Check-in ledger. One check-in per user/book/day.
		`CREATE TABLE IF NOT EXISTS checkins (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			book_id    TEXT NOT NULL,
			day        TEXT NOT NULL,
			minutes    INTEGER NOT NULL,
			notes      TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			UNIQUE (user_id, book_id, day)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkins_user_day ON checkins(user_id, day)`,

		// Earned badges. The pair key makes a concurrent double-scan
		// lose the second insert instead of double-granting.
		`CREATE TABLE IF NOT EXISTS user_badges (
			user_id   TEXT NOT NULL,
			badge_id  TEXT NOT NULL,
			earned_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, badge_id)
		)`,

		// Append-only point ledger
		`CREATE TABLE IF NOT EXISTS points (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      TEXT NOT NULL,
			amount       INTEGER NOT NULL,
			reason       TEXT NOT NULL,
			related_id   TEXT NOT NULL DEFAULT '',
			related_type TEXT NOT NULL DEFAULT '',
			day          TEXT NOT NULL,
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_points_user ON points(user_id, created_at)`,
		// One challenge reward per user per day
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_points_challenge_once
			ON points(user_id, day) WHERE related_type = 'challenge'`,
		// One bonus per level per user, even if the level is re-reached
		// after a delete lowered it
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_points_level_once
			ON points(user_id, reason) WHERE related_type = 'level'`,

		// Notification log
		`CREATE TABLE IF NOT EXISTS notifications (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      TEXT NOT NULL,
			type         TEXT NOT NULL,
			title        TEXT NOT NULL,
			body         TEXT NOT NULL,
			day          TEXT NOT NULL,
			is_read      BOOLEAN NOT NULL DEFAULT 0,
			related_id   TEXT NOT NULL DEFAULT '',
			related_type TEXT NOT NULL DEFAULT '',
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user ON notifications(user_id, created_at)`,
		// At most one reminder of each kind per user per day
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_notif_reminder_once
			ON notifications(user_id, type, day)
			WHERE type IN ('read_reminder', 'parent_alert')`,

		// Last completed run day per gated reminder task, so a missed
		// gate hour is caught up on a later tick the same day
		`CREATE TABLE IF NOT EXISTS reminder_runs (
			task     TEXT PRIMARY KEY,
			last_day TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
