package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/readly-app/readly/internal/domain"
)

// ─── Users ──────────────────────────────────────────────────────────────────

// CreateUser inserts a user together with its zeroed stats row.
// The two inserts run in one transaction so a user can never exist
// without stats.
func (d *DB) CreateUser(u domain.User) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO users (id, name, role, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, string(u.Role), u.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO user_stats (user_id, level) VALUES (?, 1)`,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("insert stats: %w", err)
	}

	return tx.Commit()
}

// GetUser retrieves a user by ID.
func (d *DB) GetUser(id string) (*domain.User, error) {
	row := d.db.QueryRow(
		`SELECT id, name, role, created_at FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// ListUsers returns all users ordered by creation time.
func (d *DB) ListUsers() ([]domain.User, error) {
	rows, err := d.db.Query(
		`SELECT id, name, role, created_at FROM users ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ─── Relationships ──────────────────────────────────────────────────────────

// LinkChild records a parent→child relationship. Idempotent.
func (d *DB) LinkChild(parentID, childID string) error {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO relationships (parent_id, child_id) VALUES (?, ?)`,
		parentID, childID,
	)
	return err
}

// ListRelationships returns all parent→child links.
func (d *DB) ListRelationships() ([]domain.Relationship, error) {
	rows, err := d.db.Query(
		`SELECT parent_id, child_id FROM relationships ORDER BY parent_id, child_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []domain.Relationship
	for rows.Next() {
		var r domain.Relationship
		if err := rows.Scan(&r.ParentID, &r.ChildID); err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// ─── User Stats ─────────────────────────────────────────────────────────────

// GetStats returns a user's cached aggregates.
func (d *DB) GetStats(userID string) (*domain.UserStats, error) {
	row := d.db.QueryRow(
		`SELECT user_id, total_books, total_minutes, current_streak, longest_streak, total_points, level
		 FROM user_stats WHERE user_id = ?`, userID,
	)
	var s domain.UserStats
	err := row.Scan(&s.UserID, &s.TotalBooks, &s.TotalMinutes, &s.CurrentStreak,
		&s.LongestStreak, &s.TotalPoints, &s.Level)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateAggregates overwrites the recomputed columns of a stats row.
// Points are deliberately untouched — only point grants move them.
func (d *DB) UpdateAggregates(s domain.UserStats) error {
	_, err := d.db.Exec(
		`UPDATE user_stats
		 SET total_books = ?, total_minutes = ?, current_streak = ?, longest_streak = ?, level = ?
		 WHERE user_id = ?`,
		s.TotalBooks, s.TotalMinutes, s.CurrentStreak, s.LongestStreak, s.Level, s.UserID,
	)
	return err
}

// Leaderboard returns child accounts ranked by total points.
func (d *DB) Leaderboard(limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := d.db.Query(
		`SELECT RANK() OVER (ORDER BY s.total_points DESC, s.total_books DESC) AS rank,
		        u.id, u.name, s.total_points, s.total_books, s.level
		 FROM user_stats s
		 JOIN users u ON u.id = s.user_id
		 WHERE u.role = 'child'
		 ORDER BY rank ASC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var board []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.Name, &e.TotalPoints, &e.TotalBooks, &e.Level); err != nil {
			return nil, err
		}
		board = append(board, e)
	}
	return board, rows.Err()
}

// ─── Scanners ───────────────────────────────────────────────────────────────

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	var role string
	var createdAt int64
	err := s.Scan(&u.ID, &u.Name, &role, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}
