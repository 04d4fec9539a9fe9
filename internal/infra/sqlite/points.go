package sqlite

import (
	"fmt"
	"time"

	"github.com/readly-app/readly/internal/domain"
)

// ─── Point Ledger ───────────────────────────────────────────────────────────

// InsertPoint appends a ledger entry and bumps the cached total in the
// same transaction — the two can never diverge. Returns false when a
// unique index (challenge-per-day, level-bonus-once) absorbed the
// insert; the cached total is then left alone.
func (d *DB) InsertPoint(p domain.Point) (bool, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT OR IGNORE INTO points (user_id, amount, reason, related_id, related_type, day, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Amount, p.Reason, p.RelatedID, p.RelatedType,
		domain.DayKey(p.Day), p.CreatedAt.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("insert point: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return false, nil // absorbed by a uniqueness guard
	}

	_, err = tx.Exec(
		`UPDATE user_stats SET total_points = total_points + ? WHERE user_id = ?`,
		p.Amount, p.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("bump total: %w", err)
	}

	return true, tx.Commit()
}

// PointTotal sums the ledger — the source of truth the cached
// UserStats.TotalPoints must always match.
func (d *DB) PointTotal(userID string) (int64, error) {
	var total int64
	err := d.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM points WHERE user_id = ?`, userID,
	).Scan(&total)
	return total, err
}

// ListPoints returns recent ledger entries, newest first.
func (d *DB) ListPoints(userID string, limit int) ([]domain.Point, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, amount, reason, related_id, related_type, day, created_at
		 FROM points WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.Point
	for rows.Next() {
		var p domain.Point
		var dayKey string
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Amount, &p.Reason,
			&p.RelatedID, &p.RelatedType, &dayKey, &createdAt); err != nil {
			return nil, err
		}
		day, err := domain.ParseDay(dayKey)
		if err != nil {
			return nil, err
		}
		p.Day = day
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		points = append(points, p)
	}
	return points, rows.Err()
}

// HasChallengePoint reports whether a challenge reward exists for the
// given day. Read path for DailyChallenge.Completed; the write path is
// still guarded by the unique index.
func (d *DB) HasChallengePoint(userID string, day time.Time) (bool, error) {
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM points WHERE user_id = ? AND related_type = 'challenge' AND day = ?`,
		userID, domain.DayKey(day),
	).Scan(&count)
	return count > 0, err
}
