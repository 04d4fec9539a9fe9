package sqlite

import (
	"time"

	"github.com/readly-app/readly/internal/domain"
)

// ─── Earned Badges ──────────────────────────────────────────────────────────

// AwardBadge records a badge as earned. Returns false if the user
// already has it (idempotent — the pair key wins the race).
func (d *DB) AwardBadge(userID, badgeID string, at time.Time) (bool, error) {
	result, err := d.db.Exec(
		`INSERT OR IGNORE INTO user_badges (user_id, badge_id, earned_at) VALUES (?, ?, ?)`,
		userID, badgeID, at.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil // true = newly earned
}

// EarnedBadgeIDs returns the set of badge IDs a user has earned.
func (d *DB) EarnedBadgeIDs(userID string) (map[string]bool, error) {
	rows, err := d.db.Query(
		`SELECT badge_id FROM user_badges WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	earned := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		earned[id] = true
	}
	return earned, rows.Err()
}

// ListEarnedBadges returns a user's badges, newest first.
func (d *DB) ListEarnedBadges(userID string) ([]domain.UserBadge, error) {
	rows, err := d.db.Query(
		`SELECT user_id, badge_id, earned_at FROM user_badges
		 WHERE user_id = ? ORDER BY earned_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []domain.UserBadge
	for rows.Next() {
		var b domain.UserBadge
		var earnedAt int64
		if err := rows.Scan(&b.UserID, &b.BadgeID, &earnedAt); err != nil {
			return nil, err
		}
		b.EarnedAt = time.Unix(earnedAt, 0).UTC()
		badges = append(badges, b)
	}
	return badges, rows.Err()
}
