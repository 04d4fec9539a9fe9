package sqlite

import (
	"database/sql"
	"time"

	"github.com/readly-app/readly/internal/domain"
)

// ─── Check-in Ledger ────────────────────────────────────────────────────────

// InsertCheckIn appends a check-in. Returns ErrAlreadyCheckedIn when the
// (user, book, day) slot is taken — the UNIQUE constraint decides, not a
// pre-read.
func (d *DB) InsertCheckIn(c domain.CheckIn) error {
	result, err := d.db.Exec(
		`INSERT OR IGNORE INTO checkins (id, user_id, book_id, day, minutes, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.BookID, domain.DayKey(c.Day), c.Minutes, c.Notes, c.CreatedAt.Unix(),
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrAlreadyCheckedIn
	}
	return nil
}

// GetCheckIn retrieves a check-in by ID.
func (d *DB) GetCheckIn(id string) (*domain.CheckIn, error) {
	row := d.db.QueryRow(
		`SELECT id, user_id, book_id, day, minutes, notes, created_at
		 FROM checkins WHERE id = ?`, id,
	)
	return scanCheckIn(row)
}

// DeleteCheckIn removes a check-in by ID.
func (d *DB) DeleteCheckIn(id string) error {
	result, err := d.db.Exec(`DELETE FROM checkins WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrCheckInNotFound
	}
	return nil
}

// ListCheckIns returns a user's check-ins, newest day first.
func (d *DB) ListCheckIns(userID string, limit int) ([]domain.CheckIn, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, book_id, day, minutes, notes, created_at
		 FROM checkins WHERE user_id = ? ORDER BY day DESC, created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkins []domain.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		checkins = append(checkins, *c)
	}
	return checkins, rows.Err()
}

// DistinctDays returns the distinct calendar days a user checked in,
// descending. This is the streak calculator's input.
func (d *DB) DistinctDays(userID string) ([]time.Time, error) {
	rows, err := d.db.Query(
		`SELECT DISTINCT day FROM checkins WHERE user_id = ? ORDER BY day DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		day, err := domain.ParseDay(key)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// CheckInProgress derives the badge-evaluator snapshot from the ledger:
// distinct books, total minutes, and noted check-ins in one query.
// Streak fields are filled in by the aggregator.
func (d *DB) CheckInProgress(userID string) (domain.Progress, error) {
	var p domain.Progress
	err := d.db.QueryRow(
		`SELECT COUNT(DISTINCT book_id),
		        COALESCE(SUM(minutes), 0),
		        COALESCE(SUM(CASE WHEN notes <> '' THEN 1 ELSE 0 END), 0)
		 FROM checkins WHERE user_id = ?`, userID,
	).Scan(&p.TotalBooks, &p.TotalMinutes, &p.NotedCheckIns)
	return p, err
}

// MinutesOnDay sums a user's reading minutes on one calendar day.
func (d *DB) MinutesOnDay(userID string, day time.Time) (int, error) {
	var minutes int
	err := d.db.QueryRow(
		`SELECT COALESCE(SUM(minutes), 0) FROM checkins WHERE user_id = ? AND day = ?`,
		userID, domain.DayKey(day),
	).Scan(&minutes)
	return minutes, err
}

// PeriodStats sums minutes and distinct books in [from, to).
func (d *DB) PeriodStats(userID string, from, to time.Time) (domain.PeriodStats, error) {
	var p domain.PeriodStats
	err := d.db.QueryRow(
		`SELECT COALESCE(SUM(minutes), 0), COUNT(DISTINCT book_id)
		 FROM checkins WHERE user_id = ? AND day >= ? AND day < ?`,
		userID, domain.DayKey(from), domain.DayKey(to),
	).Scan(&p.Minutes, &p.Books)
	return p, err
}

// LastCheckInDay returns a user's most recent check-in day.
// ok is false when the user has never checked in.
func (d *DB) LastCheckInDay(userID string) (day time.Time, ok bool, err error) {
	var key sql.NullString
	err = d.db.QueryRow(
		`SELECT MAX(day) FROM checkins WHERE user_id = ?`, userID,
	).Scan(&key)
	if err != nil {
		return time.Time{}, false, err
	}
	if !key.Valid {
		return time.Time{}, false, nil // never checked in
	}
	day, err = domain.ParseDay(key.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return day, true, nil
}

// InactiveChildrenToday returns children who have checked in before but
// not on the given day. Feeds the 8pm reminder scan.
func (d *DB) InactiveChildrenToday(day time.Time) ([]domain.User, error) {
	rows, err := d.db.Query(
		`SELECT u.id, u.name, u.role, u.created_at
		 FROM users u
		 WHERE u.role = 'child'
		   AND EXISTS (SELECT 1 FROM checkins c WHERE c.user_id = u.id)
		   AND NOT EXISTS (SELECT 1 FROM checkins c WHERE c.user_id = u.id AND c.day = ?)`,
		domain.DayKey(day),
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

// ─── Scanners ───────────────────────────────────────────────────────────────

func scanCheckIn(s scanner) (*domain.CheckIn, error) {
	var c domain.CheckIn
	var dayKey string
	var createdAt int64
	err := s.Scan(&c.ID, &c.UserID, &c.BookID, &dayKey, &c.Minutes, &c.Notes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCheckInNotFound
	}
	if err != nil {
		return nil, err
	}
	day, err := domain.ParseDay(dayKey)
	if err != nil {
		return nil, err
	}
	c.Day = day
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}
