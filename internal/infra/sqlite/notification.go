package sqlite

import (
	"database/sql"
	"time"

	"github.com/readly-app/readly/internal/domain"
)

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification creates a notification. For reminder types the
// unique (user, type, day) index makes the insert conditional: a second
// attempt the same day is absorbed and inserted is false.
func (d *DB) InsertNotification(n domain.Notification) (id int64, inserted bool, err error) {
	result, err := d.db.Exec(
		`INSERT OR IGNORE INTO notifications (user_id, type, title, body, day, is_read, related_id, related_type, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		n.UserID, string(n.Type), n.Title, n.Body, domain.DayKey(n.Day),
		n.RelatedID, n.RelatedType, n.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, false, err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, false, nil
	}
	id, err = result.LastInsertId()
	return id, true, err
}

// ListNotifications returns a user's notifications, newest first.
func (d *DB) ListNotifications(userID string, limit int) ([]domain.Notification, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, type, title, body, day, is_read, related_id, related_type, created_at
		 FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, *n)
	}
	return notifs, rows.Err()
}

// MarkNotificationRead flags a notification as read, scoped to its owner.
func (d *DB) MarkNotificationRead(userID string, id int64) error {
	result, err := d.db.Exec(
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// DeleteNotification removes a notification, scoped to its owner.
func (d *DB) DeleteNotification(userID string, id int64) error {
	result, err := d.db.Exec(
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// DeleteNotificationsBefore removes notifications created before the
// cutoff. Retention cleanup for the 2am task.
func (d *DB) DeleteNotificationsBefore(cutoff time.Time) (int64, error) {
	result, err := d.db.Exec(
		`DELETE FROM notifications WHERE created_at < ?`, cutoff.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ─── Reminder Run Tracking ──────────────────────────────────────────────────

// LastRunDay returns the day key a gated task last completed, or "".
func (d *DB) LastRunDay(task string) (string, error) {
	var day string
	err := d.db.QueryRow(`SELECT last_day FROM reminder_runs WHERE task = ?`, task).Scan(&day)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return day, err
}

// SetLastRunDay records that a gated task completed for the given day.
func (d *DB) SetLastRunDay(task, day string) error {
	_, err := d.db.Exec(
		`INSERT INTO reminder_runs (task, last_day) VALUES (?, ?)
		 ON CONFLICT(task) DO UPDATE SET last_day=excluded.last_day`,
		task, day,
	)
	return err
}

// ─── Scanners ───────────────────────────────────────────────────────────────

func scanNotification(s scanner) (*domain.Notification, error) {
	var n domain.Notification
	var typ, dayKey string
	var createdAt int64
	err := s.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Body, &dayKey,
		&n.Read, &n.RelatedID, &n.RelatedType, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	day, err := domain.ParseDay(dayKey)
	if err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(typ)
	n.Day = day
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &n, nil
}
