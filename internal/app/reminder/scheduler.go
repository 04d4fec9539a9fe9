// Package reminder implements the low-frequency reminder loop: an
// hourly tick that fires three gated tasks — the evening "read today?"
// reminder for children, the morning inactivity alert for parents, and
// nightly notification retention cleanup.
//
// Every task is idempotent: reminder notifications are deduplicated by
// a (user, type, day) unique index, and each task records its last
// completed day so a missed gate hour is caught up on a later tick the
// same day instead of being skipped.
package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/readly-app/readly/internal/domain"
	"github.com/readly-app/readly/internal/infra/metrics"
	"github.com/readly-app/readly/internal/infra/sqlite"
)

// Config controls the reminder loop.
type Config struct {
	Interval          time.Duration // tick interval (default 1h)
	InactiveHour      int           // earliest hour for the child reminder (default 20)
	ParentAlertHour   int           // earliest hour for the parent alert (default 9)
	CleanupHour       int           // earliest hour for retention cleanup (default 2)
	InactiveAfterDays int           // child inactivity threshold for parents (default 3)
	RetentionDays     int           // notification retention window (default 30)
}

// DefaultConfig returns the production reminder defaults.
func DefaultConfig() Config {
	return Config{
		Interval:          time.Hour,
		InactiveHour:      20,
		ParentAlertHour:   9,
		CleanupHour:       2,
		InactiveAfterDays: 3,
		RetentionDays:     30,
	}
}

// Scheduler is the background reminder loop.
// States: Stopped → Running on Start, Running → Stopped on Stop.
type Scheduler struct {
	db  *sqlite.DB
	cfg Config

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// New creates a reminder scheduler.
func New(db *sqlite.DB, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Scheduler{db: db, cfg: cfg}
}

// Start launches the hourly loop. Returns ErrSchedulerRunning on
// double-start; Stop is always safe to call.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return domain.ErrSchedulerRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	metrics.SchedulerRunning.Set(1)

	go s.run(ctx)
	return nil
}

// Stop cancels the loop. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.running = false
	metrics.SchedulerRunning.Set(0)
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// Evaluate once at startup so a restart mid-day catches up
	// immediately instead of waiting a full interval.
	if err := s.Tick(time.Now()); err != nil {
		log.Printf("[reminder] tick: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(time.Now()); err != nil {
				log.Printf("[reminder] tick: %v", err)
			}
		}
	}
}

// Tick evaluates all gated tasks at the given time. A task fires when
// the hour has reached its gate and it has not yet completed today.
// Safe to call any number of times within the same hour or day.
func (s *Scheduler) Tick(now time.Time) error {
	tasks := []struct {
		name string
		gate int
		fn   func(time.Time) error
	}{
		{"inactive_today", s.cfg.InactiveHour, s.remindInactiveChildren},
		{"parent_alert", s.cfg.ParentAlertHour, s.alertParents},
		{"cleanup", s.cfg.CleanupHour, s.cleanupNotifications},
	}

	for _, task := range tasks {
		if now.Hour() < task.gate {
			continue
		}
		last, err := s.db.LastRunDay(task.name)
		if err != nil {
			return fmt.Errorf("%s: last run: %w", task.name, err)
		}
		today := domain.DayKey(now)
		if last == today {
			continue // already completed today
		}
		if err := task.fn(now); err != nil {
			return fmt.Errorf("%s: %w", task.name, err)
		}
		if err := s.db.SetLastRunDay(task.name, today); err != nil {
			return fmt.Errorf("%s: record run: %w", task.name, err)
		}
	}
	return nil
}

// remindInactiveChildren nudges children who have read before but not
// today. The (user, type, day) index absorbs re-sends.
func (s *Scheduler) remindInactiveChildren(now time.Time) error {
	inactive, err := s.db.InactiveChildrenToday(now)
	if err != nil {
		return err
	}

	for _, child := range inactive {
		_, inserted, err := s.db.InsertNotification(domain.Notification{
			UserID:    child.ID,
			Type:      domain.NotifyReminder,
			Title:     "Time to read!",
			Body:      "You haven't logged any reading today. A few pages keep the streak alive.",
			Day:       domain.DayOf(now),
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		if inserted {
			metrics.RemindersSent.WithLabelValues(string(domain.NotifyReminder)).Inc()
		}
	}
	if len(inactive) > 0 {
		log.Printf("[reminder] evening scan: %d inactive children", len(inactive))
	}
	return nil
}

// alertParents tells parents whose child has not checked in for
// InactiveAfterDays days (or ever).
func (s *Scheduler) alertParents(now time.Time) error {
	rels, err := s.db.ListRelationships()
	if err != nil {
		return err
	}

	for _, rel := range rels {
		last, ok, err := s.db.LastCheckInDay(rel.ChildID)
		if err != nil {
			return err
		}

		var body string
		if ok {
			gap := domain.DaysBetween(last, now)
			if gap < s.cfg.InactiveAfterDays {
				continue
			}
			body = fmt.Sprintf("No reading logged for %d days.", gap)
		} else {
			body = "No reading has been logged yet."
		}

		child, err := s.db.GetUser(rel.ChildID)
		if err != nil {
			return err
		}

		_, inserted, err := s.db.InsertNotification(domain.Notification{
			UserID:      rel.ParentID,
			Type:        domain.NotifyParentAlert,
			Title:       child.Name + " needs a nudge",
			Body:        body,
			Day:         domain.DayOf(now),
			RelatedID:   rel.ChildID,
			RelatedType: "user",
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		if inserted {
			metrics.RemindersSent.WithLabelValues(string(domain.NotifyParentAlert)).Inc()
		}
	}
	return nil
}

// cleanupNotifications deletes notifications older than the retention
// window.
func (s *Scheduler) cleanupNotifications(now time.Time) error {
	cutoff := now.AddDate(0, 0, -s.cfg.RetentionDays)
	n, err := s.db.DeleteNotificationsBefore(cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		metrics.NotificationsCleaned.Add(float64(n))
		log.Printf("[reminder] cleanup: removed %d notifications", n)
	}
	return nil
}
