package gamify

import (
	"fmt"
	"time"

	"github.com/readly-app/readly/internal/app/points"
	"github.com/readly-app/readly/internal/domain"
	"github.com/readly-app/readly/internal/infra/metrics"
	"github.com/readly-app/readly/internal/infra/sqlite"
)

// evaluator measures one badge condition against a progress snapshot.
// Returns (current, target); the badge is due when current >= target.
// The set is closed: every catalog condition has exactly one entry.
type evaluator func(domain.Progress) (current, target int)

var evaluators = map[domain.BadgeCondition]evaluator{
	domain.CondFirstCheckIn: func(p domain.Progress) (int, int) { return p.TotalBooks, 1 },
	domain.CondStreak7:      func(p domain.Progress) (int, int) { return p.CurrentStreak, 7 },
	domain.CondStreak30:     func(p domain.Progress) (int, int) { return p.CurrentStreak, 30 },
	domain.CondBooks100:     func(p domain.Progress) (int, int) { return p.TotalBooks, 100 },
	domain.CondTime100h:     func(p domain.Progress) (int, int) { return p.TotalMinutes, 6000 },
	domain.CondNotes50:      func(p domain.Progress) (int, int) { return p.NotedCheckIns, 50 },
}

// Catalog returns the full badge catalog. Static reference data — only
// earned badges hit the database.
func Catalog() []domain.Badge {
	return []domain.Badge{
		{
			ID: "first_checkin", Name: "First Page", Condition: domain.CondFirstCheckIn,
			Description: "Log your very first book", Reward: 10,
		},
		{
			ID: "streak_7", Name: "Week Warrior", Condition: domain.CondStreak7,
			Description: "Read seven days in a row", Reward: 50,
		},
		{
			ID: "streak_30", Name: "Monthly Machine", Condition: domain.CondStreak30,
			Description: "Read thirty days in a row", Reward: 200,
		},
		{
			ID: "books_100", Name: "Century Shelf", Condition: domain.CondBooks100,
			Description: "Check in one hundred different books", Reward: 500,
		},
		{
			ID: "time_100h", Name: "Hundred Hours", Condition: domain.CondTime100h,
			Description: "Read for one hundred hours in total", Reward: 300,
		},
		{
			ID: "notes_50", Name: "Thoughtful Reader", Condition: domain.CondNotes50,
			Description: "Write notes on fifty check-ins", Reward: 100,
		},
	}
}

// BadgeEngine scans the catalog against a user's progress and awards
// whatever is due. A badge lands at most once per user — the
// (user, badge) primary key decides races, and a lost insert grants
// no points.
type BadgeEngine struct {
	db      *sqlite.DB
	points  *points.Service
	catalog []domain.Badge
}

// NewBadgeEngine creates a badge engine over the full catalog.
func NewBadgeEngine(db *sqlite.DB, pts *points.Service) *BadgeEngine {
	return &BadgeEngine{db: db, points: pts, catalog: Catalog()}
}

// Definitions returns the catalog (for display).
func (e *BadgeEngine) Definitions() []domain.Badge {
	return e.catalog
}

// Earned returns a user's earned badges, newest first.
func (e *BadgeEngine) Earned(userID string) ([]domain.UserBadge, error) {
	return e.db.ListEarnedBadges(userID)
}

// ScanAt evaluates every not-yet-earned badge against the snapshot and
// awards all satisfied ones in one pass. Each award inserts the earned
// row, grants the bonus points, and produces a notification.
func (e *BadgeEngine) ScanAt(userID string, prog domain.Progress, now time.Time) ([]domain.Badge, error) {
	earned, err := e.db.EarnedBadgeIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("load earned badges: %w", err)
	}

	var awarded []domain.Badge
	for _, b := range e.catalog {
		if earned[b.ID] {
			continue
		}
		current, target := evaluators[b.Condition](prog)
		if current < target {
			continue
		}

		isNew, err := e.db.AwardBadge(userID, b.ID, now)
		if err != nil {
			return nil, fmt.Errorf("award %s: %w", b.ID, err)
		}
		if !isNew {
			continue // concurrent scan got there first
		}

		if err := e.points.Grant(userID, b.Reward, "badge:"+b.ID, b.ID, domain.RelatedBadge, now); err != nil {
			return nil, err
		}

		_, _, err = e.db.InsertNotification(domain.Notification{
			UserID:      userID,
			Type:        domain.NotifyBadge,
			Title:       "Badge earned: " + b.Name,
			Body:        b.Description,
			Day:         domain.DayOf(now),
			RelatedID:   b.ID,
			RelatedType: domain.RelatedBadge,
			CreatedAt:   now,
		})
		if err != nil {
			return nil, fmt.Errorf("badge notification: %w", err)
		}

		metrics.BadgesAwarded.WithLabelValues(b.ID).Inc()
		awarded = append(awarded, b)
	}

	return awarded, nil
}
