package gamify

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/readly-app/readly/internal/app/points"
	"github.com/readly-app/readly/internal/domain"
	"github.com/readly-app/readly/internal/infra/metrics"
	"github.com/readly-app/readly/internal/infra/sqlite"
)

// Aggregator keeps UserStats consistent with the check-in ledger and
// drives the award pipeline. Within one check-in the order is fixed:
// stats recompute, then badge scan, then level check — the later steps
// read the snapshot the recompute just produced.
type Aggregator struct {
	db     *sqlite.DB
	points *points.Service
	badges *BadgeEngine
}

// NewAggregator creates a stats aggregator.
func NewAggregator(db *sqlite.DB, pts *points.Service, badges *BadgeEngine) *Aggregator {
	return &Aggregator{db: db, points: pts, badges: badges}
}

// Result summarizes what one recompute changed.
type Result struct {
	Stats     domain.UserStats `json:"stats"`
	NewBadges []domain.Badge   `json:"new_badges,omitempty"`
	LeveledUp bool             `json:"leveled_up"`
	NewLevel  int              `json:"new_level,omitempty"`
}

// CheckIn validates and appends a check-in for today, then runs the
// full recompute-and-award pipeline.
func (a *Aggregator) CheckIn(userID, bookID string, day time.Time, minutes int, notes string) (*domain.CheckIn, *Result, error) {
	return a.CheckInAt(userID, bookID, day, minutes, notes, time.Now())
}

// CheckInAt is CheckIn with an explicit clock, for testability.
func (a *Aggregator) CheckInAt(userID, bookID string, day time.Time, minutes int, notes string, now time.Time) (*domain.CheckIn, *Result, error) {
	if minutes <= 0 {
		return nil, nil, domain.ErrInvalidMinutes
	}
	if bookID == "" {
		return nil, nil, domain.ErrMissingBook
	}
	if day.IsZero() {
		day = now
	}
	if domain.DayOf(day).After(domain.DayOf(now)) {
		return nil, nil, domain.ErrCheckInInFuture
	}
	if _, err := a.db.GetUser(userID); err != nil {
		return nil, nil, err
	}

	c := domain.CheckIn{
		ID:        uuid.NewString(),
		UserID:    userID,
		BookID:    bookID,
		Day:       domain.DayOf(day),
		Minutes:   minutes,
		Notes:     notes,
		CreatedAt: now,
	}
	if err := a.db.InsertCheckIn(c); err != nil {
		return nil, nil, err
	}
	metrics.CheckInsCreated.Inc()

	res, err := a.recomputeAt(userID, now, true)
	if err != nil {
		return nil, nil, fmt.Errorf("recompute after check-in: %w", err)
	}
	return &c, res, nil
}

// DeleteCheckIn removes an owner's check-in and recomputes aggregates
// from the remaining rows. No badge or point is retracted: awards are
// irrevocable once granted.
func (a *Aggregator) DeleteCheckIn(userID, checkinID string) (*Result, error) {
	return a.DeleteCheckInAt(userID, checkinID, time.Now())
}

// DeleteCheckInAt is DeleteCheckIn with an explicit clock.
func (a *Aggregator) DeleteCheckInAt(userID, checkinID string, now time.Time) (*Result, error) {
	c, err := a.db.GetCheckIn(checkinID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, domain.ErrNotCheckInOwner
	}
	if err := a.db.DeleteCheckIn(checkinID); err != nil {
		return nil, err
	}
	metrics.CheckInsDeleted.Inc()

	// Recompute only — no award scan on the delete path.
	return a.recomputeAt(userID, now, false)
}

// Recompute rebuilds a user's aggregates from the ledger and runs the
// award pipeline.
func (a *Aggregator) Recompute(userID string) (*Result, error) {
	return a.RecomputeAt(userID, time.Now())
}

// RecomputeAt is Recompute with an explicit clock.
func (a *Aggregator) RecomputeAt(userID string, now time.Time) (*Result, error) {
	return a.recomputeAt(userID, now, true)
}

// Stats returns the cached aggregate row.
func (a *Aggregator) Stats(userID string) (*domain.UserStats, error) {
	return a.db.GetStats(userID)
}

// recomputeAt derives every aggregate from the check-in ledger, merges
// the stored longest streak (monotonically non-decreasing), persists,
// and — when award is set — scans badges and checks for a level-up.
func (a *Aggregator) recomputeAt(userID string, now time.Time, award bool) (*Result, error) {
	stored, err := a.db.GetStats(userID)
	if err != nil {
		return nil, err
	}

	prog, err := a.db.CheckInProgress(userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	days, err := a.db.DistinctDays(userID)
	if err != nil {
		return nil, fmt.Errorf("load days: %w", err)
	}

	prog.CurrentStreak = CurrentStreak(days, now)
	prog.LongestStreak = max(stored.LongestStreak, prog.CurrentStreak)

	newLevel := LevelForBooks(prog.TotalBooks)
	stats := domain.UserStats{
		UserID:        userID,
		TotalBooks:    prog.TotalBooks,
		TotalMinutes:  prog.TotalMinutes,
		CurrentStreak: prog.CurrentStreak,
		LongestStreak: prog.LongestStreak,
		TotalPoints:   stored.TotalPoints,
		Level:         newLevel,
	}
	if err := a.db.UpdateAggregates(stats); err != nil {
		return nil, fmt.Errorf("save stats: %w", err)
	}

	res := &Result{Stats: stats}
	if !award {
		return res, nil
	}

	res.NewBadges, err = a.badges.ScanAt(userID, prog, now)
	if err != nil {
		return nil, fmt.Errorf("badge scan: %w", err)
	}

	if newLevel > stored.Level {
		granted, err := a.levelUpAt(userID, newLevel, now)
		if err != nil {
			return nil, err
		}
		// Re-reaching a level whose bonus was already paid is not a
		// fresh level up.
		res.LeveledUp = granted
		if granted {
			res.NewLevel = newLevel
		}
	}

	// Awards may have moved the cached total; report the final row.
	final, err := a.db.GetStats(userID)
	if err != nil {
		return nil, err
	}
	res.Stats = *final
	return res, nil
}

// levelUpAt grants the one-time level bonus and notifies. The grant is
// keyed per level by a unique index, so re-reaching a level after a
// delete lowered it does not pay twice.
func (a *Aggregator) levelUpAt(userID string, level int, now time.Time) (bool, error) {
	reason := "level:" + strconv.Itoa(level)
	granted, err := a.points.GrantOnce(userID, LevelUpBonus(level), reason,
		strconv.Itoa(level), domain.RelatedLevel, now)
	if err != nil {
		return false, fmt.Errorf("level bonus: %w", err)
	}
	if !granted {
		return false, nil // bonus for this level was paid before
	}

	_, _, err = a.db.InsertNotification(domain.Notification{
		UserID:      userID,
		Type:        domain.NotifyLevelUp,
		Title:       fmt.Sprintf("Level %d reached!", level),
		Body:        fmt.Sprintf("You have read %d books. Keep going!", (level-1)*10),
		Day:         domain.DayOf(now),
		RelatedID:   strconv.Itoa(level),
		RelatedType: domain.RelatedLevel,
		CreatedAt:   now,
	})
	if err != nil {
		return false, fmt.Errorf("level notification: %w", err)
	}

	metrics.LevelUps.Inc()
	return true, nil
}

// SummaryAt compares the current week or month against the previous
// one. The two period queries are independent read-only scans and run
// concurrently.
func (a *Aggregator) SummaryAt(userID, period string, now time.Time) (domain.Summary, error) {
	var curFrom, curTo, prevFrom, prevTo time.Time
	switch period {
	case "month":
		curFrom = domain.StartOfMonth(now)
		curTo = curFrom.AddDate(0, 1, 0)
		prevFrom = curFrom.AddDate(0, -1, 0)
		prevTo = curFrom
	default:
		period = "week"
		curFrom = domain.StartOfWeek(now)
		curTo = curFrom.AddDate(0, 0, 7)
		prevFrom = curFrom.AddDate(0, 0, -7)
		prevTo = curFrom
	}

	var (
		wg              sync.WaitGroup
		current, prev   domain.PeriodStats
		curErr, prevErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		current, curErr = a.db.PeriodStats(userID, curFrom, curTo)
	}()
	go func() {
		defer wg.Done()
		prev, prevErr = a.db.PeriodStats(userID, prevFrom, prevTo)
	}()
	wg.Wait()

	if curErr != nil {
		return domain.Summary{}, curErr
	}
	if prevErr != nil {
		return domain.Summary{}, prevErr
	}
	return domain.Summary{Period: period, Current: current, Previous: prev}, nil
}
