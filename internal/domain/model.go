// Package domain holds the core types of the Readly engagement engine.
// Streaks, badges, levels, points, and challenges all operate on these
// types; they carry no infrastructure dependencies.
package domain

import "time"

// ─── Users ──────────────────────────────────────────────────────────────────

// Role classifies an account.
type Role string

const (
	RoleChild   Role = "child"
	RoleParent  Role = "parent"
	RoleTeacher Role = "teacher"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return r == RoleChild || r == RoleParent || r == RoleTeacher
}

// User is an account. Every user owns exactly one UserStats row,
// created with the user.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Relationship links a parent (or teacher) to a child they follow.
type Relationship struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
}

// ─── Check-ins ──────────────────────────────────────────────────────────────

// CheckIn records that a user read a specific book on a calendar day.
// At most one check-in per (user, book, day); different books on the
// same day are fine.
type CheckIn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Day       time.Time `json:"day"` // date-only, UTC midnight
	Minutes   int       `json:"minutes"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// ─── Stats ──────────────────────────────────────────────────────────────────

// UserStats is the cached aggregate over a user's check-in and point
// ledgers. It is recomputed from source of truth on every check-in
// create/delete and never edited directly.
type UserStats struct {
	UserID        string `json:"user_id"`
	TotalBooks    int    `json:"total_books"`
	TotalMinutes  int    `json:"total_minutes"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	TotalPoints   int64  `json:"total_points"`
	Level         int    `json:"level"`
}

// Progress is the snapshot fed to badge condition evaluators.
// It extends UserStats with counts not cached on the stats row.
type Progress struct {
	TotalBooks    int
	TotalMinutes  int
	CurrentStreak int
	LongestStreak int
	NotedCheckIns int // check-ins with non-empty notes
}

// ─── Badges ─────────────────────────────────────────────────────────────────

// BadgeCondition names a threshold rule in the badge catalog.
// The set is closed; each condition maps to one evaluator.
type BadgeCondition string

const (
	CondFirstCheckIn BadgeCondition = "first_checkin"
	CondStreak7      BadgeCondition = "streak_7"
	CondStreak30     BadgeCondition = "streak_30"
	CondBooks100     BadgeCondition = "books_100"
	CondTime100h     BadgeCondition = "time_100h"
	CondNotes50      BadgeCondition = "notes_50"
)

// Badge is a static catalog entry. The catalog lives in code;
// only earned badges are persisted.
type Badge struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Condition   BadgeCondition `json:"condition"`
	Reward      int64          `json:"reward"` // bonus points on award
}

// UserBadge records a badge earned by a user. Unique per pair —
// a badge is granted at most once, and never taken back.
type UserBadge struct {
	UserID   string    `json:"user_id"`
	BadgeID  string    `json:"badge_id"`
	EarnedAt time.Time `json:"earned_at"`
}

// ─── Points ─────────────────────────────────────────────────────────────────

// Point is one append-only ledger entry. A user's total is the running
// sum; the cached UserStats.TotalPoints must always equal it.
type Point struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      int64     `json:"amount"`
	Reason      string    `json:"reason"`
	RelatedID   string    `json:"related_id,omitempty"`
	RelatedType string    `json:"related_type,omitempty"`
	Day         time.Time `json:"day"` // date-only, UTC midnight
	CreatedAt   time.Time `json:"created_at"`
}

// Related-type tags used by the award paths. The challenge and level
// tags back partial unique indexes, which is what makes those grants
// single-shot under concurrent attempts.
const (
	RelatedBadge     = "badge"
	RelatedLevel     = "level"
	RelatedChallenge = "challenge"
)

// ChallengeReason is the exact reason tag of a daily-challenge reward.
// Doubles as the per-day idempotency key.
const ChallengeReason = "daily challenge completed"

// ─── Challenges ─────────────────────────────────────────────────────────────

// DailyChallenge is computed per request from today's check-ins;
// no progress counter is persisted.
type DailyChallenge struct {
	Target    int   `json:"target"`  // minutes
	Current   int   `json:"current"` // minutes read today
	Completed bool  `json:"completed"`
	Reward    int64 `json:"reward"`
}

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyBadge       NotificationType = "badge"
	NotifyLevelUp     NotificationType = "level_up"
	NotifyReminder    NotificationType = "read_reminder" // child hasn't read today
	NotifyParentAlert NotificationType = "parent_alert"  // child inactive for days
)

// Notification is a stored user-facing message. The engine only
// produces rows; formatting and delivery live elsewhere.
type Notification struct {
	ID          int64            `json:"id"`
	UserID      string           `json:"user_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Day         time.Time        `json:"day"` // date-only; dedup key for reminder types
	Read        bool             `json:"read"`
	RelatedID   string           `json:"related_id,omitempty"`
	RelatedType string           `json:"related_type,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ─── Leaderboard ────────────────────────────────────────────────────────────

// LeaderboardEntry is one ranked row, scoped to child accounts.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	TotalPoints int64  `json:"total_points"`
	TotalBooks  int    `json:"total_books"`
	Level       int    `json:"level"`
}

// ─── Period summaries ───────────────────────────────────────────────────────

// PeriodStats are the reading totals within one date range.
type PeriodStats struct {
	Minutes int `json:"minutes"`
	Books   int `json:"books"`
}

// Summary compares the current week or month against the previous one.
type Summary struct {
	Period   string      `json:"period"` // "week" or "month"
	Current  PeriodStats `json:"current"`
	Previous PeriodStats `json:"previous"`
}
