package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("role must be child, parent, or teacher")

	// Check-in errors
	ErrAlreadyCheckedIn = errors.New("already checked in this book today")
	ErrCheckInNotFound  = errors.New("check-in not found")
	ErrNotCheckInOwner  = errors.New("only the owner can delete a check-in")
	ErrInvalidMinutes   = errors.New("reading time must be positive")
	ErrMissingBook      = errors.New("book id is required")
	ErrCheckInInFuture  = errors.New("check-in day cannot be in the future")

	// Points errors
	ErrNonPositiveGrant = errors.New("point grant must be positive")

	// Challenge errors
	ErrChallengeClaimed    = errors.New("daily challenge already claimed today")
	ErrChallengeIncomplete = errors.New("daily reading target not reached yet")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// Scheduler errors
	ErrSchedulerRunning = errors.New("reminder scheduler already running")
)
