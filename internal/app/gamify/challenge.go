package gamify

import (
	"time"

	"github.com/readly-app/readly/internal/app/points"
	"github.com/readly-app/readly/internal/domain"
	"github.com/readly-app/readly/internal/infra/metrics"
	"github.com/readly-app/readly/internal/infra/sqlite"
)

// Challenge defaults.
const (
	DefaultDailyTarget     = 30 // minutes
	DefaultChallengeReward = 50 // points
)

// ChallengeEngine computes the rolling daily reading challenge.
// Progress is always derived live from today's check-ins; the only
// persisted state is the reward ledger entry, whose per-day unique
// index makes the claim single-shot even under concurrent attempts.
type ChallengeEngine struct {
	db     *sqlite.DB
	points *points.Service
	target int
	reward int64
}

// NewChallengeEngine creates a challenge engine.
// Zero target/reward fall back to the defaults.
func NewChallengeEngine(db *sqlite.DB, pts *points.Service, target int, reward int64) *ChallengeEngine {
	if target <= 0 {
		target = DefaultDailyTarget
	}
	if reward <= 0 {
		reward = DefaultChallengeReward
	}
	return &ChallengeEngine{db: db, points: pts, target: target, reward: reward}
}

// Today returns the current state of today's challenge.
func (e *ChallengeEngine) Today(userID string) (domain.DailyChallenge, error) {
	return e.TodayAt(userID, time.Now())
}

// TodayAt is Today with an explicit clock.
func (e *ChallengeEngine) TodayAt(userID string, now time.Time) (domain.DailyChallenge, error) {
	minutes, err := e.db.MinutesOnDay(userID, now)
	if err != nil {
		return domain.DailyChallenge{}, err
	}
	completed, err := e.db.HasChallengePoint(userID, now)
	if err != nil {
		return domain.DailyChallenge{}, err
	}
	return domain.DailyChallenge{
		Target:    e.target,
		Current:   minutes,
		Completed: completed,
		Reward:    e.reward,
	}, nil
}

// Claim grants today's reward once the target is met. At most one
// reward per user per calendar day: the grant is a single conditional
// insert, so the slower of two concurrent claims gets
// ErrChallengeClaimed instead of a second reward.
func (e *ChallengeEngine) Claim(userID string) error {
	return e.ClaimAt(userID, time.Now())
}

// ClaimAt is Claim with an explicit clock.
func (e *ChallengeEngine) ClaimAt(userID string, now time.Time) error {
	minutes, err := e.db.MinutesOnDay(userID, now)
	if err != nil {
		return err
	}
	if minutes < e.target {
		return domain.ErrChallengeIncomplete
	}

	granted, err := e.points.GrantOnce(userID, e.reward, domain.ChallengeReason,
		domain.DayKey(now), domain.RelatedChallenge, now)
	if err != nil {
		return err
	}
	if !granted {
		return domain.ErrChallengeClaimed
	}

	metrics.ChallengeClaims.Inc()
	return nil
}
