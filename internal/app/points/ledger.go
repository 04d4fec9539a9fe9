// Package points implements the append-only point ledger.
// Every grant inserts a ledger entry and bumps the cached
// UserStats.TotalPoints inside one transaction; the cached total and
// SUM(ledger) must never diverge.
package points

import (
	"fmt"
	"time"

	"github.com/readly-app/readly/internal/domain"
	"github.com/readly-app/readly/internal/infra/metrics"
	"github.com/readly-app/readly/internal/infra/sqlite"
)

// Service manages point grants and totals.
type Service struct {
	db *sqlite.DB
}

// NewService creates a points service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Grant appends a positive point grant. There are no negative grants in
// the rule set — awards are never clawed back.
func (s *Service) Grant(userID string, amount int64, reason, relatedID, relatedType string, at time.Time) error {
	inserted, err := s.GrantOnce(userID, amount, reason, relatedID, relatedType, at)
	if err != nil {
		return err
	}
	if !inserted {
		return fmt.Errorf("grant %q absorbed by uniqueness guard", reason)
	}
	return nil
}

// GrantOnce appends a grant that may be absorbed by a ledger uniqueness
// guard (one challenge reward per day, one bonus per level). Returns
// whether the grant landed.
func (s *Service) GrantOnce(userID string, amount int64, reason, relatedID, relatedType string, at time.Time) (bool, error) {
	if amount <= 0 {
		return false, domain.ErrNonPositiveGrant
	}

	inserted, err := s.db.InsertPoint(domain.Point{
		UserID:      userID,
		Amount:      amount,
		Reason:      reason,
		RelatedID:   relatedID,
		RelatedType: relatedType,
		Day:         domain.DayOf(at),
		CreatedAt:   at,
	})
	if err != nil {
		return false, fmt.Errorf("grant points: %w", err)
	}
	if inserted {
		metrics.PointsGranted.WithLabelValues(relatedType).Add(float64(amount))
	}
	return inserted, nil
}

// Total sums the ledger for a user.
func (s *Service) Total(userID string) (int64, error) {
	return s.db.PointTotal(userID)
}

// History returns recent ledger entries, newest first.
func (s *Service) History(userID string, limit int) ([]domain.Point, error) {
	return s.db.ListPoints(userID, limit)
}
