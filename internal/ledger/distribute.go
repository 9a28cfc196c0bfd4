package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/buttoners/staffroom/internal/model"
)

// HoursEntry is one staff member's worked hours for the distribution
// period.
type HoursEntry struct {
	UID   string  `json:"uid"`
	Hours float64 `json:"hours"`
}

// Share is one user's computed allocation.
type Share struct {
	UID    string  `json:"uid"`
	Hours  float64 `json:"hours"`
	Amount int     `json:"amount"`
}

// PoolForHeadcount returns the monthly point pool for a roster of the
// given size. Outside the known bands there is no pool.
func PoolForHeadcount(n int) int {
	switch {
	case n >= 10 && n <= 13:
		return 220000
	case n >= 14 && n <= 17:
		return 280000
	case n >= 18 && n <= 22:
		return 330000
	case n == 23:
		return 380000
	default:
		return 0
	}
}

// ComputeShares splits the available pool (pool minus reserve)
// proportionally to hours worked, rounding each share down to the
// nearest 500. Entries with zero or negative hours get no share. The
// floor means the shares may sum to less than the available pool; the
// remainder stays unallocated.
func ComputeShares(entries []HoursEntry, pool, reserve int) ([]Share, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyRoster
	}

	available := pool - reserve
	if available < 0 {
		available = 0
	}

	totalHours := 0.0
	for _, e := range entries {
		if e.Hours > 0 {
			totalHours += e.Hours
		}
	}

	shares := make([]Share, 0, len(entries))
	for _, e := range entries {
		s := Share{UID: e.UID, Hours: e.Hours}
		if e.Hours > 0 && totalHours > 0 {
			raw := float64(available) * e.Hours / totalHours
			s.Amount = int(raw/500) * 500
		}
		shares = append(shares, s)
	}
	return shares, nil
}

// Distribute computes the monthly allocation for the roster and sets
// each participating user's balance to their share, logging one
// monthly-set transaction per user with the delta from their previous
// balance. Admin only. Users with no hours are skipped and keep their
// balance.
func (e *Engine) Distribute(ctx context.Context, actorRole string, entries []HoursEntry, reserve int) ([]Share, error) {
	if actorRole != model.RoleAdmin {
		return nil, ErrForbidden
	}

	pool := PoolForHeadcount(len(entries))
	shares, err := ComputeShares(entries, pool, reserve)
	if err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin distribute: %w", err)
	}
	defer tx.Rollback()

	for _, s := range shares {
		if s.Hours <= 0 {
			continue
		}
		user, err := getUserRow(ctx, tx, s.UID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, s.UID)
		}

		if err := setBalance(ctx, tx, s.UID, s.Amount); err != nil {
			return nil, err
		}

		if _, err := appendTransaction(ctx, tx, model.PointTransaction{
			UID:          s.UID,
			UserName:     user.name,
			UserNickname: user.nickname,
			Type:         model.TxMonthlySet,
			ItemsSummary: "monthly distribution",
			Amount:       s.Amount - user.points,
			Reason:       fmt.Sprintf("%.1fh of %s", s.Hours, time.Now().Format("2006-01")),
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit distribute: %w", err)
	}

	e.logger.Info("distribute", "roster", len(entries), "pool", pool, "reserve", reserve)
	return shares, nil
}
