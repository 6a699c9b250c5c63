package ledger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
	"github.com/rafaelfelix66/supernosso-coins/pkg/models"
)

// rechargeConcurrency bounds the fan-out of per-user recharge updates.
const rechargeConcurrency = 8

// Run executes a recharge over every known balance row using the active
// policy. Each user is handled by one atomic UPDATE whose WHERE clause both
// selects the mode target and rejects users already recharged in now's
// calendar month, so concurrent or repeated runs credit nobody twice. Per-user
// failures are logged and counted without aborting the run.
func (l *Ledger) Run(ctx context.Context, now time.Time) (*models.RechargeResult, error) {
	policy, err := l.GetPolicy(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `SELECT user_id FROM bursar.coin_balances ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}

	userIDs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user_id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var recharged, skipped, failed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rechargeConcurrency)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			ok, err := l.rechargeUser(gctx, userID, policy, now)
			switch {
			case err != nil:
				atomic.AddInt64(&failed, 1)
				l.logger.WithError(err).WithField("user_id", userID).Error("Failed to recharge user")
			case ok:
				atomic.AddInt64(&recharged, 1)
			default:
				atomic.AddInt64(&skipped, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.RechargeResult{
		Recharged: int(recharged),
		Skipped:   int(skipped),
		Failed:    int(failed),
	}

	l.logger.WithFields(logging.Fields{
		"recharged": result.Recharged,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
		"mode":      policy.RechargeMode,
		"amount":    policy.MonthlyAmount,
	}).Info("Recharge run completed")

	return result, nil
}

// rechargeUser credits one user if not yet recharged in now's month. Returns
// false when the month guard skipped the row.
func (l *Ledger) rechargeUser(ctx context.Context, userID string, policy *models.RechargePolicy, now time.Time) (bool, error) {
	// A zero-amount policy credits nothing. Skip without touching
	// last_recharge so restoring the amount later in the month still
	// recharges everyone.
	if policy.MonthlyAmount == 0 {
		return false, nil
	}

	var query string
	switch policy.RechargeMode {
	case models.RechargeModeComplement:
		// Top up to the monthly amount. At or above the target nothing is
		// written, so the row stays eligible for a later top-up this month
		// if the user spends back below the target.
		query = `
			UPDATE bursar.coin_balances
			SET total_received = total_received + ($1 - balance),
			    balance = $1,
			    last_recharge = $2,
			    updated_at = NOW()
			WHERE user_id = $3
			  AND balance < $1
			  AND (last_recharge IS NULL OR last_recharge < date_trunc('month', $2::timestamptz))
		`
	default:
		query = `
			UPDATE bursar.coin_balances
			SET balance = balance + $1,
			    total_received = total_received + $1,
			    last_recharge = $2,
			    updated_at = NOW()
			WHERE user_id = $3
			  AND (last_recharge IS NULL OR last_recharge < date_trunc('month', $2::timestamptz))
		`
	}

	res, err := l.db.ExecContext(ctx, query, policy.MonthlyAmount, now, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RunIfDue runs a recharge only when the active policy's recharge day has
// arrived in now's month. Using >= rather than == lets a restart on a later
// day catch up on a missed run; the month guard keeps the catch-up from
// double-crediting anyone.
func (l *Ledger) RunIfDue(ctx context.Context, now time.Time) (*models.RechargeResult, bool, error) {
	policy, err := l.GetPolicy(ctx)
	if err != nil {
		return nil, false, err
	}
	if now.Day() < policy.RechargeDay {
		return nil, false, nil
	}
	result, err := l.Run(ctx, now)
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}
