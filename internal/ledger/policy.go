package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
	"github.com/rafaelfelix66/supernosso-coins/pkg/models"
)

const defaultMonthlyAmount = 100

const policyColumns = "id, monthly_amount, recharge_day, recharge_mode, active, created_at, updated_at"

func scanPolicy(row interface{ Scan(...interface{}) error }) (*models.RechargePolicy, error) {
	var p models.RechargePolicy
	err := row.Scan(&p.ID, &p.MonthlyAmount, &p.RechargeDay, &p.RechargeMode, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPolicy returns the active recharge policy, creating the default one on
// first access. There is at most one active policy; the partial unique index
// on recharge_policies enforces it.
func (l *Ledger) GetPolicy(ctx context.Context) (*models.RechargePolicy, error) {
	row := l.db.QueryRowContext(ctx,
		"SELECT "+policyColumns+" FROM bursar.recharge_policies WHERE active")
	p, err := scanPolicy(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read recharge policy: %w", err)
	}

	p = &models.RechargePolicy{
		ID:            uuid.New().String(),
		MonthlyAmount: defaultMonthlyAmount,
		RechargeDay:   1,
		RechargeMode:  models.RechargeModeFixed,
		Active:        true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO bursar.recharge_policies (id, monthly_amount, recharge_day, recharge_mode, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`, p.ID, p.MonthlyAmount, p.RechargeDay, p.RechargeMode, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create default recharge policy: %w", err)
	}

	// A concurrent caller may have created it first; re-read either way.
	row = l.db.QueryRowContext(ctx,
		"SELECT "+policyColumns+" FROM bursar.recharge_policies WHERE active")
	p, err = scanPolicy(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read recharge policy: %w", err)
	}
	return p, nil
}

// UpdatePolicy applies a partial update to the active policy. Nil fields are
// untouched. Changes take effect on the next recharge run.
func (l *Ledger) UpdatePolicy(ctx context.Context, monthlyAmount *int64, rechargeDay *int, rechargeMode *string) (*models.RechargePolicy, error) {
	if monthlyAmount != nil && *monthlyAmount < 0 {
		return nil, fmt.Errorf("monthly_amount cannot be negative")
	}
	if rechargeDay != nil && (*rechargeDay < 1 || *rechargeDay > 28) {
		return nil, fmt.Errorf("recharge_day must be between 1 and 28")
	}
	if rechargeMode != nil && *rechargeMode != models.RechargeModeFixed && *rechargeMode != models.RechargeModeComplement {
		return nil, fmt.Errorf("recharge_mode must be %q or %q", models.RechargeModeFixed, models.RechargeModeComplement)
	}

	// Make sure the singleton exists before updating it.
	if _, err := l.GetPolicy(ctx); err != nil {
		return nil, err
	}

	row := l.db.QueryRowContext(ctx, `
		UPDATE bursar.recharge_policies
		SET monthly_amount = COALESCE($1, monthly_amount),
		    recharge_day = COALESCE($2, recharge_day),
		    recharge_mode = COALESCE($3, recharge_mode),
		    updated_at = NOW()
		WHERE active
		RETURNING `+policyColumns, monthlyAmount, rechargeDay, rechargeMode)

	p, err := scanPolicy(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update recharge policy: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"monthly_amount": p.MonthlyAmount,
		"recharge_day":   p.RechargeDay,
		"recharge_mode":  p.RechargeMode,
	}).Info("Recharge policy updated")

	return p, nil
}
