package ledger

import (
	"context"
	"fmt"

	"github.com/rafaelfelix66/supernosso-coins/pkg/models"
)

// GetBalance returns the balance row for a user, creating a zero-valued row
// on first reference. Every authenticated user has a balance; absence just
// means nobody has touched it yet.
func (l *Ledger) GetBalance(ctx context.Context, userID string) (*models.Balance, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO bursar.coin_balances (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure balance row: %w", err)
	}

	var b models.Balance
	err = l.db.QueryRowContext(ctx, `
		SELECT user_id, balance, total_received, total_given, last_recharge, created_at, updated_at
		FROM bursar.coin_balances
		WHERE user_id = $1
	`, userID).Scan(&b.UserID, &b.Balance, &b.TotalReceived, &b.TotalGiven, &b.LastRecharge, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	return &b, nil
}
