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

// Send transfers the attribute's cost from one user to another and records
// the transaction. The debit is conditional on sufficient funds inside the
// same statement, so two concurrent sends from one sender can never push the
// balance negative. Returns the committed transaction and the sender's new
// balance.
func (l *Ledger) Send(ctx context.Context, fromUser, toUser, attributeID, message string) (*models.Transaction, int64, error) {
	if fromUser == "" || toUser == "" {
		return nil, 0, fmt.Errorf("from_user and to_user are required")
	}
	if fromUser == toUser {
		return nil, 0, ErrSelfTransfer
	}

	attr, err := l.GetAttribute(ctx, attributeID)
	if errors.Is(err, ErrNotFound) {
		return nil, 0, ErrInvalidAttribute
	}
	if err != nil {
		return nil, 0, err
	}
	if !attr.Active {
		return nil, 0, ErrInvalidAttribute
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is best-effort

	// Conditional debit. A sender with no balance row has nothing to spend,
	// so no row matching is the same as insufficient funds.
	var newBalance int64
	err = tx.QueryRowContext(ctx, `
		UPDATE bursar.coin_balances
		SET balance = balance - $1, total_given = total_given + $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
		RETURNING balance
	`, attr.Cost, fromUser).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrInsufficientFunds
	}
	if err != nil {
		l.logger.WithError(err).Error("Failed to debit sender")
		return nil, 0, fmt.Errorf("failed to debit sender: %w", err)
	}

	// Credit the recipient, creating the row on first contact.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO bursar.coin_balances (user_id, balance, total_received)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = bursar.coin_balances.balance + $2,
		    total_received = bursar.coin_balances.total_received + $2,
		    updated_at = NOW()
	`, toUser, attr.Cost)
	if err != nil {
		l.logger.WithError(err).Error("Failed to credit recipient")
		return nil, 0, fmt.Errorf("failed to credit recipient: %w", err)
	}

	txn := &models.Transaction{
		ID:          uuid.New().String(),
		FromUser:    fromUser,
		ToUser:      toUser,
		Amount:      attr.Cost,
		AttributeID: attr.ID,
		Message:     message,
		CreatedAt:   time.Now(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bursar.coin_transactions (id, from_user, to_user, amount, attribute_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, txn.ID, txn.FromUser, txn.ToUser, txn.Amount, txn.AttributeID, txn.Message, txn.CreatedAt)
	if err != nil {
		l.logger.WithError(err).Error("Failed to record transaction")
		return nil, 0, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transfer: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"transaction_id": txn.ID,
		"from_user":      fromUser,
		"to_user":        toUser,
		"attribute":      attr.Name,
		"amount":         attr.Cost,
	}).Info("Coins transferred")

	return txn, newBalance, nil
}

// History returns a user's transfers, sent and received, newest first.
func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, from_user, to_user, amount, attribute_id, message, created_at
		FROM bursar.coin_transactions
		WHERE from_user = $1 OR to_user = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.FromUser, &t.ToUser, &t.Amount, &t.AttributeID, &t.Message, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
