package ledger

import (
	"context"
	"fmt"

	"github.com/rafaelfelix66/supernosso-coins/pkg/models"
)

// Ranking dimensions.
const (
	RankBySent     = "sent"
	RankByReceived = "received"
)

// RankUsers returns the leaderboard over lifetime totals. Totals come from
// the balance counters maintained by Send, so the query stays cheap no matter
// how long the ledger grows.
func (l *Ledger) RankUsers(ctx context.Context, by string, limit int) ([]models.RankingEntry, error) {
	var column string
	switch by {
	case RankBySent:
		column = "total_given"
	case RankByReceived:
		column = "total_received"
	default:
		return nil, fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidDimension, by, RankBySent, RankByReceived)
	}

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT user_id, `+column+` AS total
		FROM bursar.coin_balances
		WHERE `+column+` > 0
		ORDER BY total DESC, user_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	defer rows.Close()

	entries := []models.RankingEntry{}
	for rows.Next() {
		var e models.RankingEntry
		if err := rows.Scan(&e.UserID, &e.Total); err != nil {
			return nil, fmt.Errorf("failed to scan ranking entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
