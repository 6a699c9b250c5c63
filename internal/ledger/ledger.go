package ledger

import (
	"database/sql"

	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
)

// Ledger owns every mutation of coin balances. Balance rows are never written
// outside this package; all spends go through Send and all credits go through
// Send or the recharge run, each inside a single database transaction.
type Ledger struct {
	db     *sql.DB
	logger logging.Logger
}

// New creates a Ledger backed by the given database.
func New(db *sql.DB, logger logging.Logger) *Ledger {
	return &Ledger{
		db:     db,
		logger: logger,
	}
}
