package models

import "time"

// Recharge modes. Fixed always adds the full monthly amount; complement tops
// the balance up to the monthly amount and is a no-op at or above it.
const (
	RechargeModeFixed      = "fixed"
	RechargeModeComplement = "complement"
)

// Balance represents one user's spendable coins plus lifetime counters.
// The balance column is only ever mutated by the transfer engine and the
// recharge job, never written directly by a handler.
type Balance struct {
	UserID        string     `json:"user_id" db:"user_id"`
	Balance       int64      `json:"balance" db:"balance"`
	TotalReceived int64      `json:"total_received" db:"total_received"`
	TotalGiven    int64      `json:"total_given" db:"total_given"`
	LastRecharge  *time.Time `json:"last_recharge,omitempty" db:"last_recharge"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Attribute is a named, priced recognition type used as the reason for a
// transfer. Deactivated attributes remain resolvable for historical reads.
type Attribute struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Cost        int64     `json:"cost" db:"cost"`
	Active      bool      `json:"active" db:"active"`
	Icon        string    `json:"icon" db:"icon"`
	Color       string    `json:"color" db:"color"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction is one committed transfer. Rows are append-only; the ledger is
// the audit trail and the source of truth for who gave what to whom.
type Transaction struct {
	ID          string    `json:"id" db:"id"`
	FromUser    string    `json:"from_user" db:"from_user"`
	ToUser      string    `json:"to_user" db:"to_user"`
	Amount      int64     `json:"amount" db:"amount"`
	AttributeID string    `json:"attribute_id" db:"attribute_id"`
	Message     string    `json:"message" db:"message"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RechargePolicy is the singleton monthly-recharge configuration.
type RechargePolicy struct {
	ID            string    `json:"id" db:"id"`
	MonthlyAmount int64     `json:"monthly_amount" db:"monthly_amount"`
	RechargeDay   int       `json:"recharge_day" db:"recharge_day"`
	RechargeMode  string    `json:"recharge_mode" db:"recharge_mode"`
	Active        bool      `json:"active" db:"active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// RankingEntry is one row of the sent/received leaderboard.
type RankingEntry struct {
	UserID string `json:"user_id" db:"user_id"`
	Total  int64  `json:"total" db:"total"`
}

// RechargeResult summarizes one recharge run across all users.
type RechargeResult struct {
	Recharged int `json:"recharged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
