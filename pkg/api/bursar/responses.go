package bursar

import "github.com/rafaelfelix66/supernosso-coins/pkg/models"

// ErrorResponse represents a standard error response from Bursar
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendRequest represents a transfer request
type SendRequest struct {
	ToUser      string `json:"to_user" binding:"required"`
	AttributeID string `json:"attribute_id" binding:"required"`
	Message     string `json:"message"`
}

// SendResponse represents a committed transfer
type SendResponse struct {
	Transaction models.Transaction `json:"transaction"`
	NewBalance  int64              `json:"new_balance"`
}

// ListAttributesResponse represents the attribute catalog
type ListAttributesResponse struct {
	Attributes []models.Attribute `json:"attributes"`
	Count      int                `json:"count"`
}

// CreateAttributeRequest represents an attribute creation request
type CreateAttributeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Cost        int64  `json:"cost" binding:"required,min=1"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// UpdateAttributeRequest represents a partial attribute update. Nil fields
// are left unchanged.
type UpdateAttributeRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Cost        *int64  `json:"cost,omitempty"`
	Active      *bool   `json:"active,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// DeleteAttributeResponse reports whether the attribute was removed or, when
// ledger entries still reference it, deactivated instead.
type DeleteAttributeResponse struct {
	Outcome string `json:"outcome"` // "deleted" or "deactivated"
}

// UpdatePolicyRequest represents a partial recharge-policy update
type UpdatePolicyRequest struct {
	MonthlyAmount *int64  `json:"monthly_amount,omitempty"`
	RechargeDay   *int    `json:"recharge_day,omitempty"`
	RechargeMode  *string `json:"recharge_mode,omitempty"`
}

// RankingResponse represents the sent/received leaderboard
type RankingResponse struct {
	By      string                `json:"by"`
	Entries []models.RankingEntry `json:"entries"`
}

// HistoryResponse represents a user's transfer history
type HistoryResponse struct {
	UserID       string               `json:"user_id"`
	Transactions []models.Transaction `json:"transactions"`
}

// RechargeRunResponse reports the outcome of a forced recharge run
type RechargeRunResponse struct {
	Result models.RechargeResult `json:"result"`
}
