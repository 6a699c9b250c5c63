package kafka

import (
	"time"
)

// Coin event types published to the intranet timeline/analytics pipeline.
const (
	EventCoinsTransferred = "coins.transferred"
	EventCoinsRecharged   = "coins.recharged"
)

// CoinEvent represents a single ledger event
type CoinEvent struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	Source        string                 `json:"source"`
	UserID        string                 `json:"user_id,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	SchemaVersion string                 `json:"schema_version"`
}
