package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rafaelfelix66/supernosso-coins/internal/ledger"
	bursarapi "github.com/rafaelfelix66/supernosso-coins/pkg/api/bursar"
	"github.com/rafaelfelix66/supernosso-coins/pkg/kafka"
	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
	"github.com/rafaelfelix66/supernosso-coins/pkg/middleware"
	"github.com/rafaelfelix66/supernosso-coins/pkg/models"
)

const rankingCacheTTL = 60 * time.Second

// respondLedgerError maps ledger sentinel errors to HTTP status codes.
func respondLedgerError(c middleware.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrInvalidAttribute),
		errors.Is(err, ledger.ErrInvalidDimension):
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, bursarapi.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrDuplicateName):
		c.JSON(http.StatusConflict, bursarapi.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, bursarapi.ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error("Ledger operation failed")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "internal error"})
	}
}

// GetBalance returns the authenticated user's coin balance
func GetBalance(c middleware.Context) {
	userID := c.GetString("user_id")

	balance, err := coinLedger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// SendCoins transfers coins from the authenticated user to another user
func SendCoins(c middleware.Context) {
	fromUser := c.GetString("user_id")

	var req bursarapi.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "to_user and attribute_id are required"})
		return
	}

	txn, newBalance, err := coinLedger.Send(c.Request.Context(), fromUser, req.ToUser, req.AttributeID, req.Message)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	if metrics != nil {
		metrics.Transfers.WithLabelValues("success").Inc()
	}
	invalidateRankingCache(c.Request.Context())

	attr, attrErr := coinLedger.GetAttribute(c.Request.Context(), txn.AttributeID)
	go func() {
		publishTransferEvent(txn)
		if attrErr == nil {
			notifier.NotifyCoinsReceived(txn, attr.Name)
		}
	}()

	c.JSON(http.StatusCreated, bursarapi.SendResponse{
		Transaction: *txn,
		NewBalance:  newBalance,
	})
}

// GetHistory returns the authenticated user's transfer history
func GetHistory(c middleware.Context) {
	userID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	transactions, err := coinLedger.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, bursarapi.HistoryResponse{
		UserID:       userID,
		Transactions: transactions,
	})
}

// GetRanking returns the sent or received leaderboard, cached briefly in
// Redis when a client is configured.
func GetRanking(c middleware.Context) {
	by := c.DefaultQuery("by", ledger.RankByReceived)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	cacheKey := "bursar:ranking:" + by + ":" + strconv.Itoa(limit)
	if cache != nil {
		if cached, err := cache.Get(c.Request.Context(), cacheKey).Bytes(); err == nil {
			var resp bursarapi.RankingResponse
			if json.Unmarshal(cached, &resp) == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	entries, err := coinLedger.RankUsers(c.Request.Context(), by, limit)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	resp := bursarapi.RankingResponse{By: by, Entries: entries}
	if cache != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := cache.Set(c.Request.Context(), cacheKey, payload, rankingCacheTTL).Err(); err != nil {
				logger.WithError(err).Debug("Failed to cache ranking")
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

func invalidateRankingCache(ctx context.Context) {
	if cache == nil {
		return
	}
	keys, err := cache.Keys(ctx, "bursar:ranking:*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := cache.Del(ctx, keys...).Err(); err != nil {
		logger.WithError(err).Debug("Failed to invalidate ranking cache")
	}
}

func publishTransferEvent(txn *models.Transaction) {
	if producer == nil {
		return
	}
	err := producer.PublishEvent(&kafka.CoinEvent{
		EventID:   uuid.New().String(),
		EventType: kafka.EventCoinsTransferred,
		Timestamp: time.Now(),
		Source:    "bursar",
		UserID:    txn.ToUser,
		Data: map[string]interface{}{
			"transaction_id": txn.ID,
			"from_user":      txn.FromUser,
			"to_user":        txn.ToUser,
			"amount":         txn.Amount,
			"attribute_id":   txn.AttributeID,
		},
		SchemaVersion: "1.0",
	})
	if err != nil {
		logger.WithError(err).WithFields(logging.Fields{
			"transaction_id": txn.ID,
		}).Warn("Failed to publish transfer event")
	}
}
