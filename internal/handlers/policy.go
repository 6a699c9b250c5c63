package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	bursarapi "github.com/rafaelfelix66/supernosso-coins/pkg/api/bursar"
	"github.com/rafaelfelix66/supernosso-coins/pkg/kafka"
	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
	"github.com/rafaelfelix66/supernosso-coins/pkg/middleware"
	"github.com/rafaelfelix66/supernosso-coins/pkg/models"
)

// GetPolicy returns the active recharge policy (admin)
func GetPolicy(c middleware.Context) {
	policy, err := coinLedger.GetPolicy(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, policy)
}

// UpdatePolicy partially updates the recharge policy (admin)
func UpdatePolicy(c middleware.Context) {
	var req bursarapi.UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "invalid request body"})
		return
	}

	policy, err := coinLedger.UpdatePolicy(c.Request.Context(), req.MonthlyAmount, req.RechargeDay, req.RechargeMode)
	if err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: err.Error()})
		return
	}

	logger.WithField("updated_by", c.GetString("user_id")).Info("Recharge policy changed")
	c.JSON(http.StatusOK, policy)
}

// TriggerRecharge forces a recharge run immediately, ignoring the recharge
// day. The month guard still applies, so users already credited this month
// are skipped.
func TriggerRecharge(c middleware.Context) {
	result, err := coinLedger.Run(c.Request.Context(), time.Now())
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	recordRechargeRun(result, "manual")
	c.JSON(http.StatusOK, bursarapi.RechargeRunResponse{Result: *result})
}

func recordRechargeRun(result *models.RechargeResult, trigger string) {
	if metrics != nil {
		metrics.RechargeRuns.WithLabelValues(trigger).Inc()
		metrics.RechargedUsers.WithLabelValues(trigger).Add(float64(result.Recharged))
	}

	if producer == nil {
		return
	}
	err := producer.PublishEvent(&kafka.CoinEvent{
		EventID:   uuid.New().String(),
		EventType: kafka.EventCoinsRecharged,
		Timestamp: time.Now(),
		Source:    "bursar",
		Data: map[string]interface{}{
			"trigger":   trigger,
			"recharged": result.Recharged,
			"skipped":   result.Skipped,
			"failed":    result.Failed,
		},
		SchemaVersion: "1.0",
	})
	if err != nil {
		logger.WithError(err).WithFields(logging.Fields{
			"trigger": trigger,
		}).Warn("Failed to publish recharge event")
	}
}
