package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rafaelfelix66/supernosso-coins/internal/ledger"
	"github.com/rafaelfelix66/supernosso-coins/pkg/config"
	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
)

// JobManager runs the background recharge scheduler. A daily cron tick asks
// the ledger whether the recharge day has arrived; the ledger's month guard
// makes repeated asks harmless. A catch-up check at startup covers the case
// where the service was down on the recharge day.
type JobManager struct {
	db       *sql.DB
	logger   logging.Logger
	ledger   *ledger.Ledger
	cron     *cron.Cron
	stopCh   chan struct{}
	schedule string
}

// NewJobManager creates a new job manager
func NewJobManager(database *sql.DB, log logging.Logger) *JobManager {
	return &JobManager{
		db:       database,
		logger:   log,
		ledger:   ledger.New(database, log),
		cron:     cron.New(),
		stopCh:   make(chan struct{}),
		schedule: config.GetEnv("RECHARGE_CRON", "0 6 * * *"),
	}
}

// Start begins all background jobs
func (jm *JobManager) Start(ctx context.Context) {
	jm.logger.Info("Starting bursar job manager")

	_, err := jm.cron.AddFunc(jm.schedule, func() {
		jm.runScheduledRecharge(ctx)
	})
	if err != nil {
		jm.logger.WithError(err).WithField("schedule", jm.schedule).Error("Invalid recharge cron expression")
		return
	}
	jm.cron.Start()

	// Catch up on a recharge missed while the service was down.
	go jm.runStartupCatchUp(ctx)
}

// Stop stops all background jobs
func (jm *JobManager) Stop() {
	jm.logger.Info("Stopping bursar job manager")
	jm.cron.Stop()
	close(jm.stopCh)
}

func (jm *JobManager) runStartupCatchUp(ctx context.Context) {
	// Give the schema apply and connection pool a moment to settle.
	select {
	case <-time.After(10 * time.Second):
	case <-ctx.Done():
		return
	case <-jm.stopCh:
		return
	}
	jm.runScheduledRecharge(ctx)
}

func (jm *JobManager) runScheduledRecharge(ctx context.Context) {
	result, ran, err := jm.ledger.RunIfDue(ctx, time.Now())
	if err != nil {
		jm.logger.WithError(err).Error("Scheduled recharge failed")
		return
	}
	if !ran {
		jm.logger.Debug("Recharge not due yet")
		return
	}

	recordRechargeRun(result, "scheduled")
}
