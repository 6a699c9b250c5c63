package handlers

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rafaelfelix66/supernosso-coins/internal/ledger"
	"github.com/rafaelfelix66/supernosso-coins/pkg/kafka"
	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
)

var (
	db         *sql.DB
	logger     logging.Logger
	coinLedger *ledger.Ledger
	metrics    *BursarMetrics
	producer   *kafka.Producer
	notifier   *NotificationService
	cache      *goredis.Client
)

// BursarMetrics holds all Prometheus metrics for Bursar
type BursarMetrics struct {
	Transfers      *prometheus.CounterVec
	RechargeRuns   *prometheus.CounterVec
	RechargedUsers *prometheus.CounterVec
	DBQueries      *prometheus.CounterVec
	DBDuration     *prometheus.HistogramVec
	DBConnections  *prometheus.GaugeVec
}

// Init initializes the handlers with database, logger, and optional clients.
// The Kafka producer and Redis client may be nil; coin transfers work without
// them, they just lose events and ranking caching.
func Init(database *sql.DB, log logging.Logger, bursarMetrics *BursarMetrics, kafkaProducer *kafka.Producer, redisClient *goredis.Client) {
	db = database
	logger = log
	coinLedger = ledger.New(database, log)
	metrics = bursarMetrics
	producer = kafkaProducer
	notifier = NewNotificationService(log)
	cache = redisClient
}
