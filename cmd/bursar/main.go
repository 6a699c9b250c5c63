package main

import (
	"context"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rafaelfelix66/supernosso-coins/internal/handlers"
	"github.com/rafaelfelix66/supernosso-coins/pkg/auth"
	"github.com/rafaelfelix66/supernosso-coins/pkg/config"
	"github.com/rafaelfelix66/supernosso-coins/pkg/database"
	"github.com/rafaelfelix66/supernosso-coins/pkg/kafka"
	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
	"github.com/rafaelfelix66/supernosso-coins/pkg/middleware"
	"github.com/rafaelfelix66/supernosso-coins/pkg/monitoring"
	"github.com/rafaelfelix66/supernosso-coins/pkg/redis"
	"github.com/rafaelfelix66/supernosso-coins/pkg/server"
	"github.com/rafaelfelix66/supernosso-coins/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("bursar")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Bursar (Coin Ledger API)")

	dbURL := config.RequireEnv("DATABASE_URL")
	jwtSecret := config.RequireEnv("JWT_SECRET")
	serviceToken := config.RequireEnv("SERVICE_TOKEN")

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.ApplySchema(ctx, db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to apply database schema")
	}

	// Optional Kafka producer for coin events
	var producer *kafka.Producer
	if brokersEnv := config.GetEnv("KAFKA_BROKERS", ""); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		clientID := config.GetEnv("KAFKA_CLIENT_ID", "bursar")
		topic := config.GetEnv("COIN_EVENTS_TOPIC", "coins.events")
		p, err := kafka.NewProducer(brokers, clientID, topic, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to create Kafka producer, coin events disabled")
		} else {
			producer = p
			defer producer.Close()
		}
	}

	// Optional Redis client for ranking caching
	var redisClient *goredis.Client
	if redisURL := config.GetEnv("REDIS_URL", ""); redisURL != "" {
		rc, err := redis.NewClientFromURL(ctx, redisURL)
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis, ranking cache disabled")
		} else {
			redisClient = rc
			defer redisClient.Close()
		}
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("bursar", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("bursar", version.Version, version.GitCommit)

	// Add health checks
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbURL,
		"JWT_SECRET":   jwtSecret,
	}))
	if producer != nil {
		healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(producer.GetClient()))
	}
	if redisClient != nil {
		healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(redisClient))
	}

	// Create custom coin metrics
	metrics := &handlers.BursarMetrics{
		Transfers:      metricsCollector.NewCounter("coin_transfers_total", "Coin transfers committed", []string{"status"}),
		RechargeRuns:   metricsCollector.NewCounter("recharge_runs_total", "Recharge runs executed", []string{"trigger"}),
		RechargedUsers: metricsCollector.NewCounter("recharged_users_total", "Users credited by recharge runs", []string{"trigger"}),
	}

	// Create database metrics
	metrics.DBQueries, metrics.DBDuration, metrics.DBConnections = metricsCollector.CreateDatabaseMetrics()

	// Initialize handlers
	handlers.Init(db, logger, metrics, producer, redisClient)

	// Initialize and start JobManager for the recharge scheduler
	jobManager := handlers.NewJobManager(db, logger)
	jobManager.Start(ctx)
	defer jobManager.Stop()

	logger.Info("JobManager started - recharge scheduler active")

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "bursar", healthChecker, metricsCollector)

	// API routes (root level - nginx adds /api/coins/ prefix)
	{
		// Authentication required endpoints
		protected := router.Group("")
		protected.Use(auth.JWTAuthMiddleware([]byte(jwtSecret)))
		{
			protected.GET("/coins/balance", handlers.GetBalance)
			protected.POST("/coins/send", handlers.SendCoins)
			protected.GET("/coins/history", handlers.GetHistory)
			protected.GET("/coins/ranking", handlers.GetRanking)
			protected.GET("/coins/attributes", handlers.ListAttributes)

			// Catalog and policy management (admin only)
			admin := protected.Group("")
			admin.Use(middleware.RequireRole("admin"))
			{
				admin.POST("/coins/attributes", handlers.CreateAttribute)
				admin.PUT("/coins/attributes/:id", handlers.UpdateAttribute)
				admin.DELETE("/coins/attributes/:id", handlers.DeleteAttribute)
				admin.GET("/coins/policy", handlers.GetPolicy)
				admin.PUT("/coins/policy", handlers.UpdatePolicy)
				admin.POST("/coins/recharge", handlers.TriggerRecharge)
			}
		}

		// Service-to-service endpoints
		serviceAPI := router.Group("")
		serviceAPI.Use(auth.ServiceAuthMiddleware(serviceToken))
		{
			serviceAPI.POST("/internal/recharge", handlers.TriggerRecharge)
		}
	}

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("bursar", "18010")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
