package main

import (
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"glasshouse/server/config"
	"glasshouse/server/internal/alerts"
	"glasshouse/server/internal/api"
	"glasshouse/server/internal/database"
	"glasshouse/server/internal/importer"
	"glasshouse/server/internal/processor"
	"glasshouse/server/internal/queue"
	"glasshouse/server/internal/report"
	"glasshouse/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	metricsCfg, err := config.LoadMetricsConfig(cfg.Server.MetricsConfigPath)
	if err != nil {
		logger.WithError(err).Fatal("Invalid metrics configuration")
	}
	metricsCfg = config.ApplyOverrides(metricsCfg, cfg)

	dbPath := cfg.Server.DBPath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create database directory")
	}
	logger.Infof("Using database at: %s", dbPath)

	// Initialize database
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// The batch-write path shares the same file through gorm
	gormDB, err := database.OpenGorm(dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open gorm database")
	}

	// Record ingestion: importer -> queue -> batch processor
	recordQueue := queue.NewRecordQueue(cfg.BatchProcessing.MaxBatchSize, logger)
	batchProcessor := processor.NewBatchProcessor(gormDB, recordQueue, cfg, logger)
	batchProcessor.Start()
	recordQueue.Start()
	defer func() {
		recordQueue.Close()
		batchProcessor.Stop()
	}()

	csvImporter := importer.NewImporter(recordQueue, logger)

	// Report pipeline with Telegram alerts
	notifier := alerts.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	if notifier.Enabled() {
		logger.Info("Telegram alert notifications enabled")
	}

	reports, err := report.NewService(db, metricsCfg, notifier, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize report service")
	}

	// Daily snapshot job
	sched := scheduler.NewScheduler(reports, logger)
	if err := sched.Start(cfg.Server.SnapshotSchedule); err != nil {
		logger.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	// HTTP API
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	api.SetupRoutes(router, reports, csvImporter, logger)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
