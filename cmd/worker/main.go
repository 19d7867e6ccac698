package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/config"
	"github.com/DanielBelovol/ThumbnailTester/internal/crypto"
	"github.com/DanielBelovol/ThumbnailTester/internal/database"
	"github.com/DanielBelovol/ThumbnailTester/internal/events"
	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/media"
	"github.com/DanielBelovol/ThumbnailTester/internal/metrics"
	"github.com/DanielBelovol/ThumbnailTester/internal/orchestrator"
	"github.com/DanielBelovol/ThumbnailTester/internal/queue"
	"github.com/DanielBelovol/ThumbnailTester/internal/services/supabase"
	"github.com/DanielBelovol/ThumbnailTester/internal/services/youtube"
	"github.com/DanielBelovol/ThumbnailTester/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	cipher, err := crypto.New(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal("Failed to init token cipher:", err)
	}

	// Platform services
	oauth := youtube.NewOAuthService(cfg, logger)
	creds := youtube.NewCredentials(db.DB, oauth, cipher, logger)
	ytClient := youtube.NewClient(creds, logger)
	analytics := youtube.NewAnalytics(creds, logger)
	images := supabase.NewImageStore(cfg, logger)

	// Worker-run sessions publish events to Kafka only; the API process owns
	// the WebSocket hub.
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.TestEventsTopic, logger)
	defer publisher.Close()

	// Orchestrator
	mx := metrics.New()
	store := database.NewSessionStore(db.DB)
	orc := orchestrator.New(orchestrator.Config{
		MaxApplyAttempts:    cfg.MaxApplyAttempts,
		BackoffInitial:      time.Duration(cfg.BackoffInitialMSecs) * time.Millisecond,
		ConfirmPollInterval: time.Duration(cfg.ConfirmPollSeconds) * time.Second,
		ConfirmTimeout:      time.Duration(cfg.ConfirmTimeoutSecs) * time.Second,
	}, orchestrator.Deps{
		Queues:    queue.NewRegistry(),
		Applier:   ytClient,
		Collector: analytics,
		Images:    images,
		Validator: media.NewValidator(),
		Owners:    ytClient,
		Store:     store,
		Events:    events.Fanout{publisher},
		Metrics:   mx,
		Logger:    logger,
	})
	manager := orchestrator.NewManager(orc, logger)

	// Expose Prometheus metrics
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", mx.Handler())
		addr := cfg.APIHost + ":" + cfg.EventsPort
		logger.Info("Serving metrics on " + addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Metrics server stopped: %v", err)
		}
	}()

	// Initialize worker
	w := worker.New(cfg, logger, store, manager)

	// Start worker
	logger.Info("Starting worker...")
	go w.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	w.Stop()
}
