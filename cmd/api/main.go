package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/api"
	"github.com/DanielBelovol/ThumbnailTester/internal/api/handlers"
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

	"github.com/rs/cors"
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

	// Event fan-out: WebSocket hub for the frontend, Kafka for other services
	hub := events.NewHub(logger)
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
		Events:    events.Fanout{hub, publisher},
		Metrics:   mx,
		Logger:    logger,
	})
	manager := orchestrator.NewManager(orc, logger)

	// Secondary server: WebSocket events and Prometheus metrics
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		mux.Handle("/metrics", mx.Handler())

		handler := cors.New(cors.Options{
			AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
			AllowedMethods: []string{"GET"},
		}).Handler(mux)

		addr := cfg.APIHost + ":" + cfg.EventsPort
		logger.Info("Starting events server on " + addr)
		if err := http.ListenAndServe(addr, handler); err != nil {
			logger.Error("Events server stopped: %v", err)
		}
	}()

	// Initialize API server
	server := api.New(cfg, logger, api.Deps{
		Tests: handlers.NewTestHandler(store, images, media.NewValidator(), manager, logger),
		Auth:  handlers.NewAuthHandler(oauth, ytClient, cipher, database.NewUserStore(db.DB), logger),
	})

	// Start server
	logger.Info("Starting API server on port " + cfg.APIPort)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server:", err)
	}
}
