package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/config"
	"github.com/DanielBelovol/ThumbnailTester/internal/database"
	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/models"
	"github.com/DanielBelovol/ThumbnailTester/internal/orchestrator"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// TestRequest is the message shape on the test-requests topic. Image variants
// reference objects already staged in the image store; raw bytes never go
// through Kafka.
type TestRequest struct {
	RequestID    string                 `json:"request_id"`
	UserID       string                 `json:"user_id"`
	VideoID      string                 `json:"video_id"`
	Mode         models.TestMode        `json:"mode"`
	DwellMinutes int                    `json:"dwell_minutes"`
	Criterion    models.WinnerCriterion `json:"criterion"`
	ImageRefs    []string               `json:"image_refs"`
	Texts        []string               `json:"texts"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Worker consumes test requests from Kafka and launches them on the
// orchestrator. It lets the API stay thin: anything that can produce to the
// topic can start a test.
type Worker struct {
	config  *config.Config
	logger  *logger.Logger
	reader  *kafka.Reader
	store   *database.SessionStore
	manager *orchestrator.Manager
}

func New(cfg *config.Config, logger *logger.Logger, store *database.SessionStore, manager *orchestrator.Manager) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.KafkaBrokers},
		GroupID:        "thumbnailtester-worker",
		Topic:          cfg.TestRequestsTopic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &Worker{
		config:  cfg,
		logger:  logger,
		reader:  reader,
		store:   store,
		manager: manager,
	}
}

func (w *Worker) Start() {
	w.logger.Info("Worker started, listening for test requests...")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		message, err := w.reader.ReadMessage(ctx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		var req TestRequest
		if err := json.Unmarshal(message.Value, &req); err != nil {
			w.logger.Error("Failed to parse test request: %v", err)
			continue
		}

		if err := w.process(req); err != nil {
			w.logger.Error("Failed to process test request %s: %v", req.RequestID, err)
			continue
		}
	}
}

func (w *Worker) process(req TestRequest) error {
	sess, err := models.NewTestSession(req.UserID, req.VideoID, req.Mode, req.DwellMinutes, req.Criterion, req.ImageRefs, req.Texts)
	if err != nil {
		return err
	}
	sess.ID = uuid.New().String()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	w.manager.Launch(sess)
	w.logger.Info("Launched session %s for video %s", sess.ID, sess.VideoID)
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
}
