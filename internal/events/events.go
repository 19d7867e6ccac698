package events

import (
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/models"
)

// Topics mirror the WebSocket destinations the frontend subscribes to.
const (
	TopicProgress = "test/progress"
	TopicSuccess  = "test/success"
	TopicError    = "test/error"
	TopicFinal    = "test/final"
)

// Message is the envelope for every test lifecycle notification, regardless
// of transport.
type Message struct {
	Topic     string      `json:"topic"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorPayload carries a sessionError event.
type ErrorPayload struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Sink is the local mirror of the orchestrator's event contract so fan-out
// can compose transports without an import cycle.
type Sink interface {
	Progress(sessionID string, variant *models.Variant)
	Success(sessionID string, variant *models.Variant)
	SessionError(sessionID, kind, detail string)
	Final(sessionID string, variants []models.Variant)
}

// Fanout forwards every event to all underlying sinks.
type Fanout []Sink

func (f Fanout) Progress(sessionID string, variant *models.Variant) {
	for _, s := range f {
		s.Progress(sessionID, variant)
	}
}

func (f Fanout) Success(sessionID string, variant *models.Variant) {
	for _, s := range f {
		s.Success(sessionID, variant)
	}
}

func (f Fanout) SessionError(sessionID, kind, detail string) {
	for _, s := range f {
		s.SessionError(sessionID, kind, detail)
	}
}

func (f Fanout) Final(sessionID string, variants []models.Variant) {
	for _, s := range f {
		s.Final(sessionID, variants)
	}
}
