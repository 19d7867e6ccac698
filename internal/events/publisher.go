package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/models"

	"github.com/segmentio/kafka-go"
)

// Publisher mirrors test lifecycle events onto a Kafka topic so other
// services can consume them. Messages are keyed by session ID to keep one
// session's events in order.
type Publisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

func NewPublisher(brokers, topic string, log *logger.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{writer: writer, log: log}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) publish(msg Message) {
	value, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("Failed to marshal event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.SessionID),
		Value: value,
	}); err != nil {
		p.log.Error("Failed to publish event %s: %v", msg.Topic, err)
	}
}

func (p *Publisher) Progress(sessionID string, variant *models.Variant) {
	p.publish(Message{Topic: TopicProgress, SessionID: sessionID, Payload: variant, Timestamp: time.Now()})
}

func (p *Publisher) Success(sessionID string, variant *models.Variant) {
	p.publish(Message{Topic: TopicSuccess, SessionID: sessionID, Payload: variant, Timestamp: time.Now()})
}

func (p *Publisher) SessionError(sessionID, kind, detail string) {
	p.publish(Message{Topic: TopicError, SessionID: sessionID, Payload: ErrorPayload{Kind: kind, Detail: detail}, Timestamp: time.Now()})
}

func (p *Publisher) Final(sessionID string, variants []models.Variant) {
	p.publish(Message{Topic: TopicFinal, SessionID: sessionID, Payload: variants, Timestamp: time.Now()})
}
