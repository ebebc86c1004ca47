package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Event types published by the quiz service
const (
	EventAttemptStarted   = "attempt.started"
	EventAttemptCompleted = "attempt.completed"
	EventAttemptAbandoned = "attempt.abandoned"
	EventQuizPublished    = "quiz.published"
)

// Event is the envelope for all published domain events
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// AttemptCompletedEvent carries the final result of a submitted attempt
type AttemptCompletedEvent struct {
	AttemptID       uint    `json:"attempt_id"`
	QuizID          uint    `json:"quiz_id"`
	StudentID       string  `json:"student_id"`
	Score           float64 `json:"score"`
	PointsEarned    int     `json:"points_earned"`
	TotalPoints     int     `json:"total_points"`
	DurationSeconds int     `json:"duration_seconds"`
}

// AttemptStartedEvent is published when a student begins an attempt
type AttemptStartedEvent struct {
	AttemptID uint   `json:"attempt_id"`
	QuizID    uint   `json:"quiz_id"`
	StudentID string `json:"student_id"`
}

// AttemptAbandonedEvent is published when an in-progress attempt is discarded
type AttemptAbandonedEvent struct {
	AttemptID uint   `json:"attempt_id"`
	QuizID    uint   `json:"quiz_id"`
	StudentID string `json:"student_id"`
}

// QuizPublishedEvent is published when an instructor publishes a quiz
type QuizPublishedEvent struct {
	QuizID    uint   `json:"quiz_id"`
	CreatedBy string `json:"created_by"`
	Title     string `json:"title"`
}

// EventPublisher publishes domain events to the message broker
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close() error
}

// KafkaEventPublisher publishes events to Kafka through Watermill
type KafkaEventPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

// NewKafkaEventPublisher creates a Kafka-backed event publisher
func NewKafkaEventPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaEventPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}, nil
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", eventType)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish event",
			"error", err,
			"event_type", eventType,
			"event_id", event.ID)
		return fmt.Errorf("failed to publish event %s: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "Event published",
		"event_type", eventType,
		"event_id", event.ID,
		"topic", p.topic)

	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher collects events in memory for tests
type MockEventPublisher struct {
	mu     sync.Mutex
	events []Event
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (p *MockEventPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	return nil
}

func (p *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a copy of all published events
func (p *MockEventPublisher) GetPublishedEvents() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// ClearEvents discards all recorded events
func (p *MockEventPublisher) ClearEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// NoopEventPublisher swallows events when no broker is configured
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	return nil
}

func (NoopEventPublisher) Close() error { return nil }
