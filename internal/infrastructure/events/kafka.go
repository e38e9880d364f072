package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/parentrebuild/backend/internal/domain"
)

// DefaultTopic receives one message per finished phase
const DefaultTopic = "parent-rebuild-phases"

// messageWriter is the part of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes phase events keyed by run ID
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	log.Printf("[EVENTS] Publishing phase events to %s on %v", topic, brokers)
	return &KafkaPublisher{writer: writer, topic: topic}
}

// PublishPhase writes event as JSON. Messages of one run share a partition.
func (p *KafkaPublisher) PublishPhase(ctx context.Context, event domain.PhaseEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode phase event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RunID),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "phase", Value: []byte(event.Phase)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event for run %s: %w", event.Phase, event.RunID, err)
	}
	return nil
}

// Close flushes pending messages
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher writes phase events to the log. Used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) PublishPhase(ctx context.Context, event domain.PhaseEvent) error {
	log.Printf("[EVENTS] run=%s phase=%s feed=%s status=%s elapsed=%s",
		event.RunID, event.Phase, event.FeedID, event.Status, event.Elapsed)
	return nil
}
