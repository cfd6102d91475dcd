// Package events publishes credential lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"vcdemo/internal/platform/kafka/producer"
)

// Type names a lifecycle event.
type Type string

const (
	CredentialIssued    Type = "credential.issued"
	CredentialRevoked   Type = "credential.revoked"
	CredentialDisclosed Type = "credential.disclosed"
)

// Event is the published payload. Attributes never carry personal data.
type Event struct {
	Type         Type              `json:"type"`
	CredentialID string            `json:"credentialId"`
	OccurredAt   time.Time         `json:"occurredAt"`
	RequestID    string            `json:"requestId,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// Publisher delivers lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Producer is the Kafka capability the publisher needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes events as JSON keyed by credentialId.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

// NewKafkaPublisher constructs a publisher writing to topic.
func NewKafkaPublisher(p Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.producer.Produce(ctx, &producer.Message{
		Topic: p.topic,
		Key:   []byte(event.CredentialID),
		Value: value,
		Headers: map[string]string{
			"event-type": string(event.Type),
		},
	})
}

// LogPublisher records events in the structured log only.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a log-only publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	attrs := []any{
		"event_type", string(event.Type),
		"credential_id", event.CredentialID,
		"occurred_at", event.OccurredAt,
	}
	if event.RequestID != "" {
		attrs = append(attrs, "request_id", event.RequestID)
	}
	for k, v := range event.Attributes {
		attrs = append(attrs, k, v)
	}
	p.logger.InfoContext(ctx, "lifecycle event", attrs...)
	return nil
}
