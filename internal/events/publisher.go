// Package events publishes loan state changes.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes each event within timeout, so a slow or absent
// broker delays a request by at most that long.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewKafkaPublisher(writer MessageWriter, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, timeout: timeout}
}

// NewKafkaWriter builds the writer for the state topic, keyed by request id.
// Events are written one at a time, so batches flush almost immediately.
func NewKafkaWriter(brokers, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           5 * time.Millisecond,
		MaxAttempts:            3,
		WriteTimeout:           time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func (p *KafkaPublisher) PublishStateChange(ctx context.Context, event models.LoanStateEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RequestID),
		Value: value,
	}); err != nil {
		return err
	}

	telemetry.Logger.Info("Loan state published",
		zap.String("request_id", event.RequestID),
		zap.String("from_state", string(event.PreviousState)),
		zap.String("to_state", string(event.State)),
	)
	return nil
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishStateChange(context.Context, models.LoanStateEvent) error { return nil }
