// Package producer provides Kafka producer functionality for the alert.processed topic.
package producer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/comicrelief/loggly-slack-alerts/internal/events"
	kafkautil "github.com/comicrelief/loggly-slack-alerts/pkg/kafka"
)

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes AlertProcessed events keyed by alert name.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer with the specified brokers and topic.
func NewProducer(brokers string, topic string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)
	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
	)

	kafkautil.EnsureTopic(brokerList[0], topic)

	slog.Info("Kafka producer configured",
		"write_timeout", kafkautil.WriteTimeout,
		"required_acks", "RequireOne",
		"partition_key", "alert_name (hashed)",
	)

	return &Producer{
		writer: kafkautil.NewWriter(brokerList, topic),
		topic:  topic,
	}, nil
}

// Publish serializes an AlertProcessed event to JSON and writes it synchronously.
func (p *Producer) Publish(ctx context.Context, processed *events.AlertProcessed) error {
	msg, err := newMessage(processed)
	if err != nil {
		slog.Error("Failed to marshal alert processed event to JSON",
			"invocation_id", processed.InvocationID,
			"alert_name", processed.AlertName,
			"error", err,
		)
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write message to Kafka",
			"invocation_id", processed.InvocationID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	slog.Info("Published alert processed event",
		"invocation_id", processed.InvocationID,
		"alert_name", processed.AlertName,
		"records", len(processed.Records),
	)
	return nil
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	slog.Info("Kafka producer closed successfully")
	return nil
}

func newMessage(processed *events.AlertProcessed) (kafka.Message, error) {
	value, err := json.Marshal(processed)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal alert processed event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(processed.AlertName),
		Value: value,
		Headers: []kafka.Header{
			{Key: "schema_version", Value: []byte(strconv.Itoa(processed.SchemaVersion))},
			{Key: "invocation_id", Value: []byte(processed.InvocationID)},
		},
		Time: time.Unix(processed.ProcessedAt, 0),
	}, nil
}
