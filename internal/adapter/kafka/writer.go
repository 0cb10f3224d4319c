package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/isossa/routematrix/internal/domain"
)

// Writer produces matrix-computed events to a Kafka topic.
// It implements service.MatrixPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the matrix events topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishMatrixComputed serializes and publishes one matrix-computed event.
func (w *Writer) PublishMatrixComputed(ctx context.Context, event domain.MatrixComputed) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a MatrixComputed event into a Kafka message.
// Each message gets a fresh UUID key so consumers can deduplicate retries.
func serializeToMessage(event domain.MatrixComputed) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize matrix event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(uuid.NewString()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "metric", Value: []byte(event.Metric)},
			{Key: "computed_at", Value: []byte(event.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
