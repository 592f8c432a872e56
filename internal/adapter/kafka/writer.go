package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces prediction events to a Kafka topic.
// It implements recommend.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates an asynchronous Kafka producer for topic. Publish
// never blocks on the broker; delivery failures are logged when the batch
// completes.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	p := &Publisher{logger: logger}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   p.completion,
	}
	return p
}

// Publish serializes the event and hands it to the writer.
func (p *Publisher) Publish(ctx context.Context, event domain.PredictionEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) completion(messages []kafkago.Message, err error) {
	if err != nil {
		p.logger.Error("prediction events not delivered", "count", len(messages), "error", err)
		return
	}
	p.logger.Debug("prediction events delivered", "count", len(messages))
}

// serializeToMessage marshals a PredictionEvent into a Kafka message keyed
// by district so events for one district stay ordered.
func serializeToMessage(event domain.PredictionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.DistrictKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "district", Value: []byte(event.District)},
			{Key: "predicted_at", Value: []byte(event.PredictedAt.Format(time.RFC3339))},
		},
	}, nil
}
