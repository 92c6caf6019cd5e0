package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/aqi-monitor/internal/config"
	"github.com/couchcryptid/aqi-monitor/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces readings to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured readings topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes a reading and publishes it keyed by sensor ID, so every
// reading from one sensor lands on the same partition.
func (w *Writer) Load(ctx context.Context, reading domain.Reading) error {
	msg, err := serializeToMessage(reading)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write reading %s: %w", reading.ID, err)
	}
	w.logger.Debug("reading produced", "reading_id", reading.ID, "sensor_id", reading.SensorID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage maps a reading onto a Kafka message with sorted headers.
func serializeToMessage(reading domain.Reading) (kafkago.Message, error) {
	out, err := domain.SerializeReading(reading)
	if err != nil {
		return kafkago.Message{}, err
	}

	keys := make([]string, 0, len(out.Headers))
	for k := range out.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(out.Headers[k])})
	}

	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
