package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/config"
	"github.com/couchcryptid/crime-map-etl/internal/domain"
	"github.com/couchcryptid/crime-map-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Header keys set on every published map point.
const (
	HeaderOffenseType = "offense_type"
	HeaderProcessedAt = "processed_at"
	HeaderRunID       = "run_id"
)

// Writer produces map points to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Publish serializes every point and writes them in a single WriteMessages
// call. Points are keyed by offense ID so re-runs land on the same partition.
func (w *Writer) Publish(ctx context.Context, run domain.RunInfo, points []domain.MapPoint) error {
	if len(points) == 0 {
		return nil
	}
	processedAt := domain.Now()
	msgs := make([]kafkago.Message, len(points))
	for i := range points {
		msg, err := serializeToMessage(points[i], run, processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		w.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish map points: %w", err)
	}
	w.metrics.MessagesProduced.Add(float64(len(msgs)))
	w.logger.Info("map points published", "topic", w.writer.Topic, "count", len(msgs), "run_id", run.ID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a MapPoint into a Kafka message.
func serializeToMessage(p domain.MapPoint, run domain.RunInfo, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize map point: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(p.OffenseID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderOffenseType, Value: []byte(p.OffenseType)},
			{Key: HeaderProcessedAt, Value: []byte(processedAt.Format(time.RFC3339))},
			{Key: HeaderRunID, Value: []byte(run.ID)},
		},
	}, nil
}
