package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/config"
	"github.com/couchcryptid/crime-map-etl/internal/domain"
	"github.com/couchcryptid/crime-map-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2021, 11, 16, 9, 30, 0, 0, time.UTC)
	run := domain.RunInfo{ID: "run-1", StartedAt: now}
	point := domain.MapPoint{
		OffenseID:    "2021612345",
		OffenseType:  "theft-of-motor-vehicle",
		Lon:          -104.99,
		Lat:          39.74,
		Neighborhood: "capitol-hill",
		ReportedDate: time.Date(2021, 11, 15, 0, 0, 0, 0, time.UTC),
	}

	msg, err := serializeToMessage(point, run, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("2021612345"), msg.Key)

	var decoded domain.MapPoint
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, point, decoded)
	assert.Contains(t, string(msg.Value), `"neighborhood_id":"capitol-hill"`)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, HeaderOffenseType, msg.Headers[0].Key)
	assert.Equal(t, []byte("theft-of-motor-vehicle"), msg.Headers[0].Value)
	assert.Equal(t, HeaderProcessedAt, msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
	assert.Equal(t, HeaderRunID, msg.Headers[2].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[2].Value)
}

func TestPublish_NoPointsIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "unused"}
	w := NewWriter(cfg, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Publish(context.Background(), domain.NewRunInfo(), nil))
}
