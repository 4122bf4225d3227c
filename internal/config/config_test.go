package config

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultIncidentsURL, cfg.IncidentsURL)
	assert.Equal(t, DefaultOffenseCodesURL, cfg.OffenseCodesURL)
	assert.Zero(t, cfg.FetchTimeout)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "other-crimes-against-persons", cfg.CategoryFilter)
	assert.Equal(t, "weapon-fire-into-occ-bldg", cfg.DetailOffenseType)
	assert.Equal(t, "theft-of-motor-vehicle", cfg.MapOffenseType)
	assert.Equal(t, time.Date(2021, time.November, 1, 0, 0, 0, 0, time.UTC), cfg.MapFrom)
	assert.Equal(t, time.Date(2021, time.November, 30, 0, 0, 0, 0, time.UTC), cfg.MapTo)
	assert.Equal(t, orb.Bound{Min: orb.Point{-105.01, 39.72}, Max: orb.Point{-104.97, 39.76}}, cfg.MapBounds)
	assert.Equal(t, orb.Point{-104.99, 39.74}, cfg.MapCenter)
	assert.Equal(t, 14, cfg.MapZoom)
	assert.Equal(t, "OpenStreetMap", cfg.MapTiles)
	assert.Equal(t, "mapbox/streets-v12", cfg.MapboxStyle)
	assert.False(t, cfg.ShapefileExport)
	assert.Empty(t, cfg.SQLitePath)
	assert.Empty(t, cfg.RefreshSchedule)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "crime-map-points", cfg.KafkaTopic)
	assert.False(t, cfg.Serve)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INCIDENTS_URL", "file:///tmp/crime.csv")
	t.Setenv("OFFENSE_CODES_URL", "file:///tmp/offense_codes.csv")
	t.Setenv("FETCH_TIMEOUT", "30s")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("MAP_OFFENSE_TYPE", "burglary-residence-by-force")
	t.Setenv("MAP_FROM", "2022-01-01")
	t.Setenv("MAP_TO", "2022-01-31")
	t.Setenv("MAP_BOUNDS", "-105.1, 39.6, -104.8, 39.9")
	t.Setenv("MAP_CENTER", "39.75,-104.95")
	t.Setenv("MAP_ZOOM", "12")
	t.Setenv("MAP_TILES", "Mapbox")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("SHAPEFILE_EXPORT", "true")
	t.Setenv("SQLITE_PATH", "/tmp/out/crime.db")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "points")
	t.Setenv("SERVE", "1")
	t.Setenv("REFRESH_SCHEDULE", "0 6 * * *")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file:///tmp/crime.csv", cfg.IncidentsURL)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "burglary-residence-by-force", cfg.MapOffenseType)
	assert.Equal(t, time.Date(2022, time.January, 31, 0, 0, 0, 0, time.UTC), cfg.MapTo)
	assert.Equal(t, orb.Bound{Min: orb.Point{-105.1, 39.6}, Max: orb.Point{-104.8, 39.9}}, cfg.MapBounds)
	assert.Equal(t, orb.Point{-104.95, 39.75}, cfg.MapCenter)
	assert.Equal(t, 12, cfg.MapZoom)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.True(t, cfg.ShapefileExport)
	assert.Equal(t, "/tmp/out/crime.db", cfg.SQLitePath)
	assert.Equal(t, "0 6 * * *", cfg.RefreshSchedule)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "points", cfg.KafkaTopic)
	assert.True(t, cfg.Serve)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("INCIDENTS_URL", "")
	t.Setenv("OUTPUT_DIR", "")
	t.Setenv("KAFKA_BROKERS", " , ")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultIncidentsURL, cfg.IncidentsURL)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "crime-map-points", cfg.KafkaTopic)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"shutdown timeout not a duration", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"shutdown timeout zero", map[string]string{"SHUTDOWN_TIMEOUT": "0s"}, "SHUTDOWN_TIMEOUT"},
		{"negative fetch timeout", map[string]string{"FETCH_TIMEOUT": "-1s"}, "FETCH_TIMEOUT"},
		{"bad date", map[string]string{"MAP_FROM": "11/01/2021"}, "MAP_FROM"},
		{"reversed dates", map[string]string{"MAP_FROM": "2021-12-01"}, "MAP_TO"},
		{"short bounds", map[string]string{"MAP_BOUNDS": "1,2,3"}, "MAP_BOUNDS"},
		{"inverted bounds", map[string]string{"MAP_BOUNDS": "-104.97,39.72,-105.01,39.76"}, "MAP_BOUNDS"},
		{"latitude out of range", map[string]string{"MAP_CENTER": "91,0"}, "MAP_CENTER"},
		{"zoom", map[string]string{"MAP_ZOOM": "30"}, "MAP_ZOOM"},
		{"mapbox without token", map[string]string{"MAP_TILES": "Mapbox"}, "MAPBOX_TOKEN"},
		{"serve not a bool", map[string]string{"SERVE": "sometimes"}, "SERVE"},
		{"schedule without serve", map[string]string{"REFRESH_SCHEDULE": "@daily"}, "SERVE"},
		{"bad schedule", map[string]string{"SERVE": "true", "REFRESH_SCHEDULE": "61 * * * *"}, "REFRESH_SCHEDULE"},
		{"fetch timeout not a duration", map[string]string{"FETCH_TIMEOUT": "soon"}, "FETCH_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
