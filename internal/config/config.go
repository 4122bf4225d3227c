package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/paulmach/orb"
	"github.com/robfig/cron/v3"
)

const (
	DefaultIncidentsURL    = "https://www.denvergov.org/media/gis/DataCatalog/crime/csv/crime.csv"
	DefaultOffenseCodesURL = "https://www.denvergov.org/media/gis/DataCatalog/crime/csv/offense_codes.csv"

	dateLayout = "2006-01-02"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	IncidentsURL    string
	OffenseCodesURL string
	FetchTimeout    time.Duration // 0 means no client timeout
	OutputDir       string

	CategoryFilter    string
	DetailOffenseType string
	MapOffenseType    string
	MapFrom           time.Time
	MapTo             time.Time
	MapBounds         orb.Bound
	MapCenter         orb.Point // lon, lat
	MapZoom           int
	MapTiles          string
	MapboxToken       string
	MapboxStyle       string

	ShapefileExport bool
	SQLitePath      string   // empty disables database export
	KafkaBrokers    []string // empty disables publishing
	KafkaTopic      string

	Serve           bool
	RefreshSchedule string // cron expression; empty runs once
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

// Load reads configuration from environment variables. Unset or empty
// variables take their defaults.
func Load() (*Config, error) {
	fetchTimeout, err := parseFetchTimeout()
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	from, err := parseDate("MAP_FROM", "2021-11-01")
	if err != nil {
		return nil, err
	}
	to, err := parseDate("MAP_TO", "2021-11-30")
	if err != nil {
		return nil, err
	}
	bounds, err := parseBounds(sharedcfg.EnvOrDefault("MAP_BOUNDS", "-105.01,39.72,-104.97,39.76"))
	if err != nil {
		return nil, err
	}
	center, err := parseCenter(sharedcfg.EnvOrDefault("MAP_CENTER", "39.74,-104.99"))
	if err != nil {
		return nil, err
	}
	zoom, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAP_ZOOM", "14"))
	if err != nil || zoom < 0 || zoom > 22 {
		return nil, errors.New("invalid MAP_ZOOM: must be an integer between 0 and 22")
	}
	shapefile, err := parseBool("SHAPEFILE_EXPORT")
	if err != nil {
		return nil, err
	}
	serve, err := parseBool("SERVE")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		IncidentsURL:    sharedcfg.EnvOrDefault("INCIDENTS_URL", DefaultIncidentsURL),
		OffenseCodesURL: sharedcfg.EnvOrDefault("OFFENSE_CODES_URL", DefaultOffenseCodesURL),
		FetchTimeout:    fetchTimeout,
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "out"),

		CategoryFilter:    sharedcfg.EnvOrDefault("CATEGORY_FILTER", "other-crimes-against-persons"),
		DetailOffenseType: sharedcfg.EnvOrDefault("DETAIL_OFFENSE_TYPE", "weapon-fire-into-occ-bldg"),
		MapOffenseType:    sharedcfg.EnvOrDefault("MAP_OFFENSE_TYPE", "theft-of-motor-vehicle"),
		MapFrom:           from,
		MapTo:             to,
		MapBounds:         bounds,
		MapCenter:         center,
		MapZoom:           zoom,
		MapTiles:          sharedcfg.EnvOrDefault("MAP_TILES", "OpenStreetMap"),
		MapboxToken:       os.Getenv("MAPBOX_TOKEN"),
		MapboxStyle:       sharedcfg.EnvOrDefault("MAPBOX_STYLE", "mapbox/streets-v12"),

		ShapefileExport: shapefile,
		SQLitePath:      os.Getenv("SQLITE_PATH"),
		KafkaBrokers:    sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "crime-map-points"),

		Serve:           serve,
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.MapTo.Before(cfg.MapFrom) {
		return nil, errors.New("MAP_TO is before MAP_FROM")
	}
	if strings.EqualFold(cfg.MapTiles, "mapbox") && cfg.MapboxToken == "" {
		return nil, errors.New("MAP_TILES is Mapbox but MAPBOX_TOKEN is not set")
	}
	if cfg.RefreshSchedule != "" {
		if !cfg.Serve {
			return nil, errors.New("REFRESH_SCHEDULE requires SERVE=true")
		}
		if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
			return nil, fmt.Errorf("invalid REFRESH_SCHEDULE: %w", err)
		}
	}

	return cfg, nil
}

// PublishEnabled reports whether map points should be written to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseFetchTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "0"))
	if err != nil || d < 0 {
		return 0, errors.New("invalid FETCH_TIMEOUT")
	}
	return d, nil
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func parseDate(key, fallback string) (time.Time, error) {
	d, err := time.Parse(dateLayout, sharedcfg.EnvOrDefault(key, fallback))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: want YYYY-MM-DD", key)
	}
	return d, nil
}

// parseFloats splits "a,b,..." into exactly n floats.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// parseBounds reads "min_lon,min_lat,max_lon,max_lat".
func parseBounds(s string) (orb.Bound, error) {
	f, err := parseFloats(s, 4)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("invalid MAP_BOUNDS: %w", err)
	}
	if f[0] > f[2] || f[1] > f[3] {
		return orb.Bound{}, errors.New("invalid MAP_BOUNDS: min exceeds max")
	}
	if !validLatLon(f[1], f[0]) || !validLatLon(f[3], f[2]) {
		return orb.Bound{}, errors.New("invalid MAP_BOUNDS: coordinates out of range")
	}
	return orb.Bound{Min: orb.Point{f[0], f[1]}, Max: orb.Point{f[2], f[3]}}, nil
}

// parseCenter reads "lat,lon", the order map libraries take it in.
func parseCenter(s string) (orb.Point, error) {
	f, err := parseFloats(s, 2)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid MAP_CENTER: %w", err)
	}
	if !validLatLon(f[0], f[1]) {
		return orb.Point{}, errors.New("invalid MAP_CENTER: coordinates out of range")
	}
	return orb.Point{f[1], f[0]}, nil
}

func validLatLon(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
