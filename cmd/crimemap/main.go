package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/crime-map-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crime-map-etl/internal/adapter/kafka"
	"github.com/couchcryptid/crime-map-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/crime-map-etl/internal/adapter/source"
	"github.com/couchcryptid/crime-map-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/crime-map-etl/internal/config"
	"github.com/couchcryptid/crime-map-etl/internal/domain"
	"github.com/couchcryptid/crime-map-etl/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/crime-map-etl/internal/pipeline"
	"github.com/couchcryptid/crime-map-etl/internal/render"
	"github.com/couchcryptid/crime-map-etl/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	tiles, err := render.Tiles(cfg.MapTiles, cfg.MapboxToken, cfg.MapboxStyle)
	if err != nil {
		logger.Error("invalid MAP_TILES", "error", err)
		os.Exit(1)
	}

	fetcher := source.NewFetcher(cfg.FetchTimeout, metrics, logger)

	// Optional sinks. A nil interface value disables each one.
	var sinks pipeline.Sinks
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		sinks.Publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.ShapefileExport {
		sinks.Shapes = shapefile.NewWriter(logger)
	}
	var store *sqlite.Store
	if cfg.SQLitePath != "" {
		store, err = sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open sqlite database", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		sinks.Store = store
		logger.Info("sqlite export enabled", "path", cfg.SQLitePath)
	}

	p := pipeline.New(fetcher, sinks, pipeline.Options{
		IncidentsURL:      cfg.IncidentsURL,
		OffenseCodesURL:   cfg.OffenseCodesURL,
		OutputDir:         cfg.OutputDir,
		CategoryFilter:    cfg.CategoryFilter,
		DetailOffenseType: cfg.DetailOffenseType,
		TopN:              domain.TopN,
		Window: domain.Window{
			OffenseType: cfg.MapOffenseType,
			From:        cfg.MapFrom,
			To:          cfg.MapTo,
			Bounds:      cfg.MapBounds,
		},
		Map: render.Map{
			Title:  "Denver crime: " + cfg.MapOffenseType,
			Center: cfg.MapCenter,
			Zoom:   cfg.MapZoom,
			Tiles:  tiles,
		},
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.Serve {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	code := 0
	if _, err := p.Run(ctx); err != nil {
		logger.Error("pipeline error", "error", err)
		code = 1
	}

	var sched *scheduler.Scheduler
	if srv != nil && code == 0 {
		if cfg.RefreshSchedule != "" {
			sched, err = scheduler.New(cfg.RefreshSchedule, func(ctx context.Context) error {
				_, err := p.Run(ctx)
				return err
			}, logger)
			if err != nil {
				logger.Error("invalid REFRESH_SCHEDULE", "error", err)
				code = 1
				stop()
			} else {
				sched.Start(ctx)
			}
		}
		logger.Info("serving map until interrupted", "addr", cfg.HTTPAddr)
		<-ctx.Done()
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler shutdown error", "error", err)
		}
	}
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("sqlite close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if code != 0 {
		cancel()
		stop()
		os.Exit(code)
	}
}
