package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/domain"
	"github.com/couchcryptid/crime-map-etl/internal/observability"
	"github.com/couchcryptid/crime-map-etl/internal/render"
	"github.com/couchcryptid/crime-map-etl/internal/table"
)

// Resource names used in logs, metrics and errors.
const (
	ResourceIncidents    = "incidents"
	ResourceOffenseCodes = "offense_codes"
)

// Fetcher loads one CSV resource into a table.
type Fetcher interface {
	Fetch(ctx context.Context, resource, location string) (*table.Table, error)
}

// Publisher sends map points to a downstream system.
type Publisher interface {
	Publish(ctx context.Context, run domain.RunInfo, points []domain.MapPoint) error
}

// ShapefileWriter exports map points as a point shapefile.
type ShapefileWriter interface {
	WritePoints(path string, points []domain.MapPoint) error
}

// TableStore keeps query results in a database, replacing earlier copies.
type TableStore interface {
	SaveTable(ctx context.Context, name string, t *table.Table) error
}

// Options fixes the questions a run answers and where the results go.
type Options struct {
	IncidentsURL      string
	OffenseCodesURL   string
	OutputDir         string
	CategoryFilter    string
	DetailOffenseType string
	TopN              int
	Window            domain.Window
	Map               render.Map // Points is filled in by the run
}

// Pipeline runs ingest, transform and render once, top to bottom.
type Pipeline struct {
	fetcher   Fetcher
	publisher Publisher       // nil disables publishing
	shapes    ShapefileWriter // nil disables shapefile export
	store     TableStore      // nil disables database export
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	report    atomic.Pointer[Report]
}

// Sinks are the optional destinations a run writes to besides OutputDir.
// Nil fields are skipped.
type Sinks struct {
	Publisher Publisher
	Shapes    ShapefileWriter
	Store     TableStore
}

// New creates a Pipeline.
func New(f Fetcher, sinks Sinks, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.TopN <= 0 {
		opts.TopN = domain.TopN
	}
	return &Pipeline{
		fetcher:   f,
		publisher: sinks.Publisher,
		shapes:    sinks.Shapes,
		store:     sinks.Store,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Report returns the result of the last successful run, or nil.
func (p *Pipeline) Report() *Report {
	return p.report.Load()
}

// MapHTML returns the last rendered map page.
func (p *Pipeline) MapHTML() ([]byte, bool) {
	r := p.report.Load()
	if r == nil {
		return nil, false
	}
	return r.MapHTML, true
}

// MarkersGeoJSON returns the last run's map points as GeoJSON.
func (p *Pipeline) MarkersGeoJSON() ([]byte, bool) {
	r := p.report.Load()
	if r == nil {
		return nil, false
	}
	return r.MarkersGeoJSON, true
}

// SummaryJSON returns the last run's Summary encoded as JSON.
func (p *Pipeline) SummaryJSON() ([]byte, bool) {
	r := p.report.Load()
	if r == nil {
		return nil, false
	}
	data, err := json.Marshal(r.Summary())
	if err != nil {
		return nil, false
	}
	return data, true
}

// Run executes one complete pass. Any ingestion, output or sink failure is
// returned; an empty join or filter result is not a failure.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	run := domain.NewRunInfo()
	logger := p.logger.With("run_id", run.ID)
	logger.Info("pipeline started",
		"incidents_url", p.opts.IncidentsURL,
		"offense_codes_url", p.opts.OffenseCodesURL,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	start := time.Now()

	incidents, err := p.fetcher.Fetch(ctx, ResourceIncidents, p.opts.IncidentsURL)
	if err != nil {
		return nil, err
	}
	codes, err := p.fetcher.Fetch(ctx, ResourceOffenseCodes, p.opts.OffenseCodesURL)
	if err != nil {
		return nil, err
	}

	report, err := transform(incidents, codes, p.opts)
	if err != nil {
		return nil, err
	}
	report.Run = run
	p.record(logger, report)

	m := p.opts.Map
	m.Points = report.Points
	var page bytes.Buffer
	if err := render.Render(&page, m); err != nil {
		return nil, err
	}
	report.MapHTML = page.Bytes()
	if report.MarkersGeoJSON, err = render.MarshalPoints(report.Points); err != nil {
		return nil, err
	}
	p.metrics.MarkersRendered.Set(float64(len(report.Points)))

	if err := p.writeOutputs(report); err != nil {
		return nil, err
	}
	if p.shapes != nil {
		path := outputPath(p.opts.OutputDir, FileShapefile)
		if err := p.shapes.WritePoints(path, report.Points); err != nil {
			return nil, fmt.Errorf("export shapefile: %w", err)
		}
		report.Files = append(report.Files, path)
	}
	if p.store != nil {
		for _, q := range report.queries() {
			if err := p.store.SaveTable(ctx, q.name, q.table); err != nil {
				return nil, fmt.Errorf("export tables: %w", err)
			}
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, run, report.Points); err != nil {
			return nil, err
		}
	}

	report.GeneratedAt = domain.Now()
	p.report.Store(report)
	p.ready.Store(true)

	elapsed := time.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	logger.Info("pipeline finished",
		"markers", len(report.Points),
		"files", len(report.Files),
		"duration", elapsed,
	)
	return report, nil
}

// record logs and exports per-query row counts.
func (p *Pipeline) record(logger *slog.Logger, r *Report) {
	p.metrics.DateParseFailures.Add(float64(r.DateParseFailures))
	for _, q := range r.queries() {
		p.metrics.QueryRows.WithLabelValues(q.name).Set(float64(q.table.NumRows()))
		logger.Info("query complete", "query", q.name, "rows", q.table.NumRows())
	}
	if r.Joined == 0 {
		logger.Warn("offense-code join matched no rows")
	}
	if r.DateParseFailures > 0 {
		logger.Warn("reported dates could not be parsed", "count", r.DateParseFailures)
	}
}
