package pipeline

import (
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/domain"
	"github.com/couchcryptid/crime-map-etl/internal/table"
)

// Query names, also the output file stems.
const (
	QueryCategories     = "distinct_categories"
	QueryCategoryFilter = "category_filter"
	QueryTopVictims     = "top_victims"
	QueryOffenseDetails = "offense_details"
	QueryMapPoints      = "map_points"
)

// Report is the outcome of one run. Tables are immutable.
type Report struct {
	Run         domain.RunInfo
	GeneratedAt time.Time

	IncidentRows    int
	OffenseCodeRows int
	Joined          int // rows in the incident/offense-code join

	Categories     *table.Table
	CategoryFilter *table.Table
	TopVictims     *table.Table
	OffenseDetails *table.Table
	MapPoints      *table.Table

	DateParseFailures int
	Points            []domain.MapPoint
	MapHTML           []byte
	MarkersGeoJSON    []byte
	Files             []string
}

// Summary is the JSON view of a Report served at /report.
type Summary struct {
	RunID             string         `json:"run_id"`
	StartedAt         time.Time      `json:"started_at"`
	GeneratedAt       time.Time      `json:"generated_at"`
	IncidentRows      int            `json:"incident_rows"`
	OffenseCodeRows   int            `json:"offense_code_rows"`
	JoinedRows        int            `json:"joined_rows"`
	DateParseFailures int            `json:"date_parse_failures"`
	Markers           int            `json:"markers"`
	QueryRows         map[string]int `json:"query_rows"`
	Files             []string       `json:"files"`
}

// Summary returns counts describing the run.
func (r *Report) Summary() Summary {
	rows := make(map[string]int)
	for _, q := range r.queries() {
		rows[q.name] = q.table.NumRows()
	}
	return Summary{
		RunID:             r.Run.ID,
		StartedAt:         r.Run.StartedAt,
		GeneratedAt:       r.GeneratedAt,
		IncidentRows:      r.IncidentRows,
		OffenseCodeRows:   r.OffenseCodeRows,
		JoinedRows:        r.Joined,
		DateParseFailures: r.DateParseFailures,
		Markers:           len(r.Points),
		QueryRows:         rows,
		Files:             r.Files,
	}
}

type namedTable struct {
	name  string
	table *table.Table
}

// queries lists the query results in output order.
func (r *Report) queries() []namedTable {
	return []namedTable{
		{QueryCategories, r.Categories},
		{QueryCategoryFilter, r.CategoryFilter},
		{QueryTopVictims, r.TopVictims},
		{QueryOffenseDetails, r.OffenseDetails},
		{QueryMapPoints, r.MapPoints},
	}
}

// transform answers every query over freshly fetched tables. Both tables
// have their column names lower-cased first so the join key lines up.
func transform(incidents, codes *table.Table, opts Options) (*Report, error) {
	incidents, err := domain.NormalizeColumns(incidents)
	if err != nil {
		return nil, err
	}
	codes, err = domain.NormalizeOffenseCodeColumns(codes)
	if err != nil {
		return nil, err
	}

	r := &Report{IncidentRows: incidents.NumRows(), OffenseCodeRows: codes.NumRows()}

	if r.Categories, err = domain.DistinctCategories(incidents); err != nil {
		return nil, err
	}
	if r.CategoryFilter, err = domain.FilterByCategory(incidents, opts.CategoryFilter); err != nil {
		return nil, err
	}
	if r.TopVictims, err = domain.TopByVictimCount(incidents, opts.TopN); err != nil {
		return nil, err
	}

	joined := domain.JoinOffenseCodes(incidents, codes)
	r.Joined = joined.NumRows()
	if r.OffenseDetails, err = domain.OffenseDetails(joined, opts.DetailOffenseType); err != nil {
		return nil, err
	}

	dated, failures, err := domain.ParseReportedDates(incidents)
	if err != nil {
		return nil, err
	}
	r.DateParseFailures = failures
	filtered, err := domain.FilterGeoWindow(dated, opts.Window)
	if err != nil {
		return nil, err
	}
	if r.Points, err = domain.MapPoints(filtered); err != nil {
		return nil, err
	}
	if r.MapPoints, err = domain.MapPointsTable(r.Points); err != nil {
		return nil, err
	}
	return r, nil
}
