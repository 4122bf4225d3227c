package domain

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/table"
	"github.com/paulmach/orb"
)

// ErrDatesNotParsed is returned by FilterGeoWindow when reported_date still
// holds text; run ParseReportedDates first.
var ErrDatesNotParsed = errors.New("reported_date has not been parsed to dates")

// mdyRe matches a leading M/D/YYYY date, e.g. "11/15/2021 3:04:00 PM" -> 11, 15, 2021.
// Anything after the year (time of day) is ignored.
var mdyRe = regexp.MustCompile(`^\s*(\d{1,2})/(\d{1,2})/(\d{4})(?:\s|$)`)

// ParseReportedDates returns a copy of incidents whose reported_date column
// holds date values. Values that are not a valid M/D/YYYY date become null;
// the number of such values is returned alongside.
func ParseReportedDates(incidents *table.Table) (*table.Table, int, error) {
	failures := 0
	out, err := incidents.MapColumn(ColReportedDate, func(v table.Value) table.Value {
		if v.Kind() == table.KindDate {
			return v
		}
		if v.IsNull() {
			failures++
			return table.Null(table.KindDate)
		}
		d, ok := parseMDY(v.Format())
		if !ok {
			failures++
			return table.Null(table.KindDate)
		}
		return table.Date(d)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("parse reported dates: %w", err)
	}
	return out, failures, nil
}

// parseMDY parses the leading month/day/4-digit-year of s. Out-of-range
// components (e.g. 2/30/2021) are rejected rather than normalized.
func parseMDY(s string) (time.Time, bool) {
	m := mdyRe.FindStringSubmatch(s)
	if len(m) != 4 {
		return time.Time{}, false
	}
	month, errM := strconv.Atoi(m[1])
	day, errD := strconv.Atoi(m[2])
	year, errY := strconv.Atoi(m[3])
	if errM != nil || errD != nil || errY != nil {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// Window selects incidents of one offense type reported within [From, To]
// (calendar days, inclusive) whose coordinates fall inside Bounds (edges
// inclusive). Bounds.Min is the south-west corner as (lon, lat).
type Window struct {
	OffenseType string
	From        time.Time
	To          time.Time
	Bounds      orb.Bound
}

// NewBounds builds a bounding box from its four edges.
func NewBounds(minLon, minLat, maxLon, maxLat float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

// FilterGeoWindow keeps the incidents inside w. Rows with a null date or
// null coordinates are excluded. There is no antimeridian handling.
func FilterGeoWindow(incidents *table.Table, w Window) (*table.Table, error) {
	dates, err := incidents.Column(ColReportedDate)
	if err != nil {
		return nil, fmt.Errorf("filter geo window: %w", err)
	}
	for _, v := range dates {
		if !v.IsNull() && v.Kind() != table.KindDate {
			return nil, fmt.Errorf("filter geo window: %w", ErrDatesNotParsed)
		}
	}

	offense := table.String(w.OffenseType)
	from, to := table.Date(w.From), table.Date(w.To)

	return incidents.Filter(func(r table.Row) bool {
		if !r.Get(ColOffenseTypeID).Equal(offense) {
			return false
		}
		d := r.Get(ColReportedDate)
		if c, ok := d.Compare(from); !ok || c < 0 {
			return false
		}
		if c, ok := d.Compare(to); !ok || c > 0 {
			return false
		}
		lon, lat := r.Get(ColGeoLon), r.Get(ColGeoLat)
		if lon.IsNull() || lat.IsNull() || lon.Kind() != table.KindNumber || lat.Kind() != table.KindNumber {
			return false
		}
		return w.Bounds.Contains(orb.Point{lon.Float(), lat.Float()})
	}), nil
}

// MapPoint is one marker: a location plus the two fields shown in its popup.
type MapPoint struct {
	OffenseID    string    `json:"offense_id"`
	OffenseType  string    `json:"offense_type_id"`
	Lon          float64   `json:"lon"`
	Lat          float64   `json:"lat"`
	Neighborhood string    `json:"neighborhood_id"`
	ReportedDate time.Time `json:"reported_date"`
}

// Popup renders the marker text: neighborhood and date separated by a line
// break. The neighborhood is HTML-escaped.
func (p MapPoint) Popup() string {
	return html.EscapeString(p.Neighborhood) + "<br>" + p.ReportedDate.Format(table.DateLayout)
}

// MapPoints converts filtered incidents to markers, one per row. Rows must
// have non-null coordinates, which FilterGeoWindow guarantees.
func MapPoints(filtered *table.Table) ([]MapPoint, error) {
	points := make([]MapPoint, 0, filtered.NumRows())
	for i := 0; i < filtered.NumRows(); i++ {
		row := filtered.Row(i)
		lon, lat := row.Get(ColGeoLon), row.Get(ColGeoLat)
		if lon.IsNull() || lat.IsNull() {
			return nil, fmt.Errorf("map points: row %d has no coordinates", i)
		}
		points = append(points, MapPoint{
			OffenseID:    row.Get(ColOffenseID).Format(),
			OffenseType:  row.Get(ColOffenseTypeID).Format(),
			Lon:          lon.Float(),
			Lat:          lat.Float(),
			Neighborhood: row.Get(ColNeighborhoodID).Format(),
			ReportedDate: row.Get(ColReportedDate).Time(),
		})
	}
	return points, nil
}

// MapPointsTable renders markers as a table for CSV output.
func MapPointsTable(points []MapPoint) (*table.Table, error) {
	rows := make([][]table.Value, len(points))
	for i, p := range points {
		rows[i] = []table.Value{
			table.String(p.OffenseID),
			table.Number(p.Lon),
			table.Number(p.Lat),
			table.String(p.Neighborhood),
			table.Date(p.ReportedDate),
			table.String(p.Popup()),
		}
	}
	return table.New([]string{ColOffenseID, ColGeoLon, ColGeoLat, ColNeighborhoodID, ColReportedDate, "popup"}, rows)
}
