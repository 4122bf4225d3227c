package shapefile

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/domain"
	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// attr reads a dBase cell without its fixed-width padding.
func attr(r *shp.Reader, row, field int) string {
	return strings.TrimRight(r.ReadAttribute(row, field), "\x00 ")
}

func TestWritePoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map_points.shp")
	points := []domain.MapPoint{
		{OffenseID: "2021612345", OffenseType: "theft-of-motor-vehicle", Lon: -104.99, Lat: 39.74, Neighborhood: "capitol-hill", ReportedDate: time.Date(2021, time.November, 15, 0, 0, 0, 0, time.UTC)},
		{OffenseID: "2021612346", OffenseType: "theft-of-motor-vehicle", Lon: -104.98, Lat: 39.75, Neighborhood: "five-points", ReportedDate: time.Date(2021, time.November, 16, 0, 0, 0, 0, time.UTC)},
	}

	w := NewWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, w.WritePoints(path, points))

	dir := filepath.Dir(path)
	for _, name := range []string{"map_points.shp", "map_points.shx", "map_points.dbf"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "map_pointsdbf"))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.Fields(), len(fields))

	var got []domain.MapPoint
	for r.Next() {
		idx, shape := r.Shape()
		pt, ok := shape.(*shp.Point)
		require.True(t, ok, "shape %d is %T", idx, shape)
		got = append(got, domain.MapPoint{
			OffenseID:    attr(r, idx, fieldOffenseID),
			Neighborhood: attr(r, idx, fieldNeighborhood),
			Lon:          pt.X,
			Lat:          pt.Y,
		})
		assert.Equal(t, points[idx].ReportedDate.Format("20060102"), attr(r, idx, fieldReported))
	}

	require.Len(t, got, len(points))
	for i := range points {
		assert.Equal(t, points[i].OffenseID, got[i].OffenseID)
		assert.Equal(t, points[i].Neighborhood, got[i].Neighborhood)
		assert.InDelta(t, points[i].Lon, got[i].Lon, 1e-9)
		assert.InDelta(t, points[i].Lat, got[i].Lat, 1e-9)
	}
}

func TestWritePoints_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.shp")
	w := NewWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, w.WritePoints(path, nil))
	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "empty.dbf"))
}

func TestWritePoints_UpperCaseExtension(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, w.WritePoints(filepath.Join(dir, "POINTS.SHP"), nil))
	assert.FileExists(t, filepath.Join(dir, "POINTS.shp"))
	assert.FileExists(t, filepath.Join(dir, "POINTS.dbf"))
}

func TestWritePoints_BadPath(t *testing.T) {
	w := NewWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := w.WritePoints(filepath.Join(t.TempDir(), "missing", "dir", "x.shp"), nil)
	require.Error(t, err)
}
