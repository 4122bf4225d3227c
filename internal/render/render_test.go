package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoints() []domain.MapPoint {
	day := time.Date(2021, time.November, 15, 0, 0, 0, 0, time.UTC)
	return []domain.MapPoint{
		{OffenseID: "1", OffenseType: "theft-of-motor-vehicle", Lon: -104.99, Lat: 39.74, Neighborhood: "capitol-hill", ReportedDate: day},
		{OffenseID: "2", OffenseType: "theft-of-motor-vehicle", Lon: -104.98, Lat: 39.75, Neighborhood: "</script><b>", ReportedDate: day.AddDate(0, 0, 1)},
	}
}

func denverMap(t *testing.T, points []domain.MapPoint) Map {
	t.Helper()
	tiles, err := Tiles("OpenStreetMap", "", "")
	require.NoError(t, err)
	return Map{
		Title:  "Motor vehicle thefts",
		Center: orb.Point{-104.99, 39.74},
		Zoom:   14,
		Tiles:  tiles,
		Points: points,
	}
}

func TestFeatureCollection(t *testing.T) {
	points := testPoints()
	fc := FeatureCollection(points)
	require.Len(t, fc.Features, len(points))

	f := fc.Features[0]
	assert.Equal(t, orb.Point{-104.99, 39.74}, f.Geometry)
	assert.Equal(t, "1", f.ID)
	assert.Equal(t, "capitol-hill<br>2021-11-15", f.Properties.MustString("popup"))
	assert.Equal(t, "2021-11-15", f.Properties.MustString("reported_date"))
	assert.Equal(t, "&lt;/script&gt;&lt;b&gt;<br>2021-11-16", fc.Features[1].Properties.MustString("popup"))
}

func TestMarshalPoints_RoundTrip(t *testing.T) {
	data, err := MarshalPoints(testPoints())
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, orb.Point{-104.98, 39.75}, fc.Features[1].Geometry)
}

func TestMarshalPoints_Empty(t *testing.T) {
	data, err := MarshalPoints(nil)
	require.NoError(t, err)

	var doc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	assert.Empty(t, doc.Features)
}

func TestRender(t *testing.T) {
	points := testPoints()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, denverMap(t, points)))
	out := buf.String()

	assert.Contains(t, out, "<title>Motor vehicle thefts</title>")
	assert.Regexp(t, `setView\(\[\s*39\.74\s*,\s*-104\.99\s*\],\s*14\s*\)`, out)
	assert.Contains(t, out, `data-markers="2"`)
	assert.Contains(t, out, "tile.openstreetmap.org")
	assert.Equal(t, len(points), strings.Count(out, `"type":"Feature"`))
	assert.Equal(t, 1, strings.Count(out, "</script>\n</body>"), "marker text must not close the script")
	assert.NotContains(t, out, "tileSize")
}

func TestRender_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Render(&a, denverMap(t, testPoints())))
	require.NoError(t, Render(&b, denverMap(t, testPoints())))
	assert.Equal(t, a.String(), b.String())
}

func TestRender_NoPoints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, denverMap(t, nil)))
	assert.Contains(t, buf.String(), `data-markers="0"`)
	assert.Equal(t, 0, strings.Count(buf.String(), `"type":"Feature"`))
}

func TestTiles(t *testing.T) {
	t.Run("named providers", func(t *testing.T) {
		for _, name := range []string{"OpenStreetMap", "cartodb positron", "CartoDB dark_matter"} {
			layer, err := Tiles(name, "", "")
			require.NoError(t, err, name)
			assert.Contains(t, layer.URL, "{z}/{x}/{y}")
			assert.NotEmpty(t, layer.Attribution)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Tiles("Stamen Toner", "", "")
		require.ErrorIs(t, err, ErrUnknownTiles)
	})

	t.Run("mapbox", func(t *testing.T) {
		layer, err := Tiles("Mapbox", "pk.a b", "")
		require.NoError(t, err)
		assert.Equal(t, "https://api.mapbox.com/styles/v1/mapbox/streets-v12/tiles/{z}/{x}/{y}?access_token=pk.a+b", layer.URL)
		assert.Equal(t, 512, layer.TileSize)
		assert.Equal(t, -1, layer.ZoomOffset)

		var buf bytes.Buffer
		m := denverMap(t, nil)
		m.Tiles = layer
		require.NoError(t, Render(&buf, m))
		assert.Regexp(t, `tileSize:\s*512\s*,`, buf.String())
		assert.Regexp(t, `zoomOffset:\s*-1\s*,`, buf.String())
	})

	t.Run("mapbox without token", func(t *testing.T) {
		_, err := Tiles("mapbox", "", "mapbox/light-v11")
		require.Error(t, err)
	})
}
