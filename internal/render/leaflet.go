// Package render draws map points as an interactive Leaflet page.
package render

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/couchcryptid/crime-map-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

//go:embed map.html.tmpl
var mapTemplate string

var page = template.Must(template.New("map").Parse(mapTemplate))

// Map is everything needed to draw one page: the base map and its markers.
type Map struct {
	Title  string
	Center orb.Point // lon, lat
	Zoom   int
	Tiles  TileLayer
	Points []domain.MapPoint
}

// FeatureCollection converts points to GeoJSON, one Point feature per map
// point in input order. The popup text is carried as the "popup" property.
func FeatureCollection(points []domain.MapPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewFeature(orb.Point{p.Lon, p.Lat})
		f.ID = p.OffenseID
		f.Properties["offense_id"] = p.OffenseID
		f.Properties["offense_type_id"] = p.OffenseType
		f.Properties["neighborhood_id"] = p.Neighborhood
		f.Properties["reported_date"] = p.ReportedDate.Format("2006-01-02")
		f.Properties["popup"] = p.Popup()
		fc.Append(f)
	}
	return fc
}

// MarshalPoints returns points as a GeoJSON FeatureCollection document.
func MarshalPoints(points []domain.MapPoint) ([]byte, error) {
	data, err := json.Marshal(FeatureCollection(points))
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	return data, nil
}

type pageData struct {
	Title    string
	Lat, Lon float64
	Zoom     int
	Tiles    TileLayer
	Markers  template.JS
	Count    int
}

// Render writes m as a self-contained HTML page. Output depends only on m.
func Render(w io.Writer, m Map) error {
	markers, err := MarshalPoints(m.Points)
	if err != nil {
		return err
	}
	data := pageData{
		Title: m.Title,
		Lat:   m.Center.Lat(),
		Lon:   m.Center.Lon(),
		Zoom:  m.Zoom,
		Tiles: m.Tiles,
		// json.Marshal escapes <, > and & so the document cannot close the script tag.
		Markers: template.JS(markers), //nolint:gosec // generated by encoding/json
		Count:   len(m.Points),
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	return nil
}
