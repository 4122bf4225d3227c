// Package shapefile exports map points as an ESRI point shapefile
// (.shp, .shx and .dbf side by side) for desktop GIS tools.
package shapefile

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/crime-map-etl/internal/domain"
	shp "github.com/jonas-p/go-shp"
)

// dBase field names are limited to 10 characters.
var fields = []shp.Field{
	shp.StringField("OFFENSE_ID", 20),
	shp.StringField("OFF_TYPE", 64),
	shp.StringField("NBHD", 64),
	shp.DateField("REPORTED"),
}

const (
	fieldOffenseID = iota
	fieldOffenseType
	fieldNeighborhood
	fieldReported
)

// Writer writes point shapefiles.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a shapefile writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// WritePoints writes one point record per map point to path, which should
// end in ".shp". Coordinates are stored as X=lon, Y=lat.
func (w *Writer) WritePoints(path string, points []domain.MapPoint) error {
	out, err := shp.Create(path, shp.POINT)
	if err != nil {
		return fmt.Errorf("create shapefile: %w", err)
	}
	if err := writeRecords(out, points); err != nil {
		out.Close()
		return err
	}
	out.Close()

	// go-shp names the attribute table <base>dbf, without the dot, and
	// GIS tools only pair <base>.dbf with <base>.shp.
	base := path
	if strings.HasSuffix(strings.ToLower(base), ".shp") {
		base = base[:len(base)-len(".shp")]
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return fmt.Errorf("rename shapefile attribute table: %w", err)
	}

	w.logger.Info("shapefile written", "path", path, "points", len(points))
	return nil
}

func writeRecords(out *shp.Writer, points []domain.MapPoint) error {
	if err := out.SetFields(fields); err != nil {
		return fmt.Errorf("set shapefile fields: %w", err)
	}

	for _, p := range points {
		row := int(out.Write(&shp.Point{X: p.Lon, Y: p.Lat}))
		attrs := []struct {
			field int
			value string
		}{
			{fieldOffenseID, p.OffenseID},
			{fieldOffenseType, p.OffenseType},
			{fieldNeighborhood, p.Neighborhood},
			{fieldReported, p.ReportedDate.Format("20060102")},
		}
		for _, a := range attrs {
			if err := out.WriteAttribute(row, a.field, a.value); err != nil {
				return fmt.Errorf("write shapefile attribute %d of row %d: %w", a.field, row, err)
			}
		}
	}
	return nil
}
