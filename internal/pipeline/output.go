package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Output file names inside OutputDir besides the per-query CSVs.
const (
	FileMap       = "crime_map.html"
	FileMarkers   = "markers.geojson"
	FileShapefile = "map_points.shp"
)

func outputPath(dir, name string) string {
	return filepath.Join(dir, name)
}

// writeOutputs writes every query table as CSV plus the map page and its
// GeoJSON. Files are overwritten; contents depend only on the inputs.
func (p *Pipeline) writeOutputs(r *Report) error {
	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, q := range r.queries() {
		var buf bytes.Buffer
		if err := q.table.WriteCSV(&buf); err != nil {
			return fmt.Errorf("write %s: %w", q.name, err)
		}
		if err := p.writeFile(r, q.name+".csv", buf.Bytes()); err != nil {
			return err
		}
	}
	if err := p.writeFile(r, FileMap, r.MapHTML); err != nil {
		return err
	}
	return p.writeFile(r, FileMarkers, r.MarkersGeoJSON)
}

func (p *Pipeline) writeFile(r *Report, name string, data []byte) error {
	path := outputPath(p.opts.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // outputs are meant to be shared
		return fmt.Errorf("write %s: %w", name, err)
	}
	r.Files = append(r.Files, path)
	p.logger.Debug("output written", "path", path, "bytes", len(data))
	return nil
}
