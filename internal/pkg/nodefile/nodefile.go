// Package nodefile reads topology node exports. Two formats are accepted:
// CSV with a header row (id, label, lat, lng; other columns become
// attributes) and GeoJSON feature collections of points.
package nodefile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/topomap/internal/core/domain"
)

// Format identifies an export format.
type Format string

const (
	CSV     Format = "csv"
	GeoJSON Format = "geojson"
)

// ErrUnknownFormat is returned for file extensions Detect does not know.
var ErrUnknownFormat = errors.New("unknown node file format")

// Detect picks the format from a file name.
func Detect(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return CSV, nil
	case ".geojson", ".json":
		return GeoJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}

// Column aliases accepted in CSV headers.
var (
	idColumns    = []string{"id", "node_id", "sto_id"}
	labelColumns = []string{"label", "name"}
	latColumns   = []string{"lat", "latitude"}
	lngColumns   = []string{"lng", "lon", "longitude"}
)

// Result is what a read produced. Rows that could not be placed are counted,
// not fatal.
type Result struct {
	Nodes   []domain.TopologyNode
	Skipped int
}

// Read parses r in the given format.
func Read(r io.Reader, format Format) (*Result, error) {
	switch format {
	case CSV:
		return ReadCSV(r)
	case GeoJSON:
		return ReadGeoJSON(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// ReadCSV parses a CSV export.
func ReadCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	idCol, ok1 := pick(cols, idColumns)
	latCol, ok2 := pick(cols, latColumns)
	lngCol, ok3 := pick(cols, lngColumns)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("header must contain id, lat and lng columns, got %v", header)
	}
	labelCol, hasLabel := pick(cols, labelColumns)

	known := map[int]bool{idCol: true, latCol: true, lngCol: true}
	if hasLabel {
		known[labelCol] = true
	}

	res := &Result{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Skipped++
			continue
		}

		id := field(record, idCol)
		lat, errLat := strconv.ParseFloat(field(record, latCol), 64)
		lng, errLng := strconv.ParseFloat(field(record, lngCol), 64)
		if id == "" || errLat != nil || errLng != nil {
			res.Skipped++
			continue
		}

		node := domain.TopologyNode{ID: id, Location: domain.GeoPoint{Lat: lat, Lng: lng}}
		if hasLabel {
			node.Label = field(record, labelCol)
		}
		for name, idx := range cols {
			if known[idx] {
				continue
			}
			if v := field(record, idx); v != "" {
				if node.Attributes == nil {
					node.Attributes = make(map[string]any)
				}
				node.Attributes[name] = v
			}
		}
		res.Nodes = append(res.Nodes, node)
	}
	return res, nil
}

// ReadGeoJSON parses a FeatureCollection. Point features become nodes; the
// id comes from the feature id or an "id" property, the label from "label"
// or "name". Non-point features are skipped.
func ReadGeoJSON(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	res := &Result{}
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			res.Skipped++
			continue
		}
		id := featureID(f)
		if id == "" {
			res.Skipped++
			continue
		}

		node := domain.TopologyNode{ID: id, Location: domain.GeoPointFromOrb(pt)}
		for k, v := range f.Properties {
			switch k {
			case "id":
			case "label", "name":
				if s, ok := v.(string); ok && node.Label == "" {
					node.Label = s
				}
			default:
				if node.Attributes == nil {
					node.Attributes = make(map[string]any)
				}
				node.Attributes[k] = v
			}
		}
		res.Nodes = append(res.Nodes, node)
	}
	return res, nil
}

// WriteGeoJSON renders nodes as a FeatureCollection of points.
func WriteGeoJSON(w io.Writer, nodes []domain.TopologyNode) error {
	fc := geojson.NewFeatureCollection()
	for _, n := range nodes {
		f := geojson.NewFeature(n.Location.Orb())
		f.ID = n.ID
		for k, v := range n.Attributes {
			f.Properties[k] = v
		}
		if n.Label != "" {
			f.Properties["label"] = n.Label
		}
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func featureID(f *geojson.Feature) string {
	switch v := f.ID.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if s, ok := f.Properties["id"].(string); ok {
		return s
	}
	return ""
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

func pick(cols map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if idx, ok := cols[n]; ok {
			return idx, true
		}
	}
	return 0, false
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
