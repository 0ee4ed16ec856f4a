package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/opencivic/event-siting/internal/model"
	"github.com/opencivic/event-siting/internal/siting"
)

// POIOptions names the source fields and the optional category filter.
type POIOptions struct {
	IDField       string
	NameField     string
	CategoryField string
	LonField      string
	LatField      string
	Types         []string // keep only these categories; empty keeps all
}

// LoadPOIs reads points of interest from CSV or GeoJSON, dispatching on the
// file extension. Rows with unparseable coordinates are kept with NaN
// coordinates so the joiner reports them as invalid instead of dropping
// them. Rows filtered out by category are dropped and counted.
func LoadPOIs(path string, opts POIOptions) ([]model.PointOfInterest, error) {
	var (
		pois []model.PointOfInterest
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		pois, err = loadPOICSV(path, opts)
	case ".geojson", ".json":
		pois, err = loadPOIGeoJSON(path, opts)
	default:
		return nil, eris.Wrapf(siting.ErrData, "loader: unsupported POI format %q (want .csv or .geojson)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if len(opts.Types) > 0 {
		kept := pois[:0]
		for _, p := range pois {
			if matchesType(p.Category, opts.Types) {
				kept = append(kept, p)
			}
		}
		zap.L().Info("loader: POI type filter applied",
			zap.Strings("types", opts.Types),
			zap.Int("kept", len(kept)),
			zap.Int("dropped", len(pois)-len(kept)),
		)
		pois = kept
	}

	if len(pois) == 0 {
		return nil, eris.Wrapf(siting.ErrData, "loader: no POIs in %s", path)
	}
	return pois, nil
}

func loadPOICSV(path string, opts POIOptions) ([]model.PointOfInterest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(siting.ErrData, "loader: open POI file %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(siting.ErrData, "loader: read POI header %s: %v", path, err)
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	idIdx, ok := colIdx[strings.ToLower(opts.IDField)]
	if !ok {
		return nil, eris.Wrapf(siting.ErrData, "loader: POI column %q not found in %s", opts.IDField, path)
	}
	lonIdx, ok := colIdx[strings.ToLower(opts.LonField)]
	if !ok {
		return nil, eris.Wrapf(siting.ErrData, "loader: POI column %q not found in %s", opts.LonField, path)
	}
	latIdx, ok := colIdx[strings.ToLower(opts.LatField)]
	if !ok {
		return nil, eris.Wrapf(siting.ErrData, "loader: POI column %q not found in %s", opts.LatField, path)
	}
	nameIdx := optionalColumn(colIdx, opts.NameField)
	categoryIdx := optionalColumn(colIdx, opts.CategoryField)

	var pois []model.PointOfInterest
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(siting.ErrData, "loader: read POI row %s: %v", path, err)
		}

		poi := model.PointOfInterest{
			ID:  strings.TrimSpace(getField(record, idIdx)),
			Lon: parseCoord(getField(record, lonIdx)),
			Lat: parseCoord(getField(record, latIdx)),
		}
		if poi.ID == "" {
			poi.ID = fmt.Sprintf("poi-%d", len(pois))
		}
		if nameIdx >= 0 {
			poi.Name = strings.TrimSpace(getField(record, nameIdx))
		}
		if categoryIdx >= 0 {
			poi.Category = strings.TrimSpace(getField(record, categoryIdx))
		}
		pois = append(pois, poi)
	}
	return pois, nil
}

func loadPOIGeoJSON(path string, opts POIOptions) ([]model.PointOfInterest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(siting.ErrData, "loader: read POI file %s: %v", path, err)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(siting.ErrData, "loader: parse GeoJSON %s: %v", path, err)
	}

	var pois []model.PointOfInterest
	var nonPoint int
	for i, feat := range fc.Features {
		pt, ok := feat.Geometry.(*geom.Point)
		if !ok || pt == nil {
			nonPoint++
			continue
		}

		poi := model.PointOfInterest{
			ID:       propString(feat.Properties, opts.IDField),
			Name:     propString(feat.Properties, opts.NameField),
			Category: propString(feat.Properties, opts.CategoryField),
			Lon:      pt.X(),
			Lat:      pt.Y(),
		}
		if poi.ID == "" {
			poi.ID = feat.ID
		}
		if poi.ID == "" {
			poi.ID = fmt.Sprintf("poi-%d", i)
		}
		pois = append(pois, poi)
	}

	if nonPoint > 0 {
		zap.L().Warn("loader: skipped non-point GeoJSON features",
			zap.String("path", path),
			zap.Int("skipped", nonPoint),
		)
	}
	return pois, nil
}

func optionalColumn(colIdx map[string]int, name string) int {
	if name == "" {
		return -1
	}
	if i, ok := colIdx[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

func getField(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// parseCoord returns NaN for unparseable values; the joiner marks those POIs
// invalid rather than dropping them here.
func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func propString(props map[string]interface{}, key string) string {
	if key == "" || props == nil {
		return ""
	}
	switch v := props[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func matchesType(category string, types []string) bool {
	for _, t := range types {
		if strings.EqualFold(category, t) {
			return true
		}
	}
	return false
}
