// Package loader reads the run's input datasets: tract boundary shapefiles,
// tract indicator tables (CSV or XLSX), and POI files (CSV or GeoJSON).
// It hands the engine clean, in-memory data; all file I/O lives here.
package loader

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/opencivic/event-siting/internal/model"
	"github.com/opencivic/event-siting/internal/siting"
)

// LoadTracts reads tract polygons from a shapefile and attaches indicator
// values from the table by GEOID. Tracts absent from the indicator table are
// kept with an empty indicator map so their contained POIs surface as
// missing-value records instead of silently disappearing. Record order in
// the shapefile is preserved; it is the tie-break order for boundary points.
func LoadTracts(shpPath, geoidField string, table *IndicatorTable) ([]model.Tract, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(siting.ErrData, "loader: open shapefile %s: %v", shpPath, err)
	}
	defer func() { _ = reader.Close() }()

	geoidIdx := fieldIndex(reader, geoidField)
	if geoidIdx < 0 {
		return nil, eris.Wrapf(siting.ErrData, "loader: field %q not found in %s", geoidField, shpPath)
	}

	var tracts []model.Tract
	var skipped, withoutData int
	for reader.Next() {
		_, shape := reader.Shape()
		geoid := strings.TrimSpace(strings.TrimRight(reader.Attribute(geoidIdx), "\x00"))
		if geoid == "" || shape == nil {
			skipped++
			continue
		}

		mp := shapeToMultiPolygon(shape)
		if mp == nil {
			skipped++
			continue
		}

		indicators, ok := table.Lookup(geoid)
		if !ok {
			withoutData++
			indicators = map[string]float64{}
		}
		tracts = append(tracts, model.Tract{
			GEOID:      geoid,
			Geometry:   mp,
			Indicators: indicators,
		})
	}

	if len(tracts) == 0 {
		return nil, eris.Wrapf(siting.ErrData, "loader: no usable tract records in %s", shpPath)
	}

	zap.L().Info("loader: tracts loaded",
		zap.String("path", shpPath),
		zap.Int("tracts", len(tracts)),
		zap.Int("skipped", skipped),
		zap.Int("without_indicator_data", withoutData),
	)
	return tracts, nil
}

// shapeToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Shapefile ring order: clockwise rings are exteriors, counter-clockwise
// rings are holes of the preceding exterior. Returns nil for unsupported or
// degenerate shapes.
func shapeToMultiPolygon(s shp.Shape) *geom.MultiPolygon {
	p, ok := s.(*shp.Polygon)
	if !ok || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		if signedArea(flat) < 0 || current == nil {
			if current != nil {
				if err := mp.Push(current); err != nil {
					zap.L().Debug("loader: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
				}
			}
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("loader: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}
	if current != nil && current.NumLinearRings() > 0 {
		if err := mp.Push(current); err != nil {
			zap.L().Debug("loader: skipping malformed polygon part", zap.Int32("parts", p.NumParts), zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is the shoelace sum over flat XY pairs: negative for the
// clockwise exterior rings of the shapefile convention.
func signedArea(flat []float64) float64 {
	n := len(flat) / 2
	var sum float64
	for i := 0; i < n-1; i++ {
		sum += flat[i*2]*flat[(i+1)*2+1] - flat[(i+1)*2]*flat[i*2+1]
	}
	return sum / 2
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
