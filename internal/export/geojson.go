package export

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/opencivic/event-siting/internal/model"
)

// WriteGeoJSON serializes ranked sites as a point FeatureCollection. Each
// feature carries the composite score, rank, matched tract, and the
// per-indicator contributions so downstream consumers can audit how a score
// came together. The output schema is stable: property names here are the
// contract with whatever renders the results.
func WriteGeoJSON(path string, sites []model.ScoredSite) error {
	fc := geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(sites)),
	}
	for i := range sites {
		fc.Features = append(fc.Features, siteFeature(&sites[i]))
	}

	data, err := json.MarshalIndent(&fc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal feature collection")
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}

	zap.L().Info("export: GeoJSON written",
		zap.String("path", path),
		zap.Int("features", len(sites)),
	)
	return nil
}

func siteFeature(s *model.ScoredSite) *geojson.Feature {
	indicators := make(map[string]interface{}, len(s.Contributions))
	for _, c := range s.Contributions {
		entry := map[string]interface{}{
			"normalized": c.Normalized,
			"weight":     c.Weight,
			"missing":    c.Missing,
		}
		if !c.Missing {
			entry["raw"] = c.Raw
		}
		indicators[c.Indicator] = entry
	}

	return &geojson.Feature{
		ID:       s.POI.ID,
		Geometry: geom.NewPointFlat(geom.XY, []float64{s.POI.Lon, s.POI.Lat}),
		Properties: map[string]interface{}{
			"name":        s.POI.Name,
			"category":    s.POI.Category,
			"tract_geoid": s.TractGEOID,
			"event_score": s.Score,
			"rank":        s.Rank,
			"indicators":  indicators,
		},
	}
}
