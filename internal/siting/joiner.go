package siting

import (
	"math"

	"github.com/opencivic/event-siting/internal/model"
)

// JoinedPOI pairs a POI with the tract containing it. Unmatched POIs carry
// an empty GEOID and a reason; they are reported, never dropped.
type JoinedPOI struct {
	POI    model.PointOfInterest
	GEOID  string
	Reason string
}

// Matched reports whether the POI was assigned a tract.
func (j JoinedPOI) Matched() bool { return j.Reason == "" }

// Join maps each POI to the tract containing it, preserving input order.
// POIs with invalid coordinates or outside every tract are marked unmatched.
// The inputs are not mutated; re-running Join on the same inputs yields
// identical assignments.
func Join(pois []model.PointOfInterest, idx *TractIndex) []JoinedPOI {
	out := make([]JoinedPOI, len(pois))
	for i, poi := range pois {
		out[i] = joinOne(poi, idx)
	}
	return out
}

func joinOne(poi model.PointOfInterest, idx *TractIndex) JoinedPOI {
	if !validCoordinate(poi.Lon, poi.Lat) {
		return JoinedPOI{POI: poi, Reason: model.ReasonInvalidCoords}
	}
	geoid, ok := idx.Lookup(poi.Lon, poi.Lat)
	if !ok {
		return JoinedPOI{POI: poi, Reason: model.ReasonOutsideTracts}
	}
	return JoinedPOI{POI: poi, GEOID: geoid}
}

func validCoordinate(lon, lat float64) bool {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}
