// Package siting implements the event-siting scoring engine: it joins points
// of interest to the census tracts containing them, normalizes tract-level
// indicators, composes weighted composite scores, and ranks the results.
package siting

import (
	"github.com/rotisserie/eris"
	"github.com/tidwall/rtree"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
	"go.uber.org/zap"

	"github.com/opencivic/event-siting/internal/model"
)

// TractIndex answers point-in-polygon lookups over a fixed set of census
// tracts. Tract bounding boxes are held in an R-tree so a lookup only tests
// the handful of polygons whose boxes cover the point. The index is built
// once per run and is safe for concurrent readers; it owns the tract slice
// for the run's lifetime.
type TractIndex struct {
	tracts []model.Tract
	tree   rtree.RTree
}

// BuildIndex validates tract geometries and indexes them. Input order is
// preserved and significant: when a point lies exactly on a boundary shared
// by adjacent tracts, Lookup resolves to the tract that appeared first in
// the input sequence. Malformed geometry (nil, open ring, ring with fewer
// than four coordinates, zero-area exterior) fails with ErrGeometry.
func BuildIndex(tracts []model.Tract) (*TractIndex, error) {
	idx := &TractIndex{tracts: tracts}
	for i, t := range tracts {
		if t.Geometry == nil {
			return nil, eris.Wrapf(ErrGeometry, "siting: tract %s has nil geometry", t.GEOID)
		}
		if err := validateMultiPolygon(t.GEOID, t.Geometry); err != nil {
			return nil, err
		}
		b := t.Geometry.Bounds()
		idx.tree.Insert(
			[2]float64{b.Min(0), b.Min(1)},
			[2]float64{b.Max(0), b.Max(1)},
			i,
		)
	}
	zap.L().Debug("siting: tract index built", zap.Int("tracts", len(tracts)))
	return idx, nil
}

// Len returns the number of indexed tracts.
func (idx *TractIndex) Len() int { return len(idx.tracts) }

// Lookup returns the GEOID of the tract containing the point. Containment
// includes the boundary, and ties between adjacent tracts sharing the
// boundary always resolve to the tract earliest in the input sequence, so
// repeated lookups of the same point are deterministic.
func (idx *TractIndex) Lookup(lon, lat float64) (string, bool) {
	p := geom.Coord{lon, lat}
	best := -1
	idx.tree.Search(
		[2]float64{lon, lat},
		[2]float64{lon, lat},
		func(_, _ [2]float64, value interface{}) bool {
			i := value.(int)
			if best >= 0 && i > best {
				return true
			}
			if multiPolygonCovers(idx.tracts[i].Geometry, p) {
				best = i
			}
			return true
		},
	)
	if best < 0 {
		return "", false
	}
	return idx.tracts[best].GEOID, true
}

// multiPolygonCovers reports whether any polygon of mp contains or touches p.
func multiPolygonCovers(mp *geom.MultiPolygon, p geom.Coord) bool {
	for i := 0; i < mp.NumPolygons(); i++ {
		if polygonCovers(mp.Polygon(i), p) {
			return true
		}
	}
	return false
}

// polygonCovers reports whether p is inside the polygon or on its boundary.
// A point on a hole boundary counts as touching the polygon.
func polygonCovers(poly *geom.Polygon, p geom.Coord) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	switch xy.LocatePointInRing(poly.Layout(), p, poly.LinearRing(0).FlatCoords()) {
	case location.Exterior:
		return false
	case location.Boundary:
		return true
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		switch xy.LocatePointInRing(poly.Layout(), p, poly.LinearRing(i).FlatCoords()) {
		case location.Interior:
			return false
		case location.Boundary:
			return true
		}
	}
	return true
}

// validateMultiPolygon checks ring sanity for every polygon of a tract.
func validateMultiPolygon(geoid string, mp *geom.MultiPolygon) error {
	if mp.NumPolygons() == 0 {
		return eris.Wrapf(ErrGeometry, "siting: tract %s has no polygons", geoid)
	}
	stride := mp.Layout().Stride()
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			return eris.Wrapf(ErrGeometry, "siting: tract %s polygon %d has no rings", geoid, i)
		}
		for j := 0; j < poly.NumLinearRings(); j++ {
			flat := poly.LinearRing(j).FlatCoords()
			n := len(flat) / stride
			if n < 4 {
				return eris.Wrapf(ErrGeometry, "siting: tract %s polygon %d ring %d has %d points, need at least 4", geoid, i, j, n)
			}
			if flat[0] != flat[(n-1)*stride] || flat[1] != flat[(n-1)*stride+1] {
				return eris.Wrapf(ErrGeometry, "siting: tract %s polygon %d ring %d is not closed", geoid, i, j)
			}
		}
		if ringArea(poly.LinearRing(0).FlatCoords(), stride) == 0 {
			return eris.Wrapf(ErrGeometry, "siting: tract %s polygon %d has zero area", geoid, i)
		}
	}
	return nil
}

// ringArea computes the absolute shoelace area of a ring's flat coordinates.
func ringArea(flat []float64, stride int) float64 {
	n := len(flat) / stride
	var sum float64
	for i := 0; i < n-1; i++ {
		x1, y1 := flat[i*stride], flat[i*stride+1]
		x2, y2 := flat[(i+1)*stride], flat[(i+1)*stride+1]
		sum += x1*y2 - x2*y1
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
