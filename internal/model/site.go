// Package model defines the data types shared across the siting engine.
package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// PointOfInterest is a candidate event site. Instances are immutable once
// loaded; one per input row.
type PointOfInterest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category,omitempty"`
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
}

// Tract is a census tract polygon together with its indicator values.
// Indicators that are missing for the tract are absent from the map.
type Tract struct {
	GEOID      string
	Geometry   *geom.MultiPolygon
	Indicators map[string]float64
}

// Contribution records how one indicator entered a site's composite score.
// Normalized is oriented so that higher always means a better event site;
// for negative-direction indicators it is the complement of the rescaled
// raw value. Weight is the weight actually applied: zero when the value was
// missing and the missing policy excludes it.
type Contribution struct {
	Indicator  string  `json:"indicator"`
	Raw        float64 `json:"raw"`
	Normalized float64 `json:"normalized"`
	Weight     float64 `json:"weight"`
	Missing    bool    `json:"missing"`
}

// ScoredSite is a POI with its matched tract, composite score, and rank.
// Created once per matched POI during scoring; immutable after creation.
type ScoredSite struct {
	POI           PointOfInterest `json:"poi"`
	TractGEOID    string          `json:"tract_geoid"`
	Score         float64         `json:"score"`
	Rank          int             `json:"rank"`
	Contributions []Contribution  `json:"contributions"`
}

// Reasons a POI is excluded from the ranked output.
const (
	ReasonInvalidCoords = "invalid_coordinates"
	ReasonOutsideTracts = "outside_tracts"
	ReasonOutOfFocus    = "out_of_focus"
	ReasonNoIndicators  = "no_indicator_values"
)

// UnmatchedPOI is a POI excluded from scoring, with the reason.
type UnmatchedPOI struct {
	POI    PointOfInterest `json:"poi"`
	Reason string          `json:"reason"`
}

// RunSummary aggregates the per-record outcomes of one siting pass.
type RunSummary struct {
	RunID             string
	RunName           string
	OutputDir         string
	Tracts            int
	FocusTracts       int
	TotalPOIs         int
	Matched           int
	Unmatched         int
	InvalidCoords     int
	OutOfFocus        int
	MissingIndicators int
	StartedAt         time.Time
	FinishedAt        time.Time
}
