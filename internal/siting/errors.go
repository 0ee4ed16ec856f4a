package siting

import "github.com/rotisserie/eris"

// Error kinds for the siting pass. Structural failures wrap one of these
// sentinels and abort the run; per-record issues (missing indicator value,
// unmatched POI) never do — they are counted in the run summary instead.
// Callers distinguish kinds with eris.Is.
var (
	// ErrConfig marks an invalid indicator set, weights, or thresholds.
	// Surfaced at setup time, before any scoring work begins.
	ErrConfig = eris.New("config error")

	// ErrGeometry marks malformed tract geometry or a coordinate reference
	// system mismatch between spatial inputs.
	ErrGeometry = eris.New("geometry error")

	// ErrData marks unreadable input files or missing required columns.
	ErrData = eris.New("data error")
)
