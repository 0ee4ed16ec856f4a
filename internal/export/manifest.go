package export

import (
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/opencivic/event-siting/internal/config"
	"github.com/opencivic/event-siting/internal/model"
)

// Manifest is the per-run record written alongside the outputs. It echoes
// the scoring configuration so a result set can always be traced back to
// the parameters that produced it.
type Manifest struct {
	RunID      string              `yaml:"run_id"`
	RunName    string              `yaml:"run_name"`
	StartedAt  time.Time           `yaml:"started_at"`
	FinishedAt time.Time           `yaml:"finished_at"`
	Counts     ManifestCounts      `yaml:"counts"`
	Scoring    config.SitingConfig `yaml:"scoring"`
	Outputs    []string            `yaml:"outputs"`
}

// ManifestCounts summarizes per-record outcomes.
type ManifestCounts struct {
	Tracts            int `yaml:"tracts"`
	FocusTracts       int `yaml:"focus_tracts,omitempty"`
	TotalPOIs         int `yaml:"total_pois"`
	Matched           int `yaml:"matched"`
	Unmatched         int `yaml:"unmatched"`
	InvalidCoords     int `yaml:"invalid_coordinates"`
	OutOfFocus        int `yaml:"out_of_focus,omitempty"`
	MissingIndicators int `yaml:"missing_indicator_values"`
}

// NewManifest builds a Manifest from a run summary and the scoring config.
func NewManifest(summary model.RunSummary, scoring config.SitingConfig, outputs []string) Manifest {
	return Manifest{
		RunID:      summary.RunID,
		RunName:    summary.RunName,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Counts: ManifestCounts{
			Tracts:            summary.Tracts,
			FocusTracts:       summary.FocusTracts,
			TotalPOIs:         summary.TotalPOIs,
			Matched:           summary.Matched,
			Unmatched:         summary.Unmatched,
			InvalidCoords:     summary.InvalidCoords,
			OutOfFocus:        summary.OutOfFocus,
			MissingIndicators: summary.MissingIndicators,
		},
		Scoring: scoring,
		Outputs: outputs,
	}
}

// WriteManifest writes the manifest as YAML, atomically.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "export: marshal manifest")
	}
	return writeAtomic(path, data)
}
