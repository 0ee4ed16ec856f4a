package siting

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opencivic/event-siting/internal/config"
	"github.com/opencivic/event-siting/internal/model"
)

// FocusTracts selects the tracts whose focus indicator stands out from the
// dataset, either as a multiple of the mean or as a z-score threshold.
// Returns nil when no focus is configured, meaning every tract is in scope.
// Tracts missing the focus indicator never qualify.
func FocusTracts(tracts []model.Tract, focus config.FocusConfig) (map[string]bool, error) {
	if focus.Indicator == "" {
		return nil, nil
	}
	hasRatio := focus.MinMeanRatio > 0
	hasZ := focus.MinZScore > 0
	if hasRatio == hasZ {
		return nil, eris.Wrap(ErrConfig, "siting: focus requires exactly one of min_mean_ratio or min_zscore")
	}

	var values []float64
	for _, t := range tracts {
		if v, ok := t.Indicators[focus.Indicator]; ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, eris.Wrapf(ErrData, "siting: focus indicator %q has no values", focus.Indicator)
	}
	b := DeriveBounds(values)

	selected := make(map[string]bool)
	for _, t := range tracts {
		v, ok := t.Indicators[focus.Indicator]
		if !ok {
			continue
		}
		switch {
		case hasRatio:
			if b.Mean != 0 && v/b.Mean > focus.MinMeanRatio {
				selected[t.GEOID] = true
			}
		case hasZ:
			if b.Std > 0 && (v-b.Mean)/b.Std > focus.MinZScore {
				selected[t.GEOID] = true
			}
		}
	}

	zap.L().Info("siting: focus tracts selected",
		zap.String("indicator", focus.Indicator),
		zap.Int("selected", len(selected)),
		zap.Int("total", len(tracts)),
	)
	return selected, nil
}
