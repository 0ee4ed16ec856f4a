package siting

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/opencivic/event-siting/internal/config"
)

// Indicator directions recognized in config. An empty direction defaults to
// positive.
const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
)

// ValidateConfig checks that a SitingConfig is internally consistent. It
// covers everything checkable without the data; CheckSchema covers the rest.
// All failures are ErrConfig-kinded and surface before any scoring work.
func ValidateConfig(c config.SitingConfig) error {
	var errs []string

	if len(c.Indicators) == 0 {
		errs = append(errs, "at least one indicator is required")
	}

	var weightSum float64
	seen := make(map[string]bool, len(c.Indicators))
	for _, ind := range c.Indicators {
		if ind.Name == "" {
			errs = append(errs, "indicator name must not be empty")
			continue
		}
		if seen[ind.Name] {
			errs = append(errs, fmt.Sprintf("indicator %q is configured twice", ind.Name))
		}
		seen[ind.Name] = true
		if ind.Weight < 0 {
			errs = append(errs, fmt.Sprintf("indicator %q weight must be >= 0", ind.Name))
		}
		weightSum += ind.Weight
		switch ind.Direction {
		case "", DirectionPositive, DirectionNegative:
		default:
			errs = append(errs, fmt.Sprintf("indicator %q direction must be positive or negative, got %q", ind.Name, ind.Direction))
		}
		if (ind.Min == nil) != (ind.Max == nil) {
			errs = append(errs, fmt.Sprintf("indicator %q must set both min and max or neither", ind.Name))
		}
		if ind.Min != nil && ind.Max != nil && *ind.Max <= *ind.Min {
			errs = append(errs, fmt.Sprintf("indicator %q max must be > min", ind.Name))
		}
	}
	if len(c.Indicators) > 0 && weightSum <= 0 {
		errs = append(errs, "indicator weights must not all be zero")
	}

	switch c.Method {
	case MethodMinMax, MethodZScore:
	default:
		errs = append(errs, fmt.Sprintf("method must be %s or %s, got %q", MethodMinMax, MethodZScore, c.Method))
	}

	switch c.MissingPolicy {
	case PolicyMidpoint, PolicyExclude:
	default:
		errs = append(errs, fmt.Sprintf("missing_policy must be %s or %s, got %q", PolicyMidpoint, PolicyExclude, c.MissingPolicy))
	}

	if c.Focus.Indicator != "" {
		hasRatio := c.Focus.MinMeanRatio > 0
		hasZ := c.Focus.MinZScore > 0
		if hasRatio == hasZ {
			errs = append(errs, "focus requires exactly one of min_mean_ratio or min_zscore")
		}
	}

	if c.Workers < 0 {
		errs = append(errs, "workers must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Wrapf(ErrConfig, "siting: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// CheckSchema verifies that every configured indicator (and the focus
// indicator, if set) exists in the tract dataset's schema. Surfacing this at
// setup time keeps bad indicator names from failing deep inside scoring.
func CheckSchema(c config.SitingConfig, columns []string) error {
	known := make(map[string]bool, len(columns))
	for _, col := range columns {
		known[col] = true
	}

	var missing []string
	for _, ind := range c.Indicators {
		if !known[ind.Name] {
			missing = append(missing, ind.Name)
		}
	}
	if c.Focus.Indicator != "" && !known[c.Focus.Indicator] {
		missing = append(missing, c.Focus.Indicator)
	}

	if len(missing) > 0 {
		return eris.Wrapf(ErrConfig, "siting: indicators not found in tract dataset: %s", strings.Join(missing, ", "))
	}
	return nil
}
