package siting

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/event-siting/internal/config"
)

func f64(v float64) *float64 { return &v }

func validSiting() config.SitingConfig {
	return config.SitingConfig{
		Indicators: []config.IndicatorConfig{
			{Name: "poverty_rate", Weight: 1, Direction: DirectionPositive},
			{Name: "median_income", Weight: 0.5, Direction: DirectionNegative},
		},
		Method:        MethodMinMax,
		MissingPolicy: PolicyMidpoint,
		TopN:          10,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.SitingConfig)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *config.SitingConfig) {},
		},
		{
			name:   "valid with pinned bounds",
			mutate: func(c *config.SitingConfig) { c.Indicators[0].Min = f64(0); c.Indicators[0].Max = f64(1) },
		},
		{
			name:   "valid with focus ratio",
			mutate: func(c *config.SitingConfig) { c.Focus = config.FocusConfig{Indicator: "poverty_rate", MinMeanRatio: 1.5} },
		},
		{
			name:    "no indicators",
			mutate:  func(c *config.SitingConfig) { c.Indicators = nil },
			wantErr: "at least one indicator",
		},
		{
			name:    "empty name",
			mutate:  func(c *config.SitingConfig) { c.Indicators[0].Name = "" },
			wantErr: "name must not be empty",
		},
		{
			name:    "duplicate name",
			mutate:  func(c *config.SitingConfig) { c.Indicators[1].Name = c.Indicators[0].Name },
			wantErr: "configured twice",
		},
		{
			name:    "negative weight",
			mutate:  func(c *config.SitingConfig) { c.Indicators[0].Weight = -1 },
			wantErr: "weight must be >= 0",
		},
		{
			name: "all zero weights",
			mutate: func(c *config.SitingConfig) {
				c.Indicators[0].Weight = 0
				c.Indicators[1].Weight = 0
			},
			wantErr: "must not all be zero",
		},
		{
			name:    "bad direction",
			mutate:  func(c *config.SitingConfig) { c.Indicators[0].Direction = "down" },
			wantErr: "direction must be positive or negative",
		},
		{
			name:    "min without max",
			mutate:  func(c *config.SitingConfig) { c.Indicators[0].Min = f64(0) },
			wantErr: "both min and max or neither",
		},
		{
			name:    "max not above min",
			mutate:  func(c *config.SitingConfig) { c.Indicators[0].Min = f64(1); c.Indicators[0].Max = f64(1) },
			wantErr: "max must be > min",
		},
		{
			name:    "bad method",
			mutate:  func(c *config.SitingConfig) { c.Method = "rank" },
			wantErr: "method must be",
		},
		{
			name:    "bad missing policy",
			mutate:  func(c *config.SitingConfig) { c.MissingPolicy = "drop" },
			wantErr: "missing_policy must be",
		},
		{
			name:    "focus without threshold",
			mutate:  func(c *config.SitingConfig) { c.Focus = config.FocusConfig{Indicator: "poverty_rate"} },
			wantErr: "exactly one of min_mean_ratio or min_zscore",
		},
		{
			name: "focus with both thresholds",
			mutate: func(c *config.SitingConfig) {
				c.Focus = config.FocusConfig{Indicator: "poverty_rate", MinMeanRatio: 1.5, MinZScore: 2}
			},
			wantErr: "exactly one of min_mean_ratio or min_zscore",
		},
		{
			name:    "negative workers",
			mutate:  func(c *config.SitingConfig) { c.Workers = -2 },
			wantErr: "workers must be >= 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSiting()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckSchema(t *testing.T) {
	columns := []string{"poverty_rate", "median_income", "housing_loss_index"}

	cfg := validSiting()
	assert.NoError(t, CheckSchema(cfg, columns))

	cfg.Focus = config.FocusConfig{Indicator: "housing_loss_index", MinZScore: 1.5}
	assert.NoError(t, CheckSchema(cfg, columns))

	cfg.Indicators = append(cfg.Indicators, config.IndicatorConfig{Name: "transit_access", Weight: 1})
	err := CheckSchema(cfg, columns)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrConfig))
	assert.Contains(t, err.Error(), "transit_access")

	cfg = validSiting()
	cfg.Focus = config.FocusConfig{Indicator: "eviction_rate", MinZScore: 1.5}
	err = CheckSchema(cfg, columns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eviction_rate")
}
