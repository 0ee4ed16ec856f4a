//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/event-siting/internal/config"
	"github.com/opencivic/event-siting/internal/siting"
)

func baseTestConfig(t *testing.T) *config.Config {
	t.Helper()
	tmp := t.TempDir()
	return &config.Config{
		Inputs: config.InputsConfig{
			TractPath:            filepath.Join(tmp, "tracts.shp"),
			TractGEOIDField:      "GEOID",
			TractEPSG:            4326,
			IndicatorPath:        filepath.Join(tmp, "indicators.csv"),
			IndicatorGEOIDColumn: "GEOID",
			POIPath:              filepath.Join(tmp, "pois.csv"),
			POIEPSG:              4326,
			POIIDField:           "id",
			POILonField:          "lon",
			POILatField:          "lat",
			OutputDir:            filepath.Join(tmp, "out"),
		},
		Siting: config.SitingConfig{
			RunName: "test",
			Indicators: []config.IndicatorConfig{
				{Name: "poverty_rate", Weight: 1},
			},
			Method:        "minmax",
			MissingPolicy: "midpoint",
			TopN:          10,
		},
		Store: config.StoreConfig{Path: filepath.Join(tmp, "runs.db")},
	}
}

func TestSiteCmd_RunE_FailsOnValidation(t *testing.T) {
	cfg = baseTestConfig(t)
	cfg.Siting.Indicators = nil

	siteCmd.SetContext(context.Background())
	defer siteCmd.SetContext(context.TODO())

	err := siteCmd.RunE(siteCmd, nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, siting.ErrConfig))
}

func TestSiteCmd_RunE_FailsOnEPSGMismatch(t *testing.T) {
	cfg = baseTestConfig(t)
	cfg.Inputs.POIEPSG = 3857

	siteCmd.SetContext(context.Background())
	defer siteCmd.SetContext(context.TODO())

	err := siteCmd.RunE(siteCmd, nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, siting.ErrGeometry))
	assert.Contains(t, err.Error(), "must agree")
}

func TestValidateCmd_RunE(t *testing.T) {
	cfg = baseTestConfig(t)
	require.NoError(t, os.WriteFile(cfg.Inputs.IndicatorPath,
		[]byte("GEOID,poverty_rate\nT1,0.4\n"), 0o644))

	require.NoError(t, validateCmd.RunE(validateCmd, nil))

	cfg.Siting.Indicators = append(cfg.Siting.Indicators,
		config.IndicatorConfig{Name: "transit_access", Weight: 1})
	err := validateCmd.RunE(validateCmd, nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, siting.ErrConfig))
	assert.Contains(t, err.Error(), "transit_access")
}

func TestRunsCmd_RunE_EmptyHistory(t *testing.T) {
	cfg = baseTestConfig(t)

	runsCmd.SetContext(context.Background())
	defer runsCmd.SetContext(context.TODO())

	require.NoError(t, runsCmd.RunE(runsCmd, nil))
}

func TestApplySitingOverrides(t *testing.T) {
	cfg = baseTestConfig(t)

	require.NoError(t, siteCmd.Flags().Set("run-name", "hamilton"))
	require.NoError(t, siteCmd.Flags().Set("poi-types", "library, school ,"))
	require.NoError(t, siteCmd.Flags().Set("missing-policy", "exclude"))
	require.NoError(t, siteCmd.Flags().Set("top", "5"))
	require.NoError(t, siteCmd.Flags().Set("workers", "2"))
	defer func() {
		_ = siteCmd.Flags().Set("run-name", "")
		_ = siteCmd.Flags().Set("poi-types", "")
		_ = siteCmd.Flags().Set("missing-policy", "")
		_ = siteCmd.Flags().Set("top", "0")
		_ = siteCmd.Flags().Set("workers", "0")
	}()

	got := applySitingOverrides(siteCmd, cfg.Siting)
	assert.Equal(t, "hamilton", got.RunName)
	assert.Equal(t, []string{"library", "school"}, got.POITypes)
	assert.Equal(t, "exclude", got.MissingPolicy)
	assert.Equal(t, 5, got.TopN)
	assert.Equal(t, 2, got.Workers)

	// The base config is not mutated.
	assert.Equal(t, "test", cfg.Siting.RunName)
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "a,b,c", want: []string{"a", "b", "c"}},
		{in: " a , b ", want: []string{"a", "b"}},
		{in: "a,,b,", want: []string{"a", "b"}},
		{in: "", want: []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitAndTrim(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-10", truncate("exactly-10", 10))
	assert.Equal(t, "long-name…", truncate("long-name-overflow", 10))
}
