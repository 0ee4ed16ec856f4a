package siting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/event-siting/internal/model"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name     string
		contribs []model.Contribution
		want     float64
		wantOK   bool
	}{
		{
			name: "single indicator",
			contribs: []model.Contribution{
				{Indicator: "poverty_rate", Normalized: 0.8, Weight: 1},
			},
			want:   0.8,
			wantOK: true,
		},
		{
			name: "weighted mean",
			contribs: []model.Contribution{
				{Indicator: "a", Normalized: 1, Weight: 3},
				{Indicator: "b", Normalized: 0, Weight: 1},
			},
			want:   0.75,
			wantOK: true,
		},
		{
			name: "zero weight skipped and renormalized",
			contribs: []model.Contribution{
				{Indicator: "a", Normalized: 0.4, Weight: 2},
				{Indicator: "b", Normalized: 1, Weight: 0, Missing: true},
			},
			want:   0.4,
			wantOK: true,
		},
		{
			name: "no applicable weight",
			contribs: []model.Contribution{
				{Indicator: "a", Normalized: 0.4, Weight: 0},
			},
			wantOK: false,
		},
		{
			name:   "empty",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compose(tt.contribs)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}

func TestCompose_Monotonic(t *testing.T) {
	base := []model.Contribution{
		{Indicator: "a", Normalized: 0.3, Weight: 2},
		{Indicator: "b", Normalized: 0.6, Weight: 1},
	}
	lo, ok := Compose(base)
	require.True(t, ok)

	bumped := []model.Contribution{
		{Indicator: "a", Normalized: 0.5, Weight: 2},
		{Indicator: "b", Normalized: 0.6, Weight: 1},
	}
	hi, ok := Compose(bumped)
	require.True(t, ok)

	assert.Greater(t, hi, lo)
}

func TestCompose_BoundedByInputs(t *testing.T) {
	contribs := []model.Contribution{
		{Indicator: "a", Normalized: 0.2, Weight: 1},
		{Indicator: "b", Normalized: 0.9, Weight: 5},
		{Indicator: "c", Normalized: 0.5, Weight: 0.25},
	}
	got, ok := Compose(contribs)
	require.True(t, ok)
	assert.GreaterOrEqual(t, got, 0.2)
	assert.LessOrEqual(t, got, 0.9)
}
