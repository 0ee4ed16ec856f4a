package siting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/event-siting/internal/model"
)

func TestJoin(t *testing.T) {
	idx, err := BuildIndex([]model.Tract{
		squareTract("T1", -1, -1, 1, 1, nil),
	})
	require.NoError(t, err)

	pois := []model.PointOfInterest{
		{ID: "p1", Lon: 0, Lat: 0},
		{ID: "p2", Lon: 50, Lat: 50},
		{ID: "p3", Lon: math.NaN(), Lat: 0},
		{ID: "p4", Lon: 200, Lat: 0},
		{ID: "p5", Lon: 1, Lat: 0}, // on the boundary
	}

	joined := Join(pois, idx)
	require.Len(t, joined, len(pois))

	assert.True(t, joined[0].Matched())
	assert.Equal(t, "T1", joined[0].GEOID)

	assert.False(t, joined[1].Matched())
	assert.Equal(t, model.ReasonOutsideTracts, joined[1].Reason)

	assert.False(t, joined[2].Matched())
	assert.Equal(t, model.ReasonInvalidCoords, joined[2].Reason)

	assert.False(t, joined[3].Matched())
	assert.Equal(t, model.ReasonInvalidCoords, joined[3].Reason)

	assert.True(t, joined[4].Matched())
	assert.Equal(t, "T1", joined[4].GEOID)

	// Input order is preserved.
	for i, j := range joined {
		assert.Equal(t, pois[i].ID, j.POI.ID)
	}
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		name string
		lon  float64
		lat  float64
		want bool
	}{
		{name: "origin", lon: 0, lat: 0, want: true},
		{name: "extremes", lon: -180, lat: 90, want: true},
		{name: "lon out of range", lon: 180.1, lat: 0, want: false},
		{name: "lat out of range", lon: 0, lat: -90.5, want: false},
		{name: "nan lat", lon: 0, lat: math.NaN(), want: false},
		{name: "inf lon", lon: math.Inf(1), lat: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validCoordinate(tt.lon, tt.lat))
		})
	}
}
