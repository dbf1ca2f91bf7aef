package nnindex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_UnitSquare(t *testing.T) {
	res, err := Compute(4, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 4, res.NumberOfPoints)
	assert.InDelta(t, 1.0, res.ObservedMeanDistance, 1e-12)
	assert.InDelta(t, 0.25, res.ExpectedMeanDistance, 1e-12)
	assert.InDelta(t, 4.0, res.NearestNeighborIndex, 1e-12)
	// se = 0.26136 / sqrt(4 * 4) = 0.06534
	assert.InDelta(t, 0.75/0.06534, res.ZScore, 1e-9)
}

func TestCompute_ZeroObserved(t *testing.T) {
	res, err := Compute(10, 0, 100)
	require.NoError(t, err)
	assert.Zero(t, res.NearestNeighborIndex)
	assert.Less(t, res.ZScore, -Z99)
	assert.Equal(t, PatternClustered, res.Pattern())
}

func TestCompute_IndexMatchesRatio(t *testing.T) {
	res, err := Compute(37, 2.5, 812.3)
	require.NoError(t, err)
	assert.InDelta(t, res.ObservedMeanDistance/res.ExpectedMeanDistance, res.NearestNeighborIndex, 1e-15)
}

func TestCompute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		observed float64
		area     float64
		want     error
	}{
		{name: "no points", n: 0, observed: 1, area: 1, want: ErrInvalidInput},
		{name: "negative distance", n: 3, observed: -1, area: 1, want: ErrInvalidInput},
		{name: "nan distance", n: 3, observed: math.NaN(), area: 1, want: ErrInvalidInput},
		{name: "zero area", n: 3, observed: 1, area: 0, want: ErrDegenerateStudyArea},
		{name: "negative area", n: 3, observed: 1, area: -4, want: ErrDegenerateStudyArea},
		{name: "infinite area", n: 3, observed: 1, area: math.Inf(1), want: ErrDegenerateStudyArea},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.n, tt.observed, tt.area)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResult_Pattern(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want Pattern
	}{
		{name: "clustered", r: Result{NearestNeighborIndex: 0.4, ZScore: -3}, want: PatternClustered},
		{name: "dispersed", r: Result{NearestNeighborIndex: 1.8, ZScore: 4}, want: PatternDispersed},
		{name: "insignificant low index", r: Result{NearestNeighborIndex: 0.9, ZScore: -1.2}, want: PatternRandom},
		{name: "at threshold", r: Result{NearestNeighborIndex: 1.1, ZScore: 1.96}, want: PatternRandom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Pattern())
		})
	}
}

func TestResult_Significant(t *testing.T) {
	r := Result{ZScore: -2.0}
	assert.True(t, r.Significant(Z90))
	assert.True(t, r.Significant(Z95))
	assert.False(t, r.Significant(Z99))
}

func TestResult_Properties(t *testing.T) {
	r := Result{Units: "kilometers", ArealUnits: "kilometers²", NumberOfPoints: 3, ZScore: 1.5}
	props := r.Properties()
	assert.Equal(t, "kilometers", props["units"])
	assert.Equal(t, "kilometers²", props["arealUnits"])
	assert.Equal(t, 3, props["numberOfPoints"])
	assert.Equal(t, 1.5, props["zScore"])
	assert.Len(t, props, 7)
}
