package nnindex

import (
	"math"

	"github.com/rotisserie/eris"
)

// standardErrorConstant is the Clark–Evans coefficient for the standard
// error of the mean nearest-neighbour distance under complete spatial
// randomness.
const standardErrorConstant = 0.26136

// Critical z values for two-tailed significance tests.
const (
	Z90 = 1.645
	Z95 = 1.96
	Z99 = 2.576
)

// Pattern classifies a point distribution.
type Pattern string

// Pattern values.
const (
	PatternClustered Pattern = "clustered"
	PatternRandom    Pattern = "random"
	PatternDispersed Pattern = "dispersed"
)

// Result holds the nearest-neighbour statistics of one analysis.
type Result struct {
	Units                string  `json:"units" yaml:"units"`
	ArealUnits           string  `json:"arealUnits" yaml:"arealUnits"`
	ObservedMeanDistance float64 `json:"observedMeanDistance" yaml:"observedMeanDistance"`
	ExpectedMeanDistance float64 `json:"expectedMeanDistance" yaml:"expectedMeanDistance"`
	NearestNeighborIndex float64 `json:"nearestNeighborIndex" yaml:"nearestNeighborIndex"`
	NumberOfPoints       int     `json:"numberOfPoints" yaml:"numberOfPoints"`
	ZScore               float64 `json:"zScore" yaml:"zScore"`
}

// Compute applies the Clark–Evans formulas to n points with the given
// observed mean nearest-neighbour distance over an area expressed in the
// square of the distance unit.
func Compute(n int, observedMeanDistance, area float64) (*Result, error) {
	if n < 1 {
		return nil, eris.Wrapf(ErrInvalidInput, "need at least 1 point, got %d", n)
	}
	if math.IsNaN(observedMeanDistance) || math.IsInf(observedMeanDistance, 0) || observedMeanDistance < 0 {
		return nil, eris.Wrapf(ErrInvalidInput, "observed mean distance %v", observedMeanDistance)
	}
	if math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
		return nil, eris.Wrapf(ErrDegenerateStudyArea, "area %v", area)
	}

	density := float64(n) / area
	expected := 1 / (2 * math.Sqrt(density))
	se := standardErrorConstant / math.Sqrt(float64(n)*density)

	return &Result{
		ObservedMeanDistance: observedMeanDistance,
		ExpectedMeanDistance: expected,
		NearestNeighborIndex: observedMeanDistance / expected,
		NumberOfPoints:       n,
		ZScore:               (observedMeanDistance - expected) / se,
	}, nil
}

// Significant reports whether |z| exceeds the critical value, e.g. Z95.
func (r *Result) Significant(critical float64) bool {
	return math.Abs(r.ZScore) > critical
}

// Pattern classifies the distribution at 95% confidence. Departures that are
// not significant are reported as random.
func (r *Result) Pattern() Pattern {
	switch {
	case !r.Significant(Z95):
		return PatternRandom
	case r.NearestNeighborIndex < 1:
		return PatternClustered
	default:
		return PatternDispersed
	}
}

// Properties returns the statistics as a GeoJSON property map.
func (r *Result) Properties() map[string]any {
	return map[string]any{
		"units":                r.Units,
		"arealUnits":           r.ArealUnits,
		"observedMeanDistance": r.ObservedMeanDistance,
		"expectedMeanDistance": r.ExpectedMeanDistance,
		"nearestNeighborIndex": r.NearestNeighborIndex,
		"numberOfPoints":       r.NumberOfPoints,
		"zScore":               r.ZScore,
	}
}
