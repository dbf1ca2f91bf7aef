package nnindex

import (
	"context"
	"maps"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/pointpattern/internal/geometry"
)

// PropertyKey is the output feature property holding the statistics.
const PropertyKey = "nearestNeighborAnalysis"

// Planar results are reported in the unit of the input coordinates.
const (
	planarUnits      = "coordinate"
	planarArealUnits = "coordinate²"
)

// Analyze runs the nearest-neighbour analysis over fc. It returns a new
// polygon feature for the study area whose properties carry the statistics
// under PropertyKey, alongside the statistics themselves. Neither fc nor a
// supplied study-area feature is modified.
func Analyze(ctx context.Context, fc *geojson.FeatureCollection, opts ...Option) (*geojson.Feature, *Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if fc == nil || len(fc.Features) < 2 {
		var n int
		if fc != nil {
			n = len(fc.Features)
		}
		return nil, nil, eris.Wrapf(ErrInvalidInput, "need at least 2 features, got %d", n)
	}
	n := len(fc.Features)

	area, err := ResolveStudyArea(fc.Features, o.studyArea, o.allowMultiPart)
	if err != nil {
		return nil, nil, err
	}

	rawArea, err := geometry.Area(area.Geometry, o.metric)
	if err != nil {
		return nil, nil, eris.Wrap(err, "nnindex: study area")
	}
	if rawArea <= 0 || math.IsNaN(rawArea) || math.IsInf(rawArea, 0) {
		return nil, nil, eris.Wrapf(ErrDegenerateStudyArea, "area %v", rawArea)
	}

	points, err := ExtractCentroids(fc.Features)
	if err != nil {
		return nil, nil, err
	}

	rawMean, err := MeanNearestDistance(ctx, points, SearchOptions{
		Metric:         o.metric,
		Workers:        o.workers,
		IndexThreshold: o.indexThreshold,
	})
	if err != nil {
		return nil, nil, err
	}

	observed, areaInUnits := rawMean, rawArea
	units, arealUnits := planarUnits, planarArealUnits
	if o.metric == geometry.MetricGeodesic {
		observed = o.units.FromMeters(rawMean)
		areaInUnits = o.units.FromSquareMeters(rawArea)
		units, arealUnits = string(o.units), o.units.Areal()
	}

	res, err := Compute(n, observed, areaInUnits)
	if err != nil {
		return nil, nil, err
	}
	res.Units = units
	res.ArealUnits = arealUnits

	maps.Copy(area.Properties, o.properties)
	area.Properties[PropertyKey] = res.Properties()

	zap.L().Debug("nnindex: analysis complete",
		zap.Int("points", n),
		zap.String("metric", string(o.metric)),
		zap.Float64("area", areaInUnits),
		zap.Float64("nearest_neighbor_index", res.NearestNeighborIndex),
		zap.Float64("z_score", res.ZScore),
	)

	return area, res, nil
}
