package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/pointpattern/internal/config"
	"github.com/sells-group/pointpattern/internal/featureio"
	"github.com/sells-group/pointpattern/internal/geometry"
	"github.com/sells-group/pointpattern/internal/geospatial"
	"github.com/sells-group/pointpattern/internal/nnindex"
	"github.com/sells-group/pointpattern/internal/store"
)

// analysisParams are the per-request settings of an analysis. Zero values
// fall back to the analysis section of the config.
type analysisParams struct {
	Units          string         `json:"units,omitempty"`
	Metric         string         `json:"metric,omitempty"`
	BBox           []float64      `json:"bbox,omitempty"`
	Workers        *int           `json:"workers,omitempty"`
	IndexThreshold *int           `json:"indexThreshold,omitempty"`
	AllowMultiPart *bool          `json:"allowMultiPart,omitempty"`
	Properties     map[string]any `json:"properties,omitempty"`
}

// options resolves p against defaults into analysis options and the record
// stored with the run.
func (p analysisParams) options(defaults config.AnalysisConfig, studyArea *geojson.Feature) ([]nnindex.Option, store.RunOptions, error) {
	unitName := p.Units
	if unitName == "" {
		unitName = defaults.Units
	}
	unit, err := geometry.ParseUnit(unitName)
	if err != nil {
		return nil, store.RunOptions{}, eris.Wrap(nnindex.ErrInvalidInput, err.Error())
	}

	metricName := p.Metric
	if metricName == "" {
		metricName = defaults.Metric
	}
	metric, err := geometry.ParseMetric(metricName)
	if err != nil {
		return nil, store.RunOptions{}, eris.Wrap(nnindex.ErrInvalidInput, err.Error())
	}

	workers := defaults.Workers
	if p.Workers != nil {
		workers = *p.Workers
	}
	threshold := defaults.IndexThreshold
	if p.IndexThreshold != nil {
		threshold = *p.IndexThreshold
	}
	allowMulti := defaults.AllowMultiPart
	if p.AllowMultiPart != nil {
		allowMulti = *p.AllowMultiPart
	}

	opts := []nnindex.Option{
		nnindex.WithUnits(unit),
		nnindex.WithMetric(metric),
		nnindex.WithWorkers(workers),
		nnindex.WithSpatialIndex(threshold),
		nnindex.WithMultiPartStudyArea(allowMulti),
	}
	rec := store.RunOptions{
		Units:          string(unit),
		Metric:         string(metric),
		Workers:        workers,
		IndexThreshold: threshold,
		AllowMultiPart: allowMulti,
	}

	switch {
	case studyArea != nil:
		opts = append(opts, nnindex.WithStudyAreaFeature(studyArea))
		rec.StudyArea = "feature"
		if studyArea.ID != "" {
			rec.StudyArea = studyArea.ID
		}
	case p.BBox != nil:
		opts = append(opts, nnindex.WithBBox(p.BBox))
		rec.BBox = p.BBox
	}
	if len(p.Properties) > 0 {
		opts = append(opts, nnindex.WithProperties(p.Properties))
	}
	return opts, rec, nil
}

// analysisOutcome is the product of runAnalysis.
type analysisOutcome struct {
	Feature *geojson.Feature
	Result  *nnindex.Result
	RunID   string
}

// studyAreaSRID tags geodesic study areas as WGS 84. Planar coordinates
// carry no known reference system.
func studyAreaSRID(metric string) int {
	if metric == string(geometry.MetricGeodesic) {
		return geospatial.DefaultSRID
	}
	return 0
}

// runAnalysis analyses fc and, when st is non-nil, records the run whether
// or not it succeeded. A failure to record is logged, not returned.
func runAnalysis(ctx context.Context, st store.Store, source string, fc *geojson.FeatureCollection, studyArea *geojson.Feature, p analysisParams, defaults config.AnalysisConfig) (*analysisOutcome, error) {
	opts, rec, err := p.options(defaults, studyArea)
	if err != nil {
		return nil, err
	}

	feature, res, analyzeErr := nnindex.Analyze(ctx, fc, opts...)

	out := &analysisOutcome{Feature: feature, Result: res}
	if st != nil {
		run := &store.Run{Source: source, Options: rec, Result: res}
		if analyzeErr != nil {
			run.Error = analyzeErr.Error()
		} else if wkb, err := featureio.EncodeEWKB(feature.Geometry, studyAreaSRID(rec.Metric)); err != nil {
			zap.L().Warn("encode study area", zap.String("source", source), zap.Error(err))
		} else {
			run.StudyArea = wkb
		}
		if err := st.CreateRun(ctx, run); err != nil {
			zap.L().Error("record analysis run", zap.String("source", source), zap.Error(err))
		} else {
			out.RunID = run.ID
		}
	}

	if analyzeErr != nil {
		return out, analyzeErr
	}

	zap.L().Info("analysis complete",
		zap.String("source", source),
		zap.Int("points", res.NumberOfPoints),
		zap.Float64("nearest_neighbor_index", res.NearestNeighborIndex),
		zap.Float64("z_score", res.ZScore),
		zap.String("pattern", string(res.Pattern())),
	)
	return out, nil
}

// parseBBox parses "minX,minY,maxX,maxY".
func parseBBox(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, eris.Wrapf(geometry.ErrInvalidBBox, "parse %q", p)
		}
		vals = append(vals, v)
	}
	if _, err := geometry.NewBBox(vals); err != nil {
		return nil, err
	}
	return vals, nil
}
