package nnindex

import (
	"maps"
	"runtime"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/pointpattern/internal/geometry"
)

// Option configures Analyze.
type Option func(*options)

type options struct {
	studyArea      StudyAreaSpec
	properties     map[string]any
	units          geometry.Unit
	metric         geometry.Metric
	workers        int
	indexThreshold int
	allowMultiPart bool
}

func defaultOptions() options {
	return options{
		units:   geometry.Kilometers,
		metric:  geometry.MetricGeodesic,
		workers: 1,
	}
}

// WithStudyArea analyses against the given Polygon or MultiPolygon.
func WithStudyArea(g geom.T) Option {
	return func(o *options) {
		o.studyArea = StudyAreaSpec{Feature: &geojson.Feature{Geometry: g}}
	}
}

// WithStudyAreaFeature analyses against a polygon feature. Its properties
// are carried onto the output feature.
func WithStudyAreaFeature(f *geojson.Feature) Option {
	return func(o *options) {
		o.studyArea = StudyAreaSpec{Feature: f}
	}
}

// WithBBox analyses against the rectangle [minX, minY, maxX, maxY].
func WithBBox(bbox []float64) Option {
	return func(o *options) {
		o.studyArea = StudyAreaSpec{BBox: bbox}
	}
}

// WithProperties sets properties copied onto the output feature.
func WithProperties(props map[string]any) Option {
	return func(o *options) {
		o.properties = maps.Clone(props)
	}
}

// WithUnits sets the unit of geodesic distances. Areas use its square.
func WithUnits(u geometry.Unit) Option {
	return func(o *options) {
		if u != "" {
			o.units = u
		}
	}
}

// WithMetric selects geodesic or planar measurement.
func WithMetric(m geometry.Metric) Option {
	return func(o *options) {
		if m != "" {
			o.metric = m
		}
	}
}

// WithWorkers spreads the nearest-neighbour search over n goroutines.
// n <= 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// WithSpatialIndex switches planar searches of at least threshold points to
// a quadtree. Zero disables the index.
func WithSpatialIndex(threshold int) Option {
	return func(o *options) {
		o.indexThreshold = threshold
	}
}

// WithMultiPartStudyArea accepts MultiPolygon study areas, summing the area
// of all parts, instead of rejecting them with ErrMultiPartStudyArea.
func WithMultiPartStudyArea(allow bool) Option {
	return func(o *options) {
		o.allowMultiPart = allow
	}
}
