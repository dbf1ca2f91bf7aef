// Package geometry provides the planar and geodesic primitives used by point
// pattern analysis: bounding boxes, centroids, areas and point distances.
//
// Geodesic geometries use [lon, lat] degree coordinates. Distances are
// great-circle on a sphere of radius EarthRadius; areas use orb's equatorial
// radius and treat ring edges as straight in lon/lat. Planar geometries are treated as Cartesian and carry whatever
// unit their coordinates are expressed in.
package geometry

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371008.8

// Sentinel errors returned by geometry operations.
var (
	ErrEmptyGeometry       = eris.New("geometry: empty geometry")
	ErrUnsupportedGeometry = eris.New("geometry: unsupported geometry type")
	ErrInvalidBBox         = eris.New("geometry: invalid bounding box")
)

// Metric selects how distances and areas are measured.
type Metric string

// Supported metrics.
const (
	MetricGeodesic Metric = "geodesic"
	MetricPlanar   Metric = "planar"
)

// ParseMetric parses a metric name. An empty string yields MetricGeodesic.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricGeodesic:
		return MetricGeodesic, nil
	case MetricPlanar:
		return MetricPlanar, nil
	default:
		return "", eris.Errorf("geometry: unknown metric %q", s)
	}
}

// Unit is a length unit for geodesic distances. Areas use its square.
type Unit string

// Supported units.
const (
	Kilometers    Unit = "kilometers"
	Meters        Unit = "meters"
	Miles         Unit = "miles"
	NauticalMiles Unit = "nauticalmiles"
	Feet          Unit = "feet"
	Yards         Unit = "yards"
)

var metersPerUnit = map[Unit]float64{
	Kilometers:    1000,
	Meters:        1,
	Miles:         1609.344,
	NauticalMiles: 1852,
	Feet:          0.3048,
	Yards:         0.9144,
}

var unitAliases = map[string]Unit{
	"km":     Kilometers,
	"m":      Meters,
	"mi":     Miles,
	"nmi":    NauticalMiles,
	"ft":     Feet,
	"yd":     Yards,
	"metres": Meters,
}

// ParseUnit parses a unit name or common abbreviation. An empty string
// yields Kilometers.
func ParseUnit(s string) (Unit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return Kilometers, nil
	}
	if u, ok := unitAliases[key]; ok {
		return u, nil
	}
	if _, ok := metersPerUnit[Unit(key)]; ok {
		return Unit(key), nil
	}
	return "", eris.Errorf("geometry: unknown unit %q", s)
}

// FromMeters converts a length in meters to u.
func (u Unit) FromMeters(m float64) float64 {
	return m / u.factor()
}

// FromSquareMeters converts an area in square meters to square u.
func (u Unit) FromSquareMeters(a float64) float64 {
	f := u.factor()
	return a / (f * f)
}

// Areal returns the name of the squared unit, e.g. "kilometers²".
func (u Unit) Areal() string {
	return string(u) + "²"
}

func (u Unit) factor() float64 {
	if f, ok := metersPerUnit[u]; ok {
		return f
	}
	return metersPerUnit[Kilometers]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
