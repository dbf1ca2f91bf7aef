package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Area returns the area enclosed by a Polygon or MultiPolygon, holes
// excluded. Geodesic areas are in square meters on a sphere of radius
// orb.EarthRadius; planar areas are in the
// square of the coordinate unit. Parts of a MultiPolygon are summed.
func Area(g geom.T, metric Metric) (float64, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		return ringsArea(t.FlatCoords(), t.Stride(), 0, t.Ends(), metric), nil
	case *geom.MultiPolygon:
		var total float64
		offset := 0
		for _, ends := range t.Endss() {
			total += ringsArea(t.FlatCoords(), t.Stride(), offset, ends, metric)
			if len(ends) > 0 {
				offset = ends[len(ends)-1]
			}
		}
		return total, nil
	case nil:
		return 0, ErrEmptyGeometry
	default:
		return 0, eris.Wrapf(ErrUnsupportedGeometry, "area of %T", g)
	}
}

// ringsArea returns the outer ring area minus the hole areas of one polygon.
func ringsArea(flat []float64, stride, offset int, ends []int, metric Metric) float64 {
	var area float64
	for i, end := range ends {
		ring := flat[offset:end]
		a := ringArea(ring, stride, metric)
		if i == 0 {
			area += a
		} else {
			area -= a
		}
		offset = end
	}
	return area
}

func ringArea(ring []float64, stride int, metric Metric) float64 {
	planar := math.Abs(xy.SignedArea(layoutFor(stride), ring))
	if metric == MetricPlanar || planar == 0 {
		return planar
	}
	return sphericalRingArea(ring, stride)
}

// sphericalRingArea measures a lon/lat ring on the sphere. Edges follow
// straight lines in lon/lat space, so bounding-box rings are exact.
func sphericalRingArea(ring []float64, stride int) float64 {
	n := len(ring) / stride
	r := make(orb.Ring, 0, n)
	for i := 0; i < n; i++ {
		r = append(r, orb.Point{ring[i*stride], ring[i*stride+1]})
	}
	return geo.Area(r)
}

func layoutFor(stride int) geom.Layout {
	switch stride {
	case 3:
		return geom.XYZ
	case 4:
		return geom.XYZM
	default:
		return geom.XY
	}
}
