package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Centroid returns the mean of the vertices of g. The closing vertex of each
// polygon ring is skipped so it is not counted twice. Geometry collections
// contribute the vertices of all their members.
func Centroid(g geom.T) (geom.Coord, error) {
	calc := xy.NewPointCentroidCalculator()
	var n int
	err := eachVertex(g, func(c geom.Coord) {
		calc.AddCoord(c)
		n++
	})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyGeometry
	}
	return calc.GetCentroid(), nil
}

// eachVertex calls fn for every vertex of g, skipping ring closures.
func eachVertex(g geom.T, fn func(geom.Coord)) error {
	switch t := g.(type) {
	case nil:
		return ErrEmptyGeometry
	case *geom.Point, *geom.MultiPoint, *geom.LineString, *geom.MultiLineString:
		walkFlat(g.FlatCoords(), g.Stride(), 0, len(g.FlatCoords()), fn)
	case *geom.LinearRing:
		walkRings(t.FlatCoords(), t.Stride(), 0, []int{len(t.FlatCoords())}, fn)
	case *geom.Polygon:
		walkRings(t.FlatCoords(), t.Stride(), 0, t.Ends(), fn)
	case *geom.MultiPolygon:
		offset := 0
		for _, ends := range t.Endss() {
			walkRings(t.FlatCoords(), t.Stride(), offset, ends, fn)
			if len(ends) > 0 {
				offset = ends[len(ends)-1]
			}
		}
	case *geom.GeometryCollection:
		for _, child := range t.Geoms() {
			if err := eachVertex(child, fn); err != nil && !eris.Is(err, ErrEmptyGeometry) {
				return err
			}
		}
	default:
		return eris.Wrapf(ErrUnsupportedGeometry, "%T", g)
	}
	return nil
}

func walkRings(flat []float64, stride, offset int, ends []int, fn func(geom.Coord)) {
	for _, end := range ends {
		stop := end
		if end-offset > stride && ringClosed(flat, stride, offset, end) {
			stop = end - stride
		}
		walkFlat(flat, stride, offset, stop, fn)
		offset = end
	}
}

func walkFlat(flat []float64, stride, start, stop int, fn func(geom.Coord)) {
	for i := start; i+stride <= stop; i += stride {
		fn(geom.Coord(flat[i : i+stride]))
	}
}

func ringClosed(flat []float64, stride, start, end int) bool {
	last := end - stride
	return flat[start] == flat[last] && flat[start+1] == flat[last+1]
}
