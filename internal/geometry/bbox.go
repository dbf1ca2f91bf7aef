package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// BBox is an axis-aligned bounding box [minX, minY, maxX, maxY].
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// NewBBox builds a BBox from an ordered four-number slice.
func NewBBox(v []float64) (BBox, error) {
	if len(v) != 4 {
		return BBox{}, eris.Wrapf(ErrInvalidBBox, "expected 4 values, got %d", len(v))
	}
	for _, f := range v {
		if !finite(f) {
			return BBox{}, eris.Wrap(ErrInvalidBBox, "non-finite value")
		}
	}
	b := BBox{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
	if b.MinX > b.MaxX || b.MinY > b.MaxY {
		return BBox{}, eris.Wrapf(ErrInvalidBBox, "min exceeds max in %v", v)
	}
	return b, nil
}

// BBoxOf returns the bounding box of every coordinate in geoms. Nil and empty
// geometries are ignored; ErrEmptyGeometry is returned if nothing remains.
func BBoxOf(geoms ...geom.T) (BBox, error) {
	bounds := geom.NewBounds(geom.XY)
	for _, g := range geoms {
		if err := extendBounds(bounds, g); err != nil {
			return BBox{}, err
		}
	}
	if bounds.IsEmpty() {
		return BBox{}, ErrEmptyGeometry
	}
	return BBox{
		MinX: bounds.Min(0),
		MinY: bounds.Min(1),
		MaxX: bounds.Max(0),
		MaxY: bounds.Max(1),
	}, nil
}

func extendBounds(bounds *geom.Bounds, g geom.T) error {
	switch t := g.(type) {
	case nil:
		return nil
	case *geom.GeometryCollection:
		for _, child := range t.Geoms() {
			if err := extendBounds(bounds, child); err != nil {
				return err
			}
		}
		return nil
	case *geom.Point, *geom.MultiPoint, *geom.LineString, *geom.LinearRing,
		*geom.MultiLineString, *geom.Polygon, *geom.MultiPolygon:
		if len(g.FlatCoords()) == 0 {
			return nil
		}
		bounds.Extend(g)
		return nil
	default:
		return eris.Wrapf(ErrUnsupportedGeometry, "%T", g)
	}
}

// PolygonFromBBox returns the rectangle covering b as a closed single-ring
// polygon, wound lower-left, lower-right, upper-right, upper-left.
func PolygonFromBBox(b BBox) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		b.MinX, b.MinY,
		b.MaxX, b.MinY,
		b.MaxX, b.MaxY,
		b.MinX, b.MaxY,
		b.MinX, b.MinY,
	}, []int{10})
}
