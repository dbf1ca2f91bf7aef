package nnindex

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/pointpattern/internal/geometry"
)

// ExtractCentroids reduces each feature to its centroid, in input order.
func ExtractCentroids(features []*geojson.Feature) ([]geom.Coord, error) {
	points := make([]geom.Coord, 0, len(features))
	for i, f := range features {
		if f == nil || f.Geometry == nil {
			return nil, eris.Wrapf(ErrInvalidInput, "feature %d has no geometry", i)
		}
		c, err := geometry.Centroid(f.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "nnindex: centroid of feature %d", i)
		}
		points = append(points, c)
	}
	return points, nil
}
