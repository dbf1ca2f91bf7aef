package nnindex

import (
	"maps"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/pointpattern/internal/geometry"
)

// StudyAreaSpec describes the analysis region. At most one field is used:
// Feature wins over BBox; when both are empty the dataset's bounding box is
// used.
type StudyAreaSpec struct {
	Feature *geojson.Feature
	BBox    []float64
}

// ResolveStudyArea returns a new polygon feature for the analysis region.
// The caller's feature is never modified.
func ResolveStudyArea(features []*geojson.Feature, spec StudyAreaSpec, allowMultiPart bool) (*geojson.Feature, error) {
	switch {
	case spec.Feature != nil:
		return polygonFeature(spec.Feature, allowMultiPart)

	case spec.BBox != nil:
		b, err := geometry.NewBBox(spec.BBox)
		if err != nil {
			return nil, eris.Wrap(err, "nnindex: study area bbox")
		}
		return bboxFeature(b), nil

	default:
		geoms := make([]geom.T, 0, len(features))
		for _, f := range features {
			if f != nil {
				geoms = append(geoms, f.Geometry)
			}
		}
		b, err := geometry.BBoxOf(geoms...)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidInput, "bounding box of dataset: %v", err)
		}
		return bboxFeature(b), nil
	}
}

func bboxFeature(b geometry.BBox) *geojson.Feature {
	return &geojson.Feature{
		Geometry:   geometry.PolygonFromBBox(b),
		Properties: map[string]any{},
	}
}

func polygonFeature(f *geojson.Feature, allowMultiPart bool) (*geojson.Feature, error) {
	out := &geojson.Feature{
		ID:         f.ID,
		Geometry:   f.Geometry,
		Properties: maps.Clone(f.Properties),
	}
	if out.Properties == nil {
		out.Properties = map[string]any{}
	}

	switch g := f.Geometry.(type) {
	case *geom.Polygon:
		return out, nil
	case *geom.MultiPolygon:
		switch n := g.NumPolygons(); {
		case n == 1:
			out.Geometry = g.Polygon(0)
			return out, nil
		case n == 0:
			return nil, eris.Wrap(geometry.ErrEmptyGeometry, "nnindex: study area")
		case !allowMultiPart:
			return nil, eris.Wrapf(ErrMultiPartStudyArea, "%d polygons", n)
		default:
			zap.L().Warn("nnindex: multi-part study area, areas of all parts are summed",
				zap.Int("parts", n),
			)
			return out, nil
		}
	case nil:
		return nil, eris.Wrap(geometry.ErrEmptyGeometry, "nnindex: study area")
	default:
		return nil, eris.Wrapf(geometry.ErrUnsupportedGeometry, "nnindex: study area must be a polygon, got %T", g)
	}
}
