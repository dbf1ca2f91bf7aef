package featureio

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// ReadShapefile reads every record of a shapefile. Attribute values become
// string properties keyed by field name; records without a usable shape are
// skipped.
func ReadShapefile(shpPath string) (*geojson.FeatureCollection, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "featureio: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	fc := &geojson.FeatureCollection{}
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		g := shapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}

		props := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				props[name] = val
			}
		}
		fc.Features = append(fc.Features, &geojson.Feature{Geometry: g, Properties: props})
	}

	if skipped > 0 {
		zap.L().Debug("featureio: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return fc, nil
}

// shapeToGeom converts a go-shp shape to a go-geom geometry, or nil for
// unsupported and empty shapes.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PointM:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.MultiPoint:
		if len(s.Points) == 0 {
			return nil
		}
		return geom.NewMultiPointFlat(geom.XY, flatPoints(s.Points))
	case *shp.PolyLine:
		return partsToLines(s.Parts, s.Points)
	case *shp.PolyLineZ:
		return partsToLines(s.Parts, s.Points)
	case *shp.Polygon:
		return partsToPolygons(s.Parts, s.Points)
	case *shp.PolygonZ:
		return partsToPolygons(s.Parts, s.Points)
	default:
		return nil
	}
}

// splitParts returns the flat coordinates of each part.
func splitParts(parts []int32, points []shp.Point) [][]float64 {
	out := make([][]float64, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		out = append(out, flatPoints(points[start:end]))
	}
	return out
}

func partsToLines(parts []int32, points []shp.Point) geom.T {
	lines := splitParts(parts, points)
	switch len(lines) {
	case 0:
		return nil
	case 1:
		return geom.NewLineStringFlat(geom.XY, lines[0])
	}

	mls := geom.NewMultiLineString(geom.XY)
	for i, flat := range lines {
		if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("featureio: skipping malformed linestring part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// partsToPolygons groups shapefile rings into polygons. Outer rings are
// clockwise and start a new polygon; counter-clockwise rings are holes of
// the polygon before them.
func partsToPolygons(parts []int32, points []shp.Point) geom.T {
	var polys []*geom.Polygon
	for i, flat := range splitParts(parts, points) {
		if len(flat) < 8 {
			continue
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)
		hole := xy.IsRingCounterClockwise(geom.XY, flat)
		if !hole || len(polys) == 0 {
			polys = append(polys, geom.NewPolygon(geom.XY))
		}
		if err := polys[len(polys)-1].Push(ring); err != nil {
			zap.L().Debug("featureio: skipping malformed polygon ring", zap.Int("part", i), zap.Error(err))
		}
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i, p := range polys {
		if err := mp.Push(p); err != nil {
			zap.L().Debug("featureio: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}
	return mp
}

func flatPoints(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}
