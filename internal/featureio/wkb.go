package featureio

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// DecodeWKB parses WKB or EWKB bytes, as returned by PostGIS ST_AsEWKB.
// Empty input yields nil, nil.
func DecodeWKB(data []byte) (geom.T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "featureio: decode WKB")
	}
	return g, nil
}

// EncodeEWKB converts g to little-endian EWKB tagged with srid. The caller's
// geometry is not modified. Returns nil, nil for a nil geometry.
func EncodeEWKB(g geom.T, srid int) ([]byte, error) {
	if g == nil {
		return nil, nil
	}

	var tagged geom.T
	switch t := g.(type) {
	case *geom.Point:
		tagged = t.Clone().SetSRID(srid)
	case *geom.MultiPoint:
		tagged = t.Clone().SetSRID(srid)
	case *geom.LineString:
		tagged = t.Clone().SetSRID(srid)
	case *geom.MultiLineString:
		tagged = t.Clone().SetSRID(srid)
	case *geom.Polygon:
		tagged = t.Clone().SetSRID(srid)
	case *geom.MultiPolygon:
		tagged = t.Clone().SetSRID(srid)
	default:
		return nil, eris.Errorf("featureio: encode EWKB: unsupported geometry %T", g)
	}

	data, err := ewkb.Marshal(tagged, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "featureio: encode EWKB")
	}
	return data, nil
}
