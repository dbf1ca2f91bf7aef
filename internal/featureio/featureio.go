// Package featureio loads feature collections from GeoJSON, ESRI shapefiles
// and WKT files, and writes GeoJSON.
package featureio

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Stdin is the path that reads GeoJSON from standard input.
const Stdin = "-"

// Load reads a feature collection, picking the decoder from the file
// extension: .geojson/.json, .shp or .wkt.
func Load(path string) (*geojson.FeatureCollection, error) {
	if path == Stdin {
		return ReadGeoJSON(os.Stdin)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		return loadWith(path, ReadGeoJSON)
	case ".wkt":
		return loadWith(path, ReadWKT)
	case ".shp":
		return ReadShapefile(path)
	default:
		return nil, eris.Errorf("featureio: unsupported file type %q", ext)
	}
}

// LoadStudyArea reads the first feature of path, which must be polygonal.
func LoadStudyArea(path string) (*geojson.Feature, error) {
	fc, err := Load(path)
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, eris.Errorf("featureio: %s has no features", path)
	}
	f := fc.Features[0]
	switch f.Geometry.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return f, nil
	default:
		return nil, eris.Errorf("featureio: study area in %s must be a polygon, got %T", path, f.Geometry)
	}
}

func loadWith(path string, read func(io.Reader) (*geojson.FeatureCollection, error)) (*geojson.FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "featureio: open %s", path)
	}
	defer func() { _ = f.Close() }()
	return read(f)
}
