package featureio

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ReadGeoJSON decodes a FeatureCollection, a single Feature or a bare
// geometry. Features and geometries are wrapped in a one-element collection.
func ReadGeoJSON(r io.Reader) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "featureio: read geojson")
	}
	return DecodeGeoJSON(data)
}

// DecodeGeoJSON is ReadGeoJSON over an in-memory document.
func DecodeGeoJSON(data []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "featureio: decode geojson")
	}

	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "featureio: decode feature collection")
		}
		return &fc, nil
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrap(err, "featureio: decode feature")
		}
		return &geojson.FeatureCollection{Features: []*geojson.Feature{&f}}, nil
	case "":
		return nil, eris.New("featureio: geojson document has no type")
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrapf(err, "featureio: decode %s geometry", head.Type)
		}
		return &geojson.FeatureCollection{Features: []*geojson.Feature{{Geometry: g}}}, nil
	}
}

// WriteGeoJSON encodes v (a Feature, FeatureCollection or any JSON value)
// as indented JSON.
func WriteGeoJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "featureio: write geojson")
	}
	return nil
}
