package nnindex

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func pointFeature(x, y float64) *geojson.Feature {
	return &geojson.Feature{Geometry: geom.NewPointFlat(geom.XY, []float64{x, y})}
}

func pointCollection(coords ...[2]float64) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for _, c := range coords {
		fc.Features = append(fc.Features, pointFeature(c[0], c[1]))
	}
	return fc
}

func gridCollection(k int, spacing float64) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			fc.Features = append(fc.Features, pointFeature(float64(i)*spacing, float64(j)*spacing))
		}
	}
	return fc
}

// lcg is a tiny deterministic generator so test point sets are reproducible.
type lcg uint64

func (l *lcg) next() float64 {
	*l = *l*6364136223846793005 + 1442695040888963407
	return float64(uint64(*l)>>11) / (1 << 53)
}

func randomCollection(n int, seed uint64, size float64) *geojson.FeatureCollection {
	r := lcg(seed)
	fc := &geojson.FeatureCollection{}
	for i := 0; i < n; i++ {
		fc.Features = append(fc.Features, pointFeature(r.next()*size, r.next()*size))
	}
	return fc
}
