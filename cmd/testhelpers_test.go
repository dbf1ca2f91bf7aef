package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/pointpattern/internal/config"
	"github.com/sells-group/pointpattern/internal/store"
)

// unitSquareCorners is the worked example: four corners of the unit square
// analysed over the unit square give R = 4 and z ≈ 11.478.
var unitSquareCorners = [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

func pointCollection(coords [][2]float64) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for _, c := range coords {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{c[0], c[1]}),
			Properties: map[string]any{},
		})
	}
	return fc
}

func pointCollectionJSON(coords [][2]float64) string {
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts, fmt.Sprintf(
			`{"type":"Feature","geometry":{"type":"Point","coordinates":[%g,%g]},"properties":{}}`, c[0], c[1]))
	}
	return `{"type":"FeatureCollection","features":[` + strings.Join(parts, ",") + `]}`
}

func planarDefaults() config.AnalysisConfig {
	return config.AnalysisConfig{Units: "kilometers", Metric: "planar", Workers: 1}
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}
