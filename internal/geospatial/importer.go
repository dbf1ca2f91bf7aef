package geospatial

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/pointpattern/internal/db"
	"github.com/sells-group/pointpattern/internal/featureio"
)

// importColumns are the columns written by ImportFeatures.
var importColumns = []string{"properties", "geom"}

// EnsureTable creates table (and its schema) with an id, a JSONB property
// bag and a geometry column in srid, plus a GiST index on the geometry.
func EnsureTable(ctx context.Context, pool db.Pool, table db.Table, srid int) error {
	if table.Schema != "" {
		sql := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, db.Table{Name: table.Schema}.Sanitize())
		if _, err := pool.Exec(ctx, sql); err != nil {
			return eris.Wrapf(err, "geospatial: create schema %s", table.Schema)
		}
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id         BIGSERIAL PRIMARY KEY,
	properties JSONB NOT NULL DEFAULT '{}'::jsonb,
	geom       geometry(Geometry, %d) NOT NULL
)`, table.Sanitize(), srid)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "geospatial: create table %s", table)
	}

	index := db.Table{Name: table.Name + "_geom_idx"}.Sanitize()
	sql := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (geom)`, index, table.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return eris.Wrapf(err, "geospatial: create index on %s", table)
	}
	return nil
}

// ImportFeatures creates table if needed and bulk-copies fc into it as EWKB.
// Features without geometry are skipped.
func ImportFeatures(ctx context.Context, pool db.Pool, table db.Table, fc *geojson.FeatureCollection, srid int) (int64, error) {
	if err := EnsureTable(ctx, pool, table, srid); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(fc.Features))
	var skipped int
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			skipped++
			continue
		}
		wkb, err := featureio.EncodeEWKB(f.Geometry, srid)
		if err != nil {
			return 0, eris.Wrapf(err, "geospatial: feature %d", i)
		}
		props := f.Properties
		if props == nil {
			props = map[string]any{}
		}
		propsJSON, err := json.Marshal(props)
		if err != nil {
			return 0, eris.Wrapf(err, "geospatial: marshal properties of feature %d", i)
		}
		rows = append(rows, []any{string(propsJSON), wkb})
	}

	if skipped > 0 {
		zap.L().Warn("geospatial: skipped features without geometry",
			zap.String("table", table.String()),
			zap.Int("skipped", skipped),
		)
	}

	n, err := db.CopyInto(ctx, pool, table, importColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "geospatial: import features")
	}
	return n, nil
}
