// Package geospatial reads and writes point-pattern features in PostGIS.
package geospatial

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/pointpattern/internal/db"
	"github.com/sells-group/pointpattern/internal/featureio"
	"github.com/sells-group/pointpattern/internal/geometry"
)

// DefaultSRID is the spatial reference of lon/lat data.
const DefaultSRID = 4326

// ErrStudyAreaNotFound is returned when no row matches a study-area lookup.
var ErrStudyAreaNotFound = eris.New("geospatial: study area not found")

// Columns names the geometry and identifier columns of a table.
type Columns struct {
	Geom string
	ID   string
}

func (c Columns) withDefaults() Columns {
	if c.Geom == "" {
		c.Geom = "geom"
	}
	if c.ID == "" {
		c.ID = "id"
	}
	return c
}

// QueryOptions filters LoadFeatures.
type QueryOptions struct {
	Columns Columns
	// BBox keeps rows whose geometry intersects the box (SRID 4326).
	BBox *geometry.BBox
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// LoadFeatures reads the geometries of table as features ordered by the id
// column. Rows with NULL geometry are skipped.
func LoadFeatures(ctx context.Context, pool db.Pool, table db.Table, opts QueryOptions) (*geojson.FeatureCollection, error) {
	cols := opts.Columns.withDefaults()
	geomCol := pgx.Identifier{cols.Geom}.Sanitize()
	idCol := pgx.Identifier{cols.ID}.Sanitize()

	var (
		where []string
		args  []any
	)
	where = append(where, geomCol+" IS NOT NULL")
	if b := opts.BBox; b != nil {
		args = append(args, b.MinX, b.MinY, b.MaxX, b.MaxY)
		where = append(where, fmt.Sprintf("%s && ST_MakeEnvelope($1, $2, $3, $4, %d)", geomCol, DefaultSRID))
	}

	sql := fmt.Sprintf(`SELECT %s::text, ST_AsEWKB(%s) FROM %s WHERE %s ORDER BY %s`,
		idCol, geomCol, table.Sanitize(), strings.Join(where, " AND "), idCol)
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "geospatial: query features from %s", table)
	}
	defer rows.Close()

	fc := &geojson.FeatureCollection{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, eris.Wrap(err, "geospatial: scan feature row")
		}
		g, err := featureio.DecodeWKB(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "geospatial: feature %s", id)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         id,
			Geometry:   g,
			Properties: map[string]any{"source": table.String()},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "geospatial: iterate feature rows")
	}

	zap.L().Debug("geospatial: loaded features",
		zap.String("table", table.String()),
		zap.Int("count", len(fc.Features)),
	)
	return fc, nil
}

// LoadStudyArea reads the polygon whose id column equals id.
func LoadStudyArea(ctx context.Context, pool db.Pool, table db.Table, cols Columns, id string) (*geojson.Feature, error) {
	cols = cols.withDefaults()
	sql := fmt.Sprintf(`SELECT ST_AsEWKB(%s) FROM %s WHERE %s::text = $1 LIMIT 1`,
		pgx.Identifier{cols.Geom}.Sanitize(), table.Sanitize(), pgx.Identifier{cols.ID}.Sanitize())

	var raw []byte
	if err := pool.QueryRow(ctx, sql, id).Scan(&raw); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrStudyAreaNotFound, "%s id %s", table, id)
		}
		return nil, eris.Wrap(err, "geospatial: query study area")
	}

	g, err := featureio.DecodeWKB(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "geospatial: study area %s", id)
	}
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
	default:
		return nil, eris.Errorf("geospatial: study area %s is %T, not a polygon", id, g)
	}

	return &geojson.Feature{
		ID:         id,
		Geometry:   g,
		Properties: map[string]any{"source": table.String()},
	}, nil
}
