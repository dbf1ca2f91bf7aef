package geospatial

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/pointpattern/internal/db"
	"github.com/sells-group/pointpattern/internal/featureio"
	"github.com/sells-group/pointpattern/internal/geometry"
)

func ewkbPoint(t *testing.T, x, y float64) []byte {
	t.Helper()
	b, err := featureio.EncodeEWKB(geom.NewPointFlat(geom.XY, []float64{x, y}), DefaultSRID)
	require.NoError(t, err)
	return b
}

func ewkbSquare(t *testing.T) []byte {
	t.Helper()
	poly := geometry.PolygonFromBBox(geometry.BBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1})
	b, err := featureio.EncodeEWKB(poly, DefaultSRID)
	require.NoError(t, err)
	return b
}

// ----------------------------------------------------------------------------
// LoadFeatures
// ----------------------------------------------------------------------------

func TestLoadFeatures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := mock.NewRows([]string{"id", "geom"}).
		AddRow("1", ewkbPoint(t, 0.25, 0.25)).
		AddRow("2", ewkbPoint(t, 0.75, 0.5))
	mock.ExpectQuery(`SELECT "id"::text, ST_AsEWKB\("geom"\) FROM "geo"."sites" WHERE "geom" IS NOT NULL ORDER BY "id"`).
		WillReturnRows(rows)

	fc, err := LoadFeatures(context.Background(), mock, db.Table{Schema: "geo", Name: "sites"}, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "1", fc.Features[0].ID)
	assert.Equal(t, "geo.sites", fc.Features[0].Properties["source"])

	pt, ok := fc.Features[1].Geometry.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, []float64{0.75, 0.5}, pt.FlatCoords())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFeatures_BBoxAndLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`ST_MakeEnvelope\(\$1, \$2, \$3, \$4, 4326\) ORDER BY "site_id" LIMIT \$5`).
		WithArgs(-1.0, -2.0, 1.0, 2.0, 10).
		WillReturnRows(mock.NewRows([]string{"id", "geom"}).AddRow("a", ewkbPoint(t, 0, 0)))

	opts := QueryOptions{
		Columns: Columns{ID: "site_id"},
		BBox:    &geometry.BBox{MinX: -1, MinY: -2, MaxX: 1, MaxY: 2},
		Limit:   10,
	}
	fc, err := LoadFeatures(context.Background(), mock, db.Table{Name: "sites"}, opts)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFeatures_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(fmt.Errorf("relation does not exist"))

	_, err = LoadFeatures(context.Background(), mock, db.Table{Name: "missing"}, QueryOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query features from missing")
}

func TestLoadFeatures_BadWKB(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT`).
		WillReturnRows(mock.NewRows([]string{"id", "geom"}).AddRow("7", []byte{0x01, 0x02}))

	_, err = LoadFeatures(context.Background(), mock, db.Table{Name: "sites"}, QueryOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature 7")
}

// ----------------------------------------------------------------------------
// LoadStudyArea
// ----------------------------------------------------------------------------

func TestLoadStudyArea(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT ST_AsEWKB\("geom"\) FROM "geo"."parks" WHERE "id"::text = \$1`).
		WithArgs("42").
		WillReturnRows(mock.NewRows([]string{"geom"}).AddRow(ewkbSquare(t)))

	f, err := LoadStudyArea(context.Background(), mock, db.Table{Schema: "geo", Name: "parks"}, Columns{}, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", f.ID)
	_, ok := f.Geometry.(*geom.Polygon)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadStudyArea_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT ST_AsEWKB`).WithArgs("9").WillReturnError(pgx.ErrNoRows)

	_, err = LoadStudyArea(context.Background(), mock, db.Table{Name: "parks"}, Columns{}, "9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStudyAreaNotFound))
}

func TestLoadStudyArea_NotPolygon(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT ST_AsEWKB`).WithArgs("1").
		WillReturnRows(mock.NewRows([]string{"geom"}).AddRow(ewkbPoint(t, 1, 1)))

	_, err = LoadStudyArea(context.Background(), mock, db.Table{Name: "parks"}, Columns{}, "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a polygon")
}

// ----------------------------------------------------------------------------
// ImportFeatures
// ----------------------------------------------------------------------------

func TestImportFeatures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "geo"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "geo"."sites"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS "sites_geom_idx"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"geo", "sites"}, []string{"properties", "geom"}).WillReturnResult(2)

	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{
		{Geometry: geom.NewPointFlat(geom.XY, []float64{1, 2}), Properties: map[string]any{"name": "a"}},
		{Geometry: nil},
		{Geometry: geom.NewPointFlat(geom.XY, []float64{3, 4})},
	}}

	n, err := ImportFeatures(context.Background(), mock, db.Table{Schema: "geo", Name: "sites"}, fc, DefaultSRID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportFeatures_CreateTableError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(fmt.Errorf("permission denied"))

	_, err = ImportFeatures(context.Background(), mock, db.Table{Name: "sites"}, &geojson.FeatureCollection{}, DefaultSRID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create table sites")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportFeatures_UnsupportedGeometry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE INDEX`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{
		{Geometry: geom.NewGeometryCollection()},
	}}
	_, err = ImportFeatures(context.Background(), mock, db.Table{Name: "sites"}, fc, DefaultSRID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature 0")
}
