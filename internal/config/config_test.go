package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "pointpattern.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "kilometers", cfg.Analysis.Units)
	assert.Equal(t, "geodesic", cfg.Analysis.Metric)
	assert.Equal(t, 0, cfg.Analysis.Workers)
	assert.Equal(t, 2048, cfg.Analysis.IndexThreshold)
	assert.False(t, cfg.Analysis.AllowMultiPart)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "geom", cfg.PostGIS.GeomColumn)
	assert.Equal(t, "id", cfg.PostGIS.IDColumn)
	assert.Equal(t, 4326, cfg.PostGIS.SRID)
	assert.Empty(t, cfg.PostGIS.DatabaseURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/runs
log:
  level: debug
  format: console
analysis:
  units: miles
  metric: planar
  allow_multipart: true
server:
  port: 9090
  cors_origins:
    - https://maps.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "miles", cfg.Analysis.Units)
	assert.Equal(t, "planar", cfg.Analysis.Metric)
	assert.True(t, cfg.Analysis.AllowMultiPart)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://maps.example.com"}, cfg.Server.CORSOrigins)
	// Defaults still apply for unset values
	assert.Equal(t, 2048, cfg.Analysis.IndexThreshold)
	assert.Equal(t, "postgres://localhost/runs", cfg.PostGIS.URL(cfg.Store))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("POINTPATTERN_STORE_DRIVER", "postgres")
	t.Setenv("POINTPATTERN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("POINTPATTERN_SERVER_PORT", "3000")
	t.Setenv("POINTPATTERN_ANALYSIS_UNITS", "meters")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "meters", cfg.Analysis.Units)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "pointpattern.db"
	cfg.Analysis.Units = "kilometers"
	cfg.Analysis.Metric = "geodesic"
	cfg.Analysis.IndexThreshold = 2048
	cfg.Server.Port = 8080
	cfg.Server.RateLimit = 20
	cfg.Server.RateBurst = 40
	cfg.Server.MaxBodyBytes = 32 << 20
	cfg.PostGIS.SRID = 4326
	return cfg
}

func TestValidateAnalyze(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("analyze"))
	assert.NoError(t, cfg.Validate("runs"))
}

func TestValidateAnalysisFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Analysis.Units = "furlongs"
	cfg.Analysis.Metric = "manhattan"
	cfg.Analysis.Workers = -1

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis.units")
	assert.Contains(t, err.Error(), "analysis.metric")
	assert.Contains(t, err.Error(), "analysis.workers must be >= 0")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_RateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateBurst = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_burst")

	cfg.Server.RateLimit = 0
	assert.NoError(t, cfg.Validate("serve"), "burst is ignored when rate limiting is off")
}

func TestValidateImport(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("import")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "postgis.database_url is required")

	cfg.PostGIS.DatabaseURL = "postgres://localhost/gis"
	assert.NoError(t, cfg.Validate("import"))
}

func TestValidateImport_FallsBackToStoreURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/main"

	assert.NoError(t, cfg.Validate("import"))
	assert.Equal(t, "postgres://localhost/main", cfg.PostGIS.URL(cfg.Store))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
