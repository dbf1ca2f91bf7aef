package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/pointpattern/internal/db"
	"github.com/sells-group/pointpattern/internal/geometry"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	PostGIS  PostGISConfig  `yaml:"postgis" mapstructure:"postgis"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run history store.
type StoreConfig struct {
	Driver      string         `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string         `yaml:"database_url" mapstructure:"database_url"`
	Pool        *db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PostGISConfig configures the PostGIS feature source. An empty
// DatabaseURL falls back to store.database_url when the store is postgres.
type PostGISConfig struct {
	DatabaseURL string         `yaml:"database_url" mapstructure:"database_url"`
	GeomColumn  string         `yaml:"geom_column" mapstructure:"geom_column"`
	IDColumn    string         `yaml:"id_column" mapstructure:"id_column"`
	SRID        int            `yaml:"srid" mapstructure:"srid"`
	Pool        *db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// URL returns the connection string to use for PostGIS.
func (p PostGISConfig) URL(store StoreConfig) string {
	if p.DatabaseURL != "" {
		return p.DatabaseURL
	}
	if store.Driver == "postgres" {
		return store.DatabaseURL
	}
	return ""
}

// AnalysisConfig holds defaults for nearest-neighbour analyses.
type AnalysisConfig struct {
	Units          string `yaml:"units" mapstructure:"units"`
	Metric         string `yaml:"metric" mapstructure:"metric"`
	Workers        int    `yaml:"workers" mapstructure:"workers"`
	IndexThreshold int    `yaml:"index_threshold" mapstructure:"index_threshold"`
	AllowMultiPart bool   `yaml:"allow_multipart" mapstructure:"allow_multipart"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port"`
	RateLimit    float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst    int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	MaxBodyBytes int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POINTPATTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "pointpattern.db")
	v.SetDefault("postgis.database_url", "")
	v.SetDefault("postgis.geom_column", "geom")
	v.SetDefault("postgis.id_column", "id")
	v.SetDefault("postgis.srid", 4326)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("analysis.units", "kilometers")
	v.SetDefault("analysis.metric", "geodesic")
	v.SetDefault("analysis.workers", 0)
	v.SetDefault("analysis.index_threshold", 2048)
	v.SetDefault("analysis.allow_multipart", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 32<<20)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Mode is one of
// "analyze", "serve", "import" or "runs".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if _, err := geometry.ParseUnit(c.Analysis.Units); err != nil {
		errs = append(errs, fmt.Sprintf("analysis.units: %v", err))
	}
	if _, err := geometry.ParseMetric(c.Analysis.Metric); err != nil {
		errs = append(errs, fmt.Sprintf("analysis.metric: %v", err))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, "analysis.workers must be >= 0")
	}
	if c.Analysis.IndexThreshold < 0 {
		errs = append(errs, "analysis.index_threshold must be >= 0")
	}

	switch mode {
	case "analyze", "runs":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
			errs = append(errs, "server.rate_burst must be >= 1 when rate limiting")
		}
		if c.Server.MaxBodyBytes <= 0 {
			errs = append(errs, "server.max_body_bytes must be > 0")
		}
	case "import":
		if c.PostGIS.URL(c.Store) == "" {
			errs = append(errs, "postgis.database_url is required")
		}
		if c.PostGIS.SRID <= 0 {
			errs = append(errs, "postgis.srid must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
