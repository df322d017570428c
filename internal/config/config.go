// Package config loads application configuration from file and environment
// and bootstraps the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Reduce  ReduceConfig  `yaml:"reduce" mapstructure:"reduce"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig points at the remote source datasets.
type SourcesConfig struct {
	TaxonomyURL string `yaml:"taxonomy_url" mapstructure:"taxonomy_url"`
	FlatGeoURL  string `yaml:"flat_geo_url" mapstructure:"flat_geo_url"`
	CensusURL   string `yaml:"census_url" mapstructure:"census_url"`
	FREDURL     string `yaml:"fred_url" mapstructure:"fred_url"`
	RedfinURL   string `yaml:"redfin_url" mapstructure:"redfin_url"`
	GeoJSONURL  string `yaml:"geojson_url" mapstructure:"geojson_url"`
}

// FetchConfig configures the HTTP fetcher.
type FetchConfig struct {
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	HostRate       float64       `yaml:"host_rate" mapstructure:"host_rate"`
	HostBurst      int           `yaml:"host_burst" mapstructure:"host_burst"`
}

// CacheConfig configures the state-scoped index cache.
type CacheConfig struct {
	// IndexURLTemplate expands {state} and {kind} into a per-state index
	// file URL.
	IndexURLTemplate string `yaml:"index_url_template" mapstructure:"index_url_template"`
}

// ReduceConfig configures the payload reducer.
type ReduceConfig struct {
	SampleSize int `yaml:"sample_size" mapstructure:"sample_size"`
}

// ServerConfig configures the query API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Source URLs default empty so env overrides bind through
	// AutomaticEnv; empty URLs are skipped by the loader.
	v.SetDefault("sources.taxonomy_url", "")
	v.SetDefault("sources.flat_geo_url", "")
	v.SetDefault("sources.census_url", "")
	v.SetDefault("sources.fred_url", "")
	v.SetDefault("sources.redfin_url", "")
	v.SetDefault("sources.geojson_url", "")
	v.SetDefault("cache.index_url_template", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("fetch.user_agent", "housing-atlas/1.0")
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.initial_backoff", "500ms")
	v.SetDefault("fetch.host_rate", 5)
	v.SetDefault("fetch.host_burst", 5)
	v.SetDefault("reduce.sample_size", 25)

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
