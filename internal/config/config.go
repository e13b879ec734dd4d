// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nepaliabroad/resources/internal/resource"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	DB         DBConfig         `mapstructure:"db"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Validation ValidationConfig `mapstructure:"validation"`
	Sources    SourcesConfig    `mapstructure:"sources"`
}

// ServerConfig controls the metrics/health HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// FetchConfig governs the ethical-fetch discipline shared by the scraper
// and the validator.
type FetchConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	DelaySeconds   float64       `mapstructure:"delay_seconds"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RobotsCacheTTL time.Duration `mapstructure:"robots_cache_ttl"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// ValidationConfig governs the record-validation run.
type ValidationConfig struct {
	StaleThresholdDays   int   `mapstructure:"stale_threshold_days"`
	BrokenStatusCodes    []int `mapstructure:"broken_status_codes"`
	LinkCheckConcurrency int   `mapstructure:"link_check_concurrency"`
}

// SourcesConfig lists the external sites records are collected from.
type SourcesConfig struct {
	Scholarships []resource.Source `mapstructure:"scholarships"`
	Visas        []resource.Source `mapstructure:"visas"`
	Jobs         []resource.Source `mapstructure:"jobs"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RESOURCES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("db.table", "resources")
	v.SetDefault("fetch.user_agent", "NepaliAbroadHelper/1.0 (+https://github.com/nepaliabroad/resources)")
	v.SetDefault("fetch.delay_seconds", 2.0)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.robots_cache_ttl", time.Hour)
	v.SetDefault("fetch.max_body_bytes", 5*1024*1024)
	v.SetDefault("validation.stale_threshold_days", 90)
	v.SetDefault("validation.broken_status_codes", []int{404, 403, 410, 500, 502, 503})
	v.SetDefault("validation.link_check_concurrency", 10)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.DelaySeconds < 0 {
		return fmt.Errorf("fetch.delay_seconds must be >= 0")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0")
	}
	if c.Validation.StaleThresholdDays <= 0 {
		return fmt.Errorf("validation.stale_threshold_days must be > 0")
	}
	if c.Validation.LinkCheckConcurrency <= 0 {
		return fmt.Errorf("validation.link_check_concurrency must be > 0")
	}
	for _, src := range c.AllSources() {
		if src.URL == "" {
			return fmt.Errorf("source %q has no url", src.Name)
		}
	}
	return nil
}

// RequestDelay returns the minimum inter-request interval.
func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.Fetch.DelaySeconds * float64(time.Second))
}

// RequestTimeout returns the per-request HTTP timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// AllSources flattens the configured source lists in category order.
func (c Config) AllSources() []resource.Source {
	out := make([]resource.Source, 0, len(c.Sources.Scholarships)+len(c.Sources.Visas)+len(c.Sources.Jobs))
	out = append(out, c.Sources.Scholarships...)
	out = append(out, c.Sources.Visas...)
	out = append(out, c.Sources.Jobs...)
	return out
}
