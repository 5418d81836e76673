// Package config loads service configuration from an optional pricing.yml,
// a .env file and PRICING_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Log         LogConfig       `mapstructure:"log"`
	Latency     LatencyConfig   `mapstructure:"latency"`
	TaskTimeout time.Duration   `mapstructure:"task_timeout"`
	Catalogue   CatalogueConfig `mapstructure:"catalogue"`
	Session     SessionConfig   `mapstructure:"session"`
	Seed        bool            `mapstructure:"seed"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LatencyConfig sets the simulated processing time of each collaborator.
type LatencyConfig struct {
	Upload    time.Duration `mapstructure:"upload"`
	Recompute time.Duration `mapstructure:"recompute"`
	Search    time.Duration `mapstructure:"search"`
	Export    time.Duration `mapstructure:"export"`
}

type CatalogueConfig struct {
	Limit     int     `mapstructure:"limit"`
	Threshold float64 `mapstructure:"threshold"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

var defaults = map[string]any{
	"log.level":              "info",
	"log.format":             "console",
	"latency.upload":         "1s",
	"latency.recompute":      "800ms",
	"latency.search":         "800ms",
	"latency.export":         "1500ms",
	"task_timeout":           "30s",
	"catalogue.limit":        50,
	"catalogue.threshold":    0.5,
	"session.idle_ttl":       "2h",
	"session.sweep_schedule": "*/5 * * * *",
	"seed":                   true,
}

// Load reads pricing.yml from the given directories (the working directory
// when none are given), then applies PRICING_* overrides, e.g.
// PRICING_LATENCY_SEARCH=2s. A missing config file is not an error.
func Load(dirs ...string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	v.SetEnvPrefix("PRICING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that viper cannot express.
func (c Config) Validate() error {
	var errs []error
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.TaskTimeout <= 0 {
		errs = append(errs, errors.New("task_timeout must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"latency.upload":    c.Latency.Upload,
		"latency.recompute": c.Latency.Recompute,
		"latency.search":    c.Latency.Search,
		"latency.export":    c.Latency.Export,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.Catalogue.Limit < 1 {
		errs = append(errs, errors.New("catalogue.limit must be at least 1"))
	}
	if c.Catalogue.Threshold <= 0 || c.Catalogue.Threshold > 1 {
		errs = append(errs, errors.New("catalogue.threshold must be above 0 and at most 1"))
	}
	if c.Session.IdleTTL < 0 {
		errs = append(errs, errors.New("session.idle_ttl must not be negative"))
	}
	return errors.Join(errs...)
}
