package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/prasetya/wilayah/internal/remote"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Normalize NormalizeConfig   `yaml:"normalize"`
	Cache     CacheConfig       `yaml:"cache"`
	Remote    RemoteConfig      `yaml:"remote"`
	Serve     ServeConfig       `yaml:"serve"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Normalize.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	return c.Serve.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// NormalizeConfig holds the classification thresholds and pipeline sizing.
type NormalizeConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	TieMargin           float64 `yaml:"tie_margin"`
	Workers             int     `yaml:"workers"`
	BatchSize           int     `yaml:"batch_size"`
}

// Validate validates the normalization configuration.
func (c *NormalizeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ConfidenceThreshold, validation.Required, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&c.TieMargin, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
	)
}

// CacheConfig holds the snapshot cache location and staleness policy.
// An empty Dir means the per-user cache directory.
type CacheConfig struct {
	Dir           string `yaml:"dir"`
	StalenessDays int    `yaml:"staleness_days"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StalenessDays, validation.Required, validation.Min(1)),
	)
}

// StalenessWindow returns the staleness policy as a duration.
func (c *CacheConfig) StalenessWindow() time.Duration {
	return time.Duration(c.StalenessDays) * 24 * time.Hour
}

// RemoteConfig identifies the upstream dataset repository.
type RemoteConfig struct {
	Owner          string `yaml:"owner"`
	Repo           string `yaml:"repo"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Owner, validation.Required),
		validation.Field(&c.Repo, validation.Required),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
	)
}

// Timeout returns the request timeout as a duration.
func (c *RemoteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ServeConfig holds the lookup service configuration.
type ServeConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *ServeConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the serve configuration.
func (c *ServeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Normalize: NormalizeConfig{
			ConfidenceThreshold: 80,
			TieMargin:           5,
			Workers:             4,
			BatchSize:           500,
		},
		Cache: CacheConfig{
			StalenessDays: 7,
		},
		Remote: RemoteConfig{
			Owner:          remote.DefaultOwner,
			Repo:           remote.DefaultRepo,
			TimeoutSeconds: 30,
		},
		Serve: ServeConfig{
			Port: 8080,
		},
	}
}
