// Package config provides configuration management for the Sharp Line engine.
package config

import (
	"time"

	"github.com/yourusername/sharp-line/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	App     AppConfig     `mapstructure:"app" validate:"required"`
	Metrics MetricsConfig `mapstructure:"metrics" validate:"required"`
	Engine  EngineConfig  `mapstructure:"engine" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// DecayConfig represents the decay curve for one event type
type DecayConfig struct {
	HalfLifeHours float64 `mapstructure:"half_life_hours" validate:"required,gt=0"`
	Floor         float64 `mapstructure:"floor" validate:"gte=0,lte=1"`
}

// EngineConfig represents the fully-enumerated engine configuration. Unknown
// or inconsistent values fail validation at construction rather than
// defaulting deep inside the algorithms.
type EngineConfig struct {
	// Situational adjustment
	Decay             map[string]DecayConfig `mapstructure:"decay" validate:"required,eventtypes"`
	CompoundingFactor float64                `mapstructure:"compounding_factor" validate:"required,gt=0,lte=1"`

	// Source quality
	MinSourceSamples      int     `mapstructure:"min_source_samples" validate:"required,gt=0"`
	SourceSmoothing       float64 `mapstructure:"source_smoothing" validate:"required,gt=0,lte=1"`
	NeutralMultiplier     float64 `mapstructure:"neutral_confidence_multiplier" validate:"required,gt=0,lt=1"`

	// Edge classification
	MinEdgeThreshold    float64 `mapstructure:"min_edge_threshold" validate:"required,gt=0"`
	ModerateEdge        float64 `mapstructure:"moderate_edge" validate:"required,gt=0"`
	StrongEdge          float64 `mapstructure:"strong_edge" validate:"required,gt=0"`
	VeryStrongEdge      float64 `mapstructure:"very_strong_edge" validate:"required,gt=0"`
	ConfidenceFloor     float64 `mapstructure:"confidence_floor" validate:"gte=0,lte=1"`

	// Stake sizing
	FractionalKelly           float64 `mapstructure:"fractional_kelly" validate:"required,gt=0,lte=1"`
	MaxSinglePositionFraction float64 `mapstructure:"max_single_position_fraction" validate:"required,gt=0,lte=1"`
	MaxAggregateExposure      float64 `mapstructure:"max_aggregate_exposure_fraction" validate:"required,gt=0,lte=1"`
	MinStakeFraction          float64 `mapstructure:"min_stake_fraction" validate:"gte=0"`
	ProbabilityPerPoint       float64 `mapstructure:"probability_per_point" validate:"required,gt=0,lt=0.5"`
	OddsFactor                float64 `mapstructure:"odds_factor" validate:"required,gt=0"`

	// Calibration reporting
	MinReportSampleSize int     `mapstructure:"min_report_sample_size" validate:"required,gt=0"`
	StrongWinRate       float64 `mapstructure:"strong_win_rate" validate:"required,gt=0,lt=1"`
	PoorWinRate         float64 `mapstructure:"poor_win_rate" validate:"required,gt=0,lt=1"`
	ReportCacheTTL      int     `mapstructure:"report_cache_ttl_seconds" validate:"required,gt=0"`

	// Batch evaluation
	MaxConcurrentEvaluations int `mapstructure:"max_concurrent_evaluations" validate:"required,gt=0"`
}

// DecayFor returns the decay curve configured for an event type
func (c *EngineConfig) DecayFor(t models.EventType) DecayConfig {
	return c.Decay[string(t)]
}

// ReportCacheDuration returns the report cache TTL as a duration
func (c *EngineConfig) ReportCacheDuration() time.Duration {
	return time.Duration(c.ReportCacheTTL) * time.Second
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
