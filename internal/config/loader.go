// Package config provides configuration management for the Sharp Line engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
// and validates the result before returning it.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix("SHARP_LINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields, tolerating a missing config file so the engine can be configured
// entirely from the environment.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("SHARP_LINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setEngineDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setEngineDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sharp-line")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	// Participant availability persists until superseded, so it decays
	// slowly toward a high floor. Weather-style conditions are time-boxed
	// to the event window and decay fast toward zero.
	v.SetDefault("engine.decay.participant_unavailable.half_life_hours", 168.0)
	v.SetDefault("engine.decay.participant_unavailable.floor", 0.6)
	v.SetDefault("engine.decay.participant_limited.half_life_hours", 96.0)
	v.SetDefault("engine.decay.participant_limited.floor", 0.4)
	v.SetDefault("engine.decay.adverse_environment.half_life_hours", 12.0)
	v.SetDefault("engine.decay.adverse_environment.floor", 0.0)
	v.SetDefault("engine.decay.travel_burden.half_life_hours", 48.0)
	v.SetDefault("engine.decay.travel_burden.floor", 0.1)
	v.SetDefault("engine.decay.rest_disadvantage.half_life_hours", 48.0)
	v.SetDefault("engine.decay.rest_disadvantage.floor", 0.1)

	v.SetDefault("engine.compounding_factor", 0.5)
	v.SetDefault("engine.min_source_samples", 10)
	v.SetDefault("engine.source_smoothing", 0.2)
	v.SetDefault("engine.neutral_confidence_multiplier", 0.5)

	v.SetDefault("engine.min_edge_threshold", 0.5)
	v.SetDefault("engine.moderate_edge", 1.0)
	v.SetDefault("engine.strong_edge", 2.0)
	v.SetDefault("engine.very_strong_edge", 3.0)
	v.SetDefault("engine.confidence_floor", 0.4)

	v.SetDefault("engine.fractional_kelly", 0.5)
	v.SetDefault("engine.max_single_position_fraction", 0.05)
	v.SetDefault("engine.max_aggregate_exposure_fraction", 0.20)
	v.SetDefault("engine.min_stake_fraction", 0.002)
	v.SetDefault("engine.probability_per_point", 0.027)
	v.SetDefault("engine.odds_factor", 0.909)

	v.SetDefault("engine.min_report_sample_size", 30)
	v.SetDefault("engine.strong_win_rate", 0.56)
	v.SetDefault("engine.poor_win_rate", 0.47)
	v.SetDefault("engine.report_cache_ttl_seconds", 60)

	v.SetDefault("engine.max_concurrent_evaluations", 8)
}
