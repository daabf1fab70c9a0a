// Package config provides configuration management for the Sharp Line engine.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/sharp-line/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("eventtypes", validateEventTypes)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateEventTypes requires the decay map to cover exactly the recognized
// event types — unknown keys fail fast rather than silently configuring
// nothing
func validateEventTypes(fl validator.FieldLevel) bool {
	decay, ok := fl.Field().Interface().(map[string]DecayConfig)
	if !ok {
		return false
	}
	if len(decay) != len(models.EventTypes) {
		return false
	}
	for _, t := range models.EventTypes {
		if _, present := decay[string(t)]; !present {
			return false
		}
	}
	return true
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	e := &cfg.Engine

	// Tier bands must be strictly increasing above the minimum threshold
	if !(cfg.Engine.MinEdgeThreshold <= e.ModerateEdge &&
		e.ModerateEdge < e.StrongEdge &&
		e.StrongEdge < e.VeryStrongEdge) {
		return fmt.Errorf("edge tier bands must satisfy min_edge_threshold <= moderate_edge < strong_edge < very_strong_edge")
	}

	if e.MaxSinglePositionFraction > e.MaxAggregateExposure {
		return fmt.Errorf("max_single_position_fraction cannot exceed max_aggregate_exposure_fraction")
	}

	if e.MinStakeFraction >= e.MaxSinglePositionFraction {
		return fmt.Errorf("min_stake_fraction must be below max_single_position_fraction")
	}

	if e.PoorWinRate >= e.StrongWinRate {
		return fmt.Errorf("poor_win_rate must be below strong_win_rate")
	}

	for name, d := range e.Decay {
		if d.Floor < 0 || d.Floor > 1 {
			return fmt.Errorf("decay floor for %s must be between 0 and 1", name)
		}
		if d.HalfLifeHours <= 0 {
			return fmt.Errorf("decay half-life for %s must be positive", name)
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "eventtypes":
			errMsg += fmt.Sprintf("- Field '%s' must configure decay for exactly the recognized event types\n", field)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s (value '%v')\n", field, tag, value)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
