// Package config provides configuration management for the Sabiscore
// prediction service.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("league", validateLeague)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
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
	}
	return false
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// validateLeague validates canonical league names: lowercase alphanumerics
func validateLeague(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// validateCrossField runs checks spanning multiple fields
func validateCrossField(cfg *Config) error {
	if cfg.Betting.KellyFraction > cfg.Betting.MaxBankrollFraction*20 {
		return fmt.Errorf(
			"betting.kelly_fraction %.3f is implausibly large against max_bankroll_fraction %.3f",
			cfg.Betting.KellyFraction, cfg.Betting.MaxBankrollFraction,
		)
	}
	if cfg.Calibration.IsotonicMinSamples < cfg.Calibration.MinSamples {
		return fmt.Errorf(
			"calibration.isotonic_min_samples %d must be at least min_samples %d",
			cfg.Calibration.IsotonicMinSamples, cfg.Calibration.MinSamples,
		)
	}
	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database is enabled but host/name/user are incomplete")
		}
	}
	seen := map[string]string{}
	for _, lc := range cfg.Leagues {
		for _, alias := range append([]string{lc.Name}, lc.Aliases...) {
			key := strings.ToLower(alias)
			if prev, ok := seen[key]; ok && prev != lc.Name {
				return fmt.Errorf("league alias %q claimed by both %q and %q", alias, prev, lc.Name)
			}
			seen[key] = lc.Name
		}
	}
	return nil
}

// formatValidationErrors converts validator errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, fmt.Sprintf("%s failed on %q", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
