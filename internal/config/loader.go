// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Load a .env file via godotenv (non-fatal if absent; does not override
//     variables already present in the environment).
//  2. Process envconfig struct tags to populate the Config struct.
//  3. Validate the struct using go-playground/validator.
//  4. Resolve the operational timezone eagerly so a bad zone name fails at
//     startup instead of mid-cycle.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is a diagnostic error type returned by Load to aid debugging.
type ConfigError struct {
	Stage   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads, validates, and returns the process configuration.
func Load() (*Config, error) {
	// Step 1: .env file for local development. godotenv silently succeeds
	// when no file exists and never overrides existing environment variables.
	_ = godotenv.Load()

	// Step 2: envconfig with empty prefix, so tags are read verbatim
	// (envconfig:"DATABASE_URL" reads DATABASE_URL directly).
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Stage:   "parsing",
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	// Step 3: struct validation.
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Stage:   "validation",
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	// Step 4: the timezone must resolve; everything downstream assumes it.
	if _, err := time.LoadLocation(cfg.Batch.Timezone); err != nil {
		return nil, &ConfigError{
			Stage:   "validation",
			Message: fmt.Sprintf("invalid BATCH_TIMEZONE %q", cfg.Batch.Timezone),
			Err:     err,
		}
	}

	return &cfg, nil
}

// Location returns the resolved operational timezone. Load has already
// verified the zone name, so failure here is impossible in a configured
// process; the fallback keeps the method total.
func (c BatchConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
