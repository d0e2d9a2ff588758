package verify

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Defaults for the controller's two tunables.
const (
	// DefaultMaxIdentityAttempts is how many confirmed identity
	// mismatches end the call.
	DefaultMaxIdentityAttempts = 2

	// DefaultTenureThresholdMonths is the stated-versus-application
	// tenure difference that triggers the clarification prompt.
	DefaultTenureThresholdMonths = 24
)

// Config holds the controller tunables. These are the only knobs the
// core contract exposes; everything else lives in the flow table.
type Config struct {
	// MaxIdentityAttempts is the number of confirmed identity mismatches
	// after which the session routes to the identity failure terminal.
	MaxIdentityAttempts int `yaml:"max_identity_attempts" validate:"required,min=1,max=10"`

	// JobTenureThresholdMonths is the absolute difference, in months,
	// between stated and on-file job tenure beyond which a clarification
	// is solicited once.
	JobTenureThresholdMonths int `yaml:"job_tenure_threshold_months" validate:"required,min=1,max=600"`
}

// DefaultConfig returns the production controller configuration.
func DefaultConfig() Config {
	return Config{
		MaxIdentityAttempts:      DefaultMaxIdentityAttempts,
		JobTenureThresholdMonths: DefaultTenureThresholdMonths,
	}
}

// Package-level validator for controller configuration.
var configValidator = validator.New()

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("controller configuration validation failed: %w", err)
	}
	return nil
}
