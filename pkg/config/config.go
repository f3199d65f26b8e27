// Package config loads and validates client configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the full client configuration.
type Config struct {
	// ServerURL is the base URL of the graph server's data endpoint.
	ServerURL string `yaml:"server_url" validate:"required,url"`

	// Timeout bounds one network exchange (one batch post, one bulk chunk).
	Timeout time.Duration `yaml:"timeout"`

	// DefaultBatchSize is the chunk size bulk containers use when the call
	// site passes none.
	DefaultBatchSize int `yaml:"default_batch_size" validate:"omitempty,min=1,max=100000"`

	// FailurePolicy selects partial-failure behavior for batch submission:
	// "fail_fast" or "collect_partial".
	FailurePolicy string `yaml:"failure_policy" validate:"omitempty,oneof=fail_fast collect_partial"`

	// Compression enables snappy compression of request bodies.
	Compression bool `yaml:"compression"`

	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Scheme is "none", "token" (static bearer token) or "jwt" (short-lived
	// tokens minted per request from a shared signing secret).
	Scheme string `yaml:"scheme" validate:"omitempty,oneof=none token jwt"`

	// Token is the static bearer token for the "token" scheme.
	Token string `yaml:"token"`

	// Secret is the HMAC signing secret for the "jwt" scheme.
	Secret string `yaml:"secret"`

	// Subject is the subject claim for minted tokens.
	Subject string `yaml:"subject"`

	// TTL is the lifetime of minted tokens.
	TTL time.Duration `yaml:"ttl"`
}

// LoggingConfig configures the client's structured logger.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		ServerURL:        "http://localhost:7474/db/data",
		Timeout:          30 * time.Second,
		DefaultBatchSize: 1000,
		FailurePolicy:    "fail_fast",
		Auth:             AuthConfig{Scheme: "none", TTL: 5 * time.Minute},
		Logging:          LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file, fills unset fields with defaults and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks tag constraints plus the cross-field rules tags cannot
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	if c.Timeout < 0 {
		return errors.New("config: timeout cannot be negative")
	}

	switch c.Auth.Scheme {
	case "token":
		if c.Auth.Token == "" {
			return errors.New("config: auth scheme \"token\" requires a token")
		}
	case "jwt":
		if c.Auth.Secret == "" {
			return errors.New("config: auth scheme \"jwt\" requires a signing secret")
		}
		if c.Auth.TTL <= 0 {
			return errors.New("config: auth scheme \"jwt\" requires a positive ttl")
		}
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}
