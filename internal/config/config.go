// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrBucketRequired is returned when no storage bucket/container is set.
	ErrBucketRequired = errors.New("config: UPLINK_BUCKET is required")
	// ErrUnknownProvider is returned for providers other than s3 and azure.
	ErrUnknownProvider = errors.New("config: UPLINK_PROVIDER must be s3 or azure")
)

// Config holds all configuration for the uplink pipeline.
type Config struct {
	// Remote store settings
	Provider string `env:"UPLINK_PROVIDER, default=s3" validate:"oneof=s3 azure"`
	Bucket   string `env:"UPLINK_BUCKET, required"` // S3 bucket or Azure container
	Region   string `env:"UPLINK_REGION, default=us-east-1"`
	Endpoint string `env:"UPLINK_ENDPOINT"` // Optional custom S3-compatible endpoint

	// Credentials (optional: SDK default chains apply when empty)
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"`
	AzureAccountURL string `env:"UPLINK_AZURE_ACCOUNT_URL"`

	// Record store settings
	DatabaseDSN string `env:"UPLINK_DATABASE_DSN, required" json:"-"`

	// Auth service settings
	AuthBaseURL string `env:"UPLINK_AUTH_URL"`
	AuthToken   string `env:"UPLINK_AUTH_TOKEN" json:"-"`

	// Pipeline settings
	MaxConcurrent int `env:"UPLINK_MAX_CONCURRENT, default=3" validate:"gte=1,lte=16"`

	// Logging settings
	LogLevel string `env:"UPLINK_LOG_LEVEL, default=info" validate:"oneof=debug info warn error"`
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(ctx, cfg); err != nil {
		if strings.Contains(err.Error(), "UPLINK_BUCKET") {
			return nil, ErrBucketRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints beyond what envconfig enforces.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if verrs[0].Field() == "Provider" {
				return ErrUnknownProvider
			}
			return fmt.Errorf("config: invalid %s", verrs[0].Field())
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.Bucket == "" {
		return ErrBucketRequired
	}
	return nil
}

// String returns the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Provider: %s, Bucket: %s, Region: %s, Endpoint: %s, MaxConcurrent: %d, LogLevel: %s}",
		c.Provider, c.Bucket, c.Region, c.Endpoint, c.MaxConcurrent, c.LogLevel,
	)
}
