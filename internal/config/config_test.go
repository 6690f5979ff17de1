package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("UPLINK_BUCKET", "media-bucket")
	t.Setenv("UPLINK_DATABASE_DSN", "postgres://localhost/uplink")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Provider)
	assert.Equal(t, "media-bucket", cfg.Bucket)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 3, cfg.MaxConcurrent)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingBucket(t *testing.T) {
	t.Setenv("UPLINK_DATABASE_DSN", "postgres://localhost/uplink")

	_, err := Load(context.Background())
	assert.ErrorIs(t, err, ErrBucketRequired)
}

func TestLoadUnknownProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("UPLINK_PROVIDER", "gcs")

	_, err := Load(context.Background())
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("UPLINK_PROVIDER", "azure")
	t.Setenv("UPLINK_AZURE_ACCOUNT_URL", "https://acct.blob.core.windows.net")
	t.Setenv("UPLINK_MAX_CONCURRENT", "8")
	t.Setenv("UPLINK_LOG_LEVEL", "debug")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "azure", cfg.Provider)
	assert.Equal(t, "https://acct.blob.core.windows.net", cfg.AzureAccountURL)
	assert.Equal(t, 8, cfg.MaxConcurrent)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConcurrencyBounds(t *testing.T) {
	setRequired(t)
	t.Setenv("UPLINK_MAX_CONCURRENT", "0")

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := &Config{
		Provider:        "s3",
		Bucket:          "b",
		SecretAccessKey: "super-secret",
		DatabaseDSN:     "postgres://user:pw@host/db",
		AuthToken:       "tok",
	}
	s := cfg.String()
	assert.NotContains(t, s, "super-secret")
	assert.NotContains(t, s, "pw@host")
	assert.NotContains(t, s, "tok")
}
