package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanfare-live/fanfare/internal/config"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := config.Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, int64(10_000_000), cfg.Platform.BoostFee)
	assert.Equal(t, 7*24*time.Hour, cfg.Platform.BoostDuration.Duration)
	assert.Equal(t, 8*7*24*time.Hour, cfg.Platform.FundingWindow.Duration)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.False(t, cfg.Postgres.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.S3.Enabled)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"unknown_mode", func(c *config.Config) { c.Mode = "replay" }, "unknown mode"},
		{"unknown_log_level", func(c *config.Config) { c.LogLevel = "trace" }, "unknown log_level"},
		{"both_key_sources", func(c *config.Config) {
			c.Platform.OwnerPrivateKey = "ab"
			c.Platform.EncryptedKeyPath = "owner.key.json"
			c.Platform.KeyPassword = "pw"
		}, "mutually exclusive"},
		{"encrypted_key_without_password", func(c *config.Config) {
			c.Platform.EncryptedKeyPath = "owner.key.json"
		}, "key_password is required"},
		{"zero_boost_fee", func(c *config.Config) { c.Platform.BoostFee = 0 }, "boost_fee"},
		{"zero_funding_window", func(c *config.Config) { c.Platform.FundingWindow.Duration = 0 }, "funding_window"},
		{"zero_objectif_floor", func(c *config.Config) { c.Platform.ObjectifFloor = 0 }, "objectif_floor"},
		{"zero_max_campaigns", func(c *config.Config) { c.Platform.MaxCampaignsPerArtist = 0 }, "max_campaigns_per_artist"},
		{"empty_base_uri", func(c *config.Config) { c.Platform.MetadataBaseURI = "" }, "metadata_base_uri"},
		{"postgres_enabled_no_host", func(c *config.Config) {
			c.Postgres.Enabled = true
			c.Postgres.Host = ""
		}, "postgres: host"},
		{"redis_enabled_no_addr", func(c *config.Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}, "redis: addr"},
		{"s3_enabled_no_bucket", func(c *config.Config) {
			c.S3.Enabled = true
			c.S3.Bucket = ""
		}, "s3: bucket"},
		{"bad_server_port", func(c *config.Config) { c.Server.Port = 70000 }, "server: port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_DSNSkipsHostChecks(t *testing.T) {
	cfg := config.Defaults()
	cfg.Postgres.Enabled = true
	cfg.Postgres.Host = ""
	cfg.Postgres.Database = ""
	cfg.Postgres.DSN = "postgres://user:pass@db:5432/fanfare"
	assert.NoError(t, cfg.Validate())
}

func TestRedactedConfig_HidesSecrets(t *testing.T) {
	cfg := config.Defaults()
	cfg.Platform.OwnerPrivateKey = "deadbeef"
	cfg.Postgres.DSN = "postgres://user:secret@db:5432/fanfare"
	cfg.Postgres.Password = "secret"
	cfg.Redis.Password = "secret"
	cfg.S3.SecretKey = "secret"
	cfg.Server.APIKey = "secret"
	cfg.Notify.TelegramToken = "secret"

	red := config.RedactedConfig(&cfg)
	assert.NotContains(t, red.Platform.OwnerPrivateKey, "deadbeef")
	assert.NotContains(t, red.Postgres.DSN, "secret")
	assert.NotEqual(t, "secret", red.Postgres.Password)
	assert.NotEqual(t, "secret", red.Redis.Password)
	assert.NotEqual(t, "secret", red.S3.SecretKey)
	assert.NotEqual(t, "secret", red.Server.APIKey)
	assert.NotEqual(t, "secret", red.Notify.TelegramToken)

	// The original is untouched.
	assert.Equal(t, "deadbeef", cfg.Platform.OwnerPrivateKey)
}
