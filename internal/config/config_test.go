package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEBUG_MODE", "")
	c, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, ":3000", c.BindAddress)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, StorageDisk, c.Storage)
	assert.NotEmpty(t, c.SessionSecret)
	assert.False(t, c.RequirePhoto)
	assert.Equal(t, int64(10<<20), c.MaxUploadBytes())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DSN", "postgres://localhost/grams")
	t.Setenv("REQUIRE_PHOTO", "yes")
	t.Setenv("PHOTO_MAX_WIDTH", "640")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	c, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, c.DBDriver)
	assert.Equal(t, "postgres://localhost/grams", c.DSN)
	assert.True(t, c.RequirePhoto)
	assert.Equal(t, 640, c.PhotoMaxWidth)
	assert.Equal(t, 20, c.RateLimitPerMinute)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{"default", func(c *Config) { c.SessionSecret = "s" }, true},
		{"unknown driver", func(c *Config) { c.SessionSecret = "s"; c.DBDriver = "oracle" }, false},
		{"unknown storage", func(c *Config) { c.SessionSecret = "s"; c.Storage = "ftp" }, false},
		{"s3 without bucket", func(c *Config) { c.SessionSecret = "s"; c.Storage = StorageS3 }, false},
		{"missing secret", func(c *Config) {}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
