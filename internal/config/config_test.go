package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                   "development",
		APIBaseURL:            DefaultAPIBaseURL,
		RequestTimeoutSeconds: 60,
		SessionStore:          StoreSQLite,
		SessionDBPath:         "/tmp/session.db",
		ImageCacheSize:        100,
		JWTSecret:             "secure-secret-at-least-32-chars-long",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Defaults", func(c *Config) {}, false},
		{"Relative base URL", func(c *Config) { c.APIBaseURL = "/api" }, true},
		{"FTP base URL", func(c *Config) { c.APIBaseURL = "ftp://slurpsocial.app/api" }, true},
		{"Zero timeout", func(c *Config) { c.RequestTimeoutSeconds = 0 }, true},
		{"Negative rate", func(c *Config) { c.RequestsPerSecond = -1 }, true},
		{"Unknown store", func(c *Config) { c.SessionStore = "etcd" }, true},
		{"Redis store without URL", func(c *Config) { c.SessionStore = StoreRedis }, true},
		{"Redis store with URL", func(c *Config) {
			c.SessionStore = StoreRedis
			c.RedisURL = "redis://localhost:6379"
		}, false},
		{"Memory store", func(c *Config) { c.SessionStore = StoreMemory }, false},
		{"Production over http", func(c *Config) {
			c.Env = "production"
			c.APIBaseURL = "http://slurpsocial.app/api"
		}, true},
		{"Production default secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"Production", func(c *Config) { c.Env = "production" }, false},
		{"Unknown exporter", func(c *Config) {
			c.TracingEnabled = true
			c.TracingExporter = "jaeger"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("API_BASE_URL", "http://127.0.0.1:8375/api/")
	t.Setenv("SESSION_STORE", "  MEMORY ")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8375/api", c.APIBaseURL)
	assert.Equal(t, StoreMemory, c.SessionStore)
	assert.Equal(t, 5, c.RequestTimeoutSeconds)
	assert.Equal(t, 100, c.ImageCacheSize)
	assert.Equal(t, "8375", c.Port)
}
