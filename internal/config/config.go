// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Session store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// DefaultAPIBaseURL is the production API root.
const DefaultAPIBaseURL = "https://slurpsocial.app/api"

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env                   string  `mapstructure:"APP_ENV"`
	APIBaseURL            string  `mapstructure:"API_BASE_URL"`
	RequestTimeoutSeconds int     `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	RequestsPerSecond     float64 `mapstructure:"REQUESTS_PER_SECOND"`
	SessionStore          string  `mapstructure:"SESSION_STORE"`
	SessionDBPath         string  `mapstructure:"SESSION_DB_PATH"`
	RedisURL              string  `mapstructure:"REDIS_URL"`
	ImageCacheSize        int     `mapstructure:"IMAGE_CACHE_SIZE"`
	ImageCacheTTLMinutes  int     `mapstructure:"IMAGE_CACHE_TTL_MINUTES"`
	LogLevel              string  `mapstructure:"LOG_LEVEL"`
	TracingEnabled        bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter       string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint          string  `mapstructure:"OTLP_ENDPOINT"`
	Port                  string  `mapstructure:"PORT"`
	JWTSecret             string  `mapstructure:"JWT_SECRET"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath(defaultDataDir())
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read profile config 'config.%s.yml': %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("API_BASE_URL", DefaultAPIBaseURL)
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 60)
	viper.SetDefault("REQUESTS_PER_SECOND", 0)
	viper.SetDefault("SESSION_STORE", StoreSQLite)
	viper.SetDefault("SESSION_DB_PATH", filepath.Join(defaultDataDir(), "session.db"))
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("IMAGE_CACHE_SIZE", 100)
	viper.SetDefault("IMAGE_CACHE_TTL_MINUTES", 30)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".slurp"
	}
	return filepath.Join(home, ".slurp")
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.SessionStore = strings.ToLower(strings.TrimSpace(c.SessionStore))
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
}

// IsProduction reports whether APP_ENV names a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// RequestTimeout is the per-attempt HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ImageCacheTTL is the lifetime of image bytes in the shared Redis tier.
func (c *Config) ImageCacheTTL() time.Duration {
	return time.Duration(c.ImageCacheTTLMinutes) * time.Minute
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("API_BASE_URL %q must be an absolute http(s) URL", c.APIBaseURL)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("REQUESTS_PER_SECOND cannot be negative")
	}
	if c.ImageCacheSize <= 0 {
		return errors.New("IMAGE_CACHE_SIZE must be positive")
	}

	switch c.SessionStore {
	case StoreSQLite:
		if c.SessionDBPath == "" {
			return errors.New("SESSION_DB_PATH is required for the sqlite session store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis session store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.TracingEnabled && c.TracingExporter != "stdout" && c.TracingExporter != "otlp" {
		return fmt.Errorf("unknown TRACING_EXPORTER %q", c.TracingExporter)
	}

	if c.IsProduction() {
		if u.Scheme != "https" {
			return errors.New("API_BASE_URL must use https in production")
		}
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
