package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	DatabaseDriver     string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
	CORSAllowedOrigins []string
	DefaultPageSize    int
	OrderTxTimeout     time.Duration // bound on one order placement transaction attempt
	OrderMaxAttempts   int           // attempts for a placement that fails transiently
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production environment variables are set directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "postgres"),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	// Numeric and duration settings fail loudly instead of falling back
	var err error
	if config.DefaultPageSize, err = getEnvInt("DEFAULT_PAGE_SIZE", 20); err != nil {
		return nil, err
	}
	if config.OrderMaxAttempts, err = getEnvInt("ORDER_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if config.OrderTxTimeout, err = time.ParseDuration(getEnv("ORDER_TX_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("ORDER_TX_TIMEOUT is not a valid duration: %w", err)
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Keep the loaded config for handlers that read it through GetConfig
	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	// Only the two drivers Dialector knows about
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive")
	}
	if c.OrderMaxAttempts <= 0 {
		return fmt.Errorf("ORDER_MAX_ATTEMPTS must be positive")
	}
	if c.OrderTxTimeout <= 0 {
		return fmt.Errorf("ORDER_TX_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetConfig returns the configuration loaded by Load, or defaults when nothing has been loaded yet
func GetConfig() *Config {
	if appConfig == nil {
		return Default()
	}
	return appConfig
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// Default returns a configuration with every optional value at its default
func Default() *Config {
	return &Config{
		DatabaseDriver:     "postgres",
		Port:               "8080",
		GoEnv:              "development",
		AWSRegion:          "us-east-1",
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"*"},
		DefaultPageSize:    20,
		OrderTxTimeout:     5 * time.Second,
		OrderMaxAttempts:   3,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable, defaultValue when unset
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// splitAndTrim splits a comma-separated list, dropping empty entries
func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		if pt := strings.TrimSpace(p); pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
