// Package config provides configuration management for the todo API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultAuthMode        = "basic"
	DefaultDataFile        = "data.json"

	// DefaultBasicAuthUsers is the static allow-list: two fixed accounts
	// with placeholder plaintext passwords. Replace with bcrypt hashes
	// ($2a$... secrets are verified as bcrypt) for anything beyond demos.
	DefaultBasicAuthUsers = "admin:admin123,user:user123"
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvAuthMode        = "APP_AUTH_MODE"
	EnvBasicAuthUsers  = "APP_BASIC_AUTH_USERS" //nolint:gosec // env var name, not a credential
	EnvDataFile        = "APP_DATA_FILE"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// Authentication mode: none, basic.
	AuthMode string

	// Basic auth settings (format: "user1:secret1,user2:secret2";
	// secrets may be plaintext or bcrypt hashes).
	BasicAuthUsers string

	// Path of the JSON data file holding the todo collection.
	DataFile string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidAuthMode        = errors.New("auth mode must be one of: none, basic")
	ErrInvalidBasicAuthConfig = errors.New(
		"basic auth users must be set when auth mode is basic",
	)
	ErrInvalidDataFile = errors.New("data file path must not be empty")
)

// Load reads configuration from environment variables with defaults.
// Environment variables have priority over default values.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		AuthMode:        DefaultAuthMode,
		BasicAuthUsers:  DefaultBasicAuthUsers,
		DataFile:        DefaultDataFile,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvAuthMode); val != "" {
		c.AuthMode = val
	}

	if val := os.Getenv(EnvBasicAuthUsers); val != "" {
		c.BasicAuthUsers = val
	}

	if val := os.Getenv(EnvDataFile); val != "" {
		c.DataFile = val
	}

	return nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	switch c.AuthMode {
	case "none":
	case "basic":
		if c.BasicAuthUsers == "" {
			return ErrInvalidBasicAuthConfig
		}
	default:
		return ErrInvalidAuthMode
	}

	if c.DataFile == "" {
		return ErrInvalidDataFile
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
