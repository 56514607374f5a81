package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/trainerhq/dexd/pkg/adapter/textproto"
)

// Config represents the complete dexd configuration.
//
// This structure captures all configurable aspects of the dexd server:
//   - Logging configuration
//   - Server-wide settings (metrics endpoint)
//   - Record store selection and paths
//   - Audit log location
//   - Protocol adapter configurations
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DEXD_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server"`

	// Stores selects the record stores and their file paths
	Stores StoresConfig `mapstructure:"stores"`

	// Audit configures the command audit log
	Audit AuditConfig `mapstructure:"audit"`

	// Adapters contains protocol adapter configurations
	Adapters AdaptersConfig `mapstructure:"adapters"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// Metrics configures the Prometheus metrics endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig controls the optional Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics HTTP server on. Off by default.
	Enabled bool `mapstructure:"enabled"`

	// Port is the HTTP port for the /metrics endpoint
	Port int `mapstructure:"port" validate:"min=0,max=65535"`
}

// StoresConfig selects the record stores backing the server.
type StoresConfig struct {
	// Pokedex configures the read-only pokédex store
	Pokedex PokedexStoreConfig `mapstructure:"pokedex"`

	// Trainers configures the mutable trainer store
	Trainers TrainerStoreConfig `mapstructure:"trainers"`
}

// PokedexStoreConfig locates the pokédex record file.
//
// The pokédex is read-only reference data: the file must already exist and
// its size must be a whole number of records.
type PokedexStoreConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TrainerStoreConfig selects the trainer store implementation.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used:
//   - "file": fixed-width record file, created on first start (persistent)
//   - "memory": in-memory arena, empty on every start (ephemeral)
type TrainerStoreConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=file memory"`

	// File contains file-store configuration
	// Only used when Type = "file"
	File map[string]any `mapstructure:"file"`

	// Memory contains memory-store configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`
}

// AuditConfig locates the command audit log.
type AuditConfig struct {
	// Path to the append-only audit log file, created on first command
	Path string `mapstructure:"path" validate:"required"`
}

// AdaptersConfig contains all protocol adapter configurations.
type AdaptersConfig struct {
	// Text contains the line-oriented text protocol configuration.
	// Uses the textproto.Config type directly to avoid duplication.
	Text textproto.Config `mapstructure:"text"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DEXD_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the DEXD_ prefix and underscores.
	// Example: DEXD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DEXD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dexd/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable; defaults take over.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dexd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dexd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
