package config

import (
	"strings"

	"github.com/trainerhq/dexd/pkg/adapter/textproto"
)

// DefaultTextPort is the TCP port the text protocol adapter binds when the
// configuration does not name one.
const DefaultTextPort = 7654

// DefaultMetricsPort is the HTTP port for the Prometheus endpoint.
const DefaultMetricsPort = 9090

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values with sensible
// defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyStoresDefaults(&cfg.Stores)
	applyAuditDefaults(&cfg.Audit)
	applyAdaptersDefaults(&cfg.Adapters)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	// Metrics stay disabled unless explicitly enabled.
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}
}

// applyStoresDefaults sets record store defaults.
func applyStoresDefaults(cfg *StoresConfig) {
	if cfg.Pokedex.Path == "" {
		cfg.Pokedex.Path = "pokedex.db"
	}

	if cfg.Trainers.Type == "" {
		cfg.Trainers.Type = "file"
	}

	// Initialize maps if nil
	if cfg.Trainers.File == nil {
		cfg.Trainers.File = make(map[string]any)
	}
	if cfg.Trainers.Memory == nil {
		cfg.Trainers.Memory = make(map[string]any)
	}

	// Apply defaults for all store types (for config file generation)
	if _, ok := cfg.Trainers.File["path"]; !ok {
		cfg.Trainers.File["path"] = "trainers.db"
	}
}

// applyAuditDefaults sets audit log defaults.
func applyAuditDefaults(cfg *AuditConfig) {
	if cfg.Path == "" {
		cfg.Path = "server.log"
	}
}

// applyAdaptersDefaults sets adapter defaults.
func applyAdaptersDefaults(cfg *AdaptersConfig) {
	// Enable the text adapter by default if no adapters are configured.
	// This ensures that a freshly loaded config (with no config file) has
	// at least one adapter enabled and passes validation. Users can
	// explicitly set enabled: false in their config to disable it.
	if !cfg.Text.Enabled && cfg.Text.Port == 0 {
		cfg.Text.Enabled = true
	}

	applyTextDefaults(&cfg.Text)
}

// applyTextDefaults sets text protocol adapter defaults.
//
// Port 0 is replaced by DefaultTextPort here: the config layer never
// requests an ephemeral port. Tests that need one construct the adapter
// directly.
//
// The timeouts keep their zero values: the protocol blocks on the client
// indefinitely unless an operator opts in to timeouts.
func applyTextDefaults(cfg *textproto.Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultTextPort
	}

	// MaxConnections defaults to 0 (unlimited)
	// ReadTimeout, WriteTimeout and IdleTimeout default to 0 (no timeout)
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Adapters: AdaptersConfig{
			Text: textproto.Config{
				Enabled: true,
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
