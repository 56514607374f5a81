package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// InitConfig writes a commented default configuration file to the default
// location (see GetDefaultConfigPath).
//
// Returns the path of the written file. Refuses to overwrite an existing
// file unless force is set.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath writes a commented default configuration file to path,
// creating parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigYAML renders the commented default configuration document
// without writing it anywhere. Used by "dexd config init --stdout".
func DefaultConfigYAML() (string, error) {
	return generateYAMLWithComments(GetDefaultConfig())
}

// generateYAMLWithComments renders cfg as a commented YAML document.
//
// The values are interpolated from the config struct so the generated file
// always matches the compiled-in defaults. The result is round-tripped
// through the YAML parser so a template editing mistake fails here instead
// of producing an unparseable config file.
func generateYAMLWithComments(cfg *Config) (string, error) {
	out := fmt.Sprintf(`# dexd Configuration File
#
# This file was generated by "dexd config init". All values shown are the
# defaults; uncommented settings may be edited freely. Environment
# variables with the DEXD_ prefix override this file, for example
# DEXD_LOGGING_LEVEL=DEBUG.

logging:
  # Minimum log level: DEBUG, INFO, WARN or ERROR
  level: "%s"
  # Log destination: stdout, stderr, or a file path
  output: "%s"

server:
  metrics:
    # Expose Prometheus metrics over HTTP at /metrics
    enabled: %t
    port: %d

stores:
  pokedex:
    # Fixed-width pokédex record file. Must already exist: the pokédex is
    # read-only reference data the server cannot create.
    path: "%s"
  trainers:
    # Trainer store backend: "file" (persistent) or "memory" (ephemeral)
    type: "%s"
    file:
      # Fixed-width trainer record file, created on first start
      path: "%v"
    memory: {}

audit:
  # Append-only command log, created when the first command arrives
  path: "%s"

adapters:
  text:
    # Line-oriented text protocol over TCP
    enabled: %t
    port: %d
    # Maximum concurrent client sessions, 0 = unlimited
    max_connections: %d
    # Session timeouts, 0s = wait on the client forever (the default)
    read_timeout: %v
    write_timeout: %v
    idle_timeout: %v
`,
		cfg.Logging.Level,
		cfg.Logging.Output,
		cfg.Server.Metrics.Enabled,
		cfg.Server.Metrics.Port,
		cfg.Stores.Pokedex.Path,
		cfg.Stores.Trainers.Type,
		cfg.Stores.Trainers.File["path"],
		cfg.Audit.Path,
		cfg.Adapters.Text.Enabled,
		cfg.Adapters.Text.Port,
		cfg.Adapters.Text.MaxConnections,
		cfg.Adapters.Text.ReadTimeout,
		cfg.Adapters.Text.WriteTimeout,
		cfg.Adapters.Text.IdleTimeout,
	)

	var probe map[string]any
	if err := yaml.Unmarshal([]byte(out), &probe); err != nil {
		return "", fmt.Errorf("generated config is not valid YAML: %w", err)
	}

	return out, nil
}
