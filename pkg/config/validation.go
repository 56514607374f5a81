package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks the configuration using struct tags plus custom rules for
// constraints the tags cannot express (typed store sections, cross-field
// path checks).
//
// Log levels are accepted in either case; ApplyDefaults normalizes them to
// uppercase before validation runs in the Load path.
//
// Returns an error describing the first validation failure.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// At least one adapter must be enabled, otherwise the server has no
	// way to receive commands.
	if !cfg.Adapters.Text.Enabled {
		return fmt.Errorf("adapters: at least one adapter must be enabled")
	}

	// The file store section is a typed map, so the path has to be checked
	// here rather than by tag.
	if cfg.Stores.Trainers.Type == "file" {
		path, _ := cfg.Stores.Trainers.File["path"].(string)
		if path == "" {
			return fmt.Errorf("stores.trainers.file: path is required for the file store")
		}
		if path == cfg.Stores.Pokedex.Path {
			return fmt.Errorf("stores.trainers.file: path %q collides with the pokédex store", path)
		}
	}

	// A metrics endpoint without a port cannot bind.
	if cfg.Server.Metrics.Enabled && cfg.Server.Metrics.Port == 0 {
		return fmt.Errorf("server.metrics: port is required when metrics are enabled")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
