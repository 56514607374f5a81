package config

import (
	"github.com/trainerhq/dexd/pkg/dex"
	"github.com/trainerhq/dexd/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// SessionMetrics is the collector for the protocol adapters (never nil,
	// uses noop if disabled)
	SessionMetrics metrics.SessionMetrics

	// StoreMetrics is the collector for the trainer store (nil if disabled;
	// the store installs its own no-op in that case)
	StoreMetrics dex.StoreMetrics
}

// InitializeMetrics creates and initializes all metrics components based on
// configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
//
// Parameters:
//   - cfg: The complete dexd configuration
//
// Returns:
//   - MetricsResult containing all metrics components
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		return &MetricsResult{
			Server:         nil,
			SessionMetrics: metrics.NewNoopSessionMetrics(),
			StoreMetrics:   nil,
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Server.Metrics.Port,
	})

	return &MetricsResult{
		Server:         server,
		SessionMetrics: metrics.NewSessionMetrics(),
		StoreMetrics:   metrics.NewStoreMetrics(cfg.Stores.Trainers.Type),
	}
}
