package config

import (
	"fmt"

	"github.com/trainerhq/dexd/pkg/adapter"
	"github.com/trainerhq/dexd/pkg/adapter/textproto"
	"github.com/trainerhq/dexd/pkg/metrics"
)

// CreateAdapters creates all enabled protocol adapters from the configuration.
//
// This factory function centralizes adapter creation logic and makes it easy to:
//   - Add new protocol adapters
//   - Configure metrics for all adapters
//   - Handle adapter-specific initialization
//
// Parameters:
//   - cfg: The complete dexd configuration
//   - sessionMetrics: Optional session metrics collector (nil = no metrics)
//
// Returns:
//   - []adapter.Adapter: List of enabled adapters ready to be added to the server
//   - error: Any error during adapter creation
func CreateAdapters(cfg *Config, sessionMetrics metrics.SessionMetrics) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.Adapters.Text.Enabled {
		textAdapter := textproto.New(cfg.Adapters.Text, sessionMetrics)
		adapters = append(adapters, textAdapter)
	}

	// Future adapters can be added here:
	// if cfg.Adapters.HTTP.Enabled {
	//     httpAdapter := httpapi.New(cfg.Adapters.HTTP)
	//     adapters = append(adapters, httpAdapter)
	// }

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapters enabled in configuration")
	}

	return adapters, nil
}
