package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/trainerhq/dexd/internal/logger"
	"github.com/trainerhq/dexd/pkg/config"
	"github.com/trainerhq/dexd/pkg/server"
)

func run(ctx context.Context) int {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "dexd: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dexd",
		Short:         "dexd serves trainer records over a line-oriented TCP text protocol",
		SilenceErrors: true,
		Example: `
  # Serve with the built-in defaults (pokedex.db, trainers.db, server.log)
  dexd

  # Explicit stores on a custom port
  dexd --port 7654 --pokedex /var/lib/dexd/pokedex.db --trainers /var/lib/dexd/trainers.db --log /var/log/dexd/server.log

  # Ephemeral trainer store for local experiments
  dexd --trainer-store memory

  # Prometheus metrics on :9090
  dexd --metrics-port 9090
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			applyFlagOverrides(cfg, cmd.Flags())

			if err := config.Validate(cfg); err != nil {
				return err
			}

			return runServer(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "path to YAML config file (defaults to "+config.GetDefaultConfigPath()+")")
	flags.IntP("port", "p", config.DefaultTextPort, "TCP port for the text protocol listener")
	flags.String("pokedex", "pokedex.db", "path to the pokédex record file (must exist)")
	flags.String("trainers", "trainers.db", "path to the trainer record file (created if absent)")
	flags.String("trainer-store", "file", "trainer store backend (file or memory)")
	flags.String("log", "server.log", "path to the audit log file")
	flags.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	flags.String("log-output", "stdout", "log destination (stdout, stderr, or a file path)")
	flags.Int("max-connections", 0, "maximum concurrent client sessions (0 = unlimited)")
	flags.Duration("read-timeout", 0, "timeout waiting for a command line (0 = no timeout)")
	flags.Duration("write-timeout", 0, "timeout writing a response block (0 = no timeout)")
	flags.Duration("idle-timeout", 0, "timeout between commands on an idle session (0 = no timeout)")
	flags.Int("metrics-port", 0, "expose Prometheus metrics on this port (0 = disabled)")

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newConfigCommand())

	return cmd
}

// applyFlagOverrides layers command-line values over the loaded
// configuration. Flags beat file and environment values, but only when the
// operator actually passed them.
func applyFlagOverrides(cfg *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("port") {
		cfg.Adapters.Text.Enabled = true
		cfg.Adapters.Text.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("pokedex") {
		cfg.Stores.Pokedex.Path, _ = flags.GetString("pokedex")
	}
	if flags.Changed("trainers") {
		path, _ := flags.GetString("trainers")
		cfg.Stores.Trainers.Type = "file"
		cfg.Stores.Trainers.File["path"] = path
	}
	if flags.Changed("trainer-store") {
		cfg.Stores.Trainers.Type, _ = flags.GetString("trainer-store")
	}
	if flags.Changed("log") {
		cfg.Audit.Path, _ = flags.GetString("log")
	}
	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		cfg.Logging.Level = strings.ToUpper(level)
	}
	if flags.Changed("log-output") {
		cfg.Logging.Output, _ = flags.GetString("log-output")
	}
	if flags.Changed("max-connections") {
		cfg.Adapters.Text.MaxConnections, _ = flags.GetInt("max-connections")
	}
	if flags.Changed("read-timeout") {
		cfg.Adapters.Text.ReadTimeout, _ = flags.GetDuration("read-timeout")
	}
	if flags.Changed("write-timeout") {
		cfg.Adapters.Text.WriteTimeout, _ = flags.GetDuration("write-timeout")
	}
	if flags.Changed("idle-timeout") {
		cfg.Adapters.Text.IdleTimeout, _ = flags.GetDuration("idle-timeout")
	}
	if flags.Changed("metrics-port") {
		port, _ := flags.GetInt("metrics-port")
		cfg.Server.Metrics.Enabled = port > 0
		cfg.Server.Metrics.Port = port
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger.SetLevel(cfg.Logging.Level)
	if err := logger.SetDestination(cfg.Logging.Output); err != nil {
		return fmt.Errorf("failed to configure log output: %w", err)
	}

	fmt.Println("dexd - Trainer Record Service")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	m := config.InitializeMetrics(cfg)

	stores, err := config.InitializeStores(ctx, cfg, m.StoreMetrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Error("Error closing stores: %v", err)
		}
	}()

	logStartupSummary(ctx, cfg, stores)

	adapters, err := config.CreateAdapters(cfg, m.SessionMetrics)
	if err != nil {
		return err
	}

	srv := server.New(stores.Pokedex, stores.Trainers, stores.AuditLog)
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			return err
		}
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if m.Server != nil {
		go func() {
			if err := m.Server.Start(serveCtx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(serveCtx)
	}()

	logger.Info("Server is running on port %d. Press Ctrl+C to stop.", cfg.Adapters.Text.Port)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		// Wait for the server to finish its shutdown sequence
		if err := <-serverDone; err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("Server stopped")
	}

	return nil
}

// logStartupSummary reports the effective configuration and store shapes
// after a successful open, before the listener starts accepting.
func logStartupSummary(ctx context.Context, cfg *config.Config, stores *config.Stores) {
	logger.Info("Store configuration:")

	if n, err := stores.Pokedex.Count(ctx); err == nil {
		logger.Info("  Pokédex: %s (%d species, %s)", cfg.Stores.Pokedex.Path, n, fileSize(cfg.Stores.Pokedex.Path))
	}

	switch cfg.Stores.Trainers.Type {
	case "file":
		path, _ := cfg.Stores.Trainers.File["path"].(string)
		if n, err := stores.Trainers.Count(ctx); err == nil {
			logger.Info("  Trainers: %s (%d records, %s)", path, n, fileSize(path))
		}
	default:
		if n, err := stores.Trainers.Count(ctx); err == nil {
			logger.Info("  Trainers: %s (%d records)", cfg.Stores.Trainers.Type, n)
		}
	}

	logger.Info("  Audit log: %s", stores.AuditLog.Path())

	logger.Info("Text adapter configuration:")
	logger.Info("  Port: %d", cfg.Adapters.Text.Port)
	if cfg.Adapters.Text.MaxConnections > 0 {
		logger.Info("  Max connections: %d", cfg.Adapters.Text.MaxConnections)
	} else {
		logger.Info("  Max connections: unlimited")
	}
	logger.Info("  Read timeout: %v", cfg.Adapters.Text.ReadTimeout)
	logger.Info("  Write timeout: %v", cfg.Adapters.Text.WriteTimeout)
	logger.Info("  Idle timeout: %v", cfg.Adapters.Text.IdleTimeout)

	if cfg.Server.Metrics.Enabled {
		logger.Info("Metrics: enabled on port %d", cfg.Server.Metrics.Port)
	} else {
		logger.Info("Metrics: disabled")
	}
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "0B"
	}
	return humanizeBytes(info.Size())
}

func humanizeBytes(n int64) string {
	return strings.ReplaceAll(humanize.Bytes(uint64(n)), " ", "")
}
