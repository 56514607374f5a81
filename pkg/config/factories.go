package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/trainerhq/dexd/internal/logger"
	"github.com/trainerhq/dexd/internal/record"
	"github.com/trainerhq/dexd/pkg/audit"
	"github.com/trainerhq/dexd/pkg/dex"
	"github.com/trainerhq/dexd/pkg/store"
	"github.com/trainerhq/dexd/pkg/store/file"
	"github.com/trainerhq/dexd/pkg/store/memory"
)

// Stores bundles the record stores created from configuration.
//
// The struct owns the underlying arenas; Close() releases them in reverse
// creation order once the server has stopped.
type Stores struct {
	// Pokedex is the read-only pokédex store
	Pokedex *dex.Pokedex

	// Trainers is the mutable trainer store
	Trainers *dex.Trainers

	// AuditLog is the append-only command log
	AuditLog *audit.Log

	arenas []store.Arena
}

// Close releases the underlying arenas in reverse creation order.
func (s *Stores) Close() error {
	var firstErr error
	for i := len(s.arenas) - 1; i >= 0; i-- {
		if err := s.arenas[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// InitializeStores creates the record stores and audit log from the
// provided configuration.
//
// This function orchestrates the complete initialization process:
//  1. Opens the pokédex record file (must already exist)
//  2. Creates the trainer store from cfg.Stores.Trainers (created if absent)
//  3. Creates the audit log handle (file appears on first command)
//
// The trainer store factory uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration
// from the corresponding map.
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Complete configuration loaded from config file
//   - m: Optional store metrics collector (nil = no metrics)
//
// Returns:
//   - *Stores: Initialized stores ready for the server (caller must Close)
//   - error: Store creation or validation error
func InitializeStores(ctx context.Context, cfg *Config, m dex.StoreMetrics) (*Stores, error) {
	logger.Debug("Initializing record stores from configuration")

	result := &Stores{}

	pokedex, arena, err := createPokedex(ctx, &cfg.Stores.Pokedex)
	if err != nil {
		return nil, err
	}
	result.Pokedex = pokedex
	result.arenas = append(result.arenas, arena)

	trainers, arena, err := createTrainers(ctx, &cfg.Stores.Trainers, pokedex, m)
	if err != nil {
		_ = result.Close()
		return nil, err
	}
	result.Trainers = trainers
	result.arenas = append(result.arenas, arena)

	result.AuditLog = audit.New(cfg.Audit.Path)

	return result, nil
}

// createPokedex opens the read-only pokédex store.
//
// The record file must already exist: the pokédex is reference data the
// server cannot invent. A missing or misaligned file fails startup.
func createPokedex(ctx context.Context, cfg *PokedexStoreConfig) (*dex.Pokedex, store.Arena, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	arena, err := file.New(cfg.Path, record.PokemonSize, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open pokédex database %q: %w", cfg.Path, err)
	}

	pokedex, err := dex.NewPokedex(arena)
	if err != nil {
		_ = arena.Close()
		return nil, nil, fmt.Errorf("failed to initialize pokédex store: %w", err)
	}

	count, err := pokedex.Count(ctx)
	if err != nil {
		_ = arena.Close()
		return nil, nil, fmt.Errorf("failed to read pokédex database %q: %w", cfg.Path, err)
	}
	logger.Debug("Pokédex store opened: %s (%d entries)", cfg.Path, count)

	return pokedex, arena, nil
}

// createTrainers creates the trainer store based on configuration.
//
// Supported types:
//   - "file": pkg/store/file (fixed-width record file, persistent)
//   - "memory": pkg/store/memory (in-memory arena, ephemeral)
func createTrainers(
	ctx context.Context,
	cfg *TrainerStoreConfig,
	pokedex *dex.Pokedex,
	m dex.StoreMetrics,
) (*dex.Trainers, store.Arena, error) {
	var (
		arena store.Arena
		err   error
	)

	switch cfg.Type {
	case "file":
		arena, err = createFileTrainerArena(ctx, cfg.File)
	case "memory":
		arena, err = createMemoryTrainerArena(ctx, cfg.Memory)
	default:
		return nil, nil, fmt.Errorf("unknown trainer store type: %q (supported: file, memory)", cfg.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	trainers, err := dex.NewTrainers(arena, pokedex, m)
	if err != nil {
		_ = arena.Close()
		return nil, nil, fmt.Errorf("failed to initialize trainer store: %w", err)
	}

	return trainers, arena, nil
}

// createFileTrainerArena creates a file-backed trainer arena.
func createFileTrainerArena(ctx context.Context, options map[string]any) (store.Arena, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Decode store-specific options
	type FileTrainerStoreOptions struct {
		Path string `mapstructure:"path"`
	}

	var storeOpts FileTrainerStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode file trainer store options: %w", err)
	}

	if storeOpts.Path == "" {
		return nil, fmt.Errorf("file trainer store: path is required")
	}

	// The trainer file is created on first start; an existing file is
	// reused so records survive restarts.
	arena, err := file.New(storeOpts.Path, record.TrainerSize, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open trainer database %q: %w", storeOpts.Path, err)
	}

	logger.Debug("Trainer store opened: %s", storeOpts.Path)

	return arena, nil
}

// createMemoryTrainerArena creates an in-memory trainer arena.
func createMemoryTrainerArena(ctx context.Context, options map[string]any) (store.Arena, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The memory store takes no options today. ErrorUnused rejects
	// misspelled configuration keys instead of silently dropping them.
	var storeOpts struct{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &storeOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("invalid memory trainer store options: %w", err)
	}

	arena, err := memory.New(record.TrainerSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory trainer store: %w", err)
	}

	logger.Debug("Trainer store created in memory (records will not persist)")

	return arena, nil
}
