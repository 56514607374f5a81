package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trainerhq/dexd/internal/record"
	"github.com/trainerhq/dexd/pkg/store/file"
)

// seedPokedexFile writes a small pokédex record file and returns its path.
func seedPokedexFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pokedex.db")
	arena, err := file.New(path, record.PokemonSize, true)
	if err != nil {
		t.Fatalf("Failed to create pokédex file: %v", err)
	}
	defer arena.Close()

	ctx := context.Background()
	for _, pk := range []record.Pokemon{
		{ID: 1, Name: "Bulbasaur", Type1: "Grass", Type2: "Poison", Generation: 1},
		{ID: 25, Name: "Pikachu", Type1: "Electric", Generation: 1},
	} {
		slot, err := pk.Encode()
		if err != nil {
			t.Fatalf("Failed to encode pokémon: %v", err)
		}
		if err := arena.Append(ctx, slot); err != nil {
			t.Fatalf("Failed to append pokémon: %v", err)
		}
	}

	return path
}

func testStoresConfig(t *testing.T) *Config {
	t.Helper()

	cfg := GetDefaultConfig()
	cfg.Stores.Pokedex.Path = seedPokedexFile(t)
	cfg.Stores.Trainers.File["path"] = filepath.Join(t.TempDir(), "trainers.db")
	cfg.Audit.Path = filepath.Join(t.TempDir(), "server.log")
	return cfg
}

func TestInitializeStores_FileTrainers(t *testing.T) {
	ctx := context.Background()
	cfg := testStoresConfig(t)

	stores, err := InitializeStores(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Failed to initialize stores: %v", err)
	}
	defer stores.Close()

	count, err := stores.Pokedex.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count pokédex entries: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 pokédex entries, got %d", count)
	}

	count, err = stores.Trainers.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count trainers: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty trainer store, got %d records", count)
	}

	if stores.AuditLog == nil {
		t.Fatal("Expected audit log to be created")
	}
	if stores.AuditLog.Path() != cfg.Audit.Path {
		t.Errorf("Expected audit path %q, got %q", cfg.Audit.Path, stores.AuditLog.Path())
	}
}

func TestInitializeStores_MemoryTrainers(t *testing.T) {
	ctx := context.Background()
	cfg := testStoresConfig(t)
	cfg.Stores.Trainers.Type = "memory"

	stores, err := InitializeStores(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Failed to initialize stores: %v", err)
	}
	defer stores.Close()

	id, err := stores.Trainers.Add(ctx, "Ash", []int32{25})
	if err != nil {
		t.Fatalf("Failed to add trainer to memory store: %v", err)
	}
	if id != 1 {
		t.Errorf("Expected first trainer ID 1, got %d", id)
	}
}

func TestInitializeStores_MissingPokedex(t *testing.T) {
	ctx := context.Background()
	cfg := testStoresConfig(t)
	cfg.Stores.Pokedex.Path = filepath.Join(t.TempDir(), "absent.db")

	_, err := InitializeStores(ctx, cfg, nil)
	if err == nil {
		t.Fatal("Expected error for missing pokédex file")
	}
	if !strings.Contains(err.Error(), "pokédex") {
		t.Errorf("Expected pokédex error, got: %v", err)
	}
}

func TestInitializeStores_UnknownTrainerType(t *testing.T) {
	ctx := context.Background()
	cfg := testStoresConfig(t)
	cfg.Stores.Trainers.Type = "sqlite"

	_, err := InitializeStores(ctx, cfg, nil)
	if err == nil {
		t.Fatal("Expected error for unknown trainer store type")
	}
	if !strings.Contains(err.Error(), "unknown trainer store type") {
		t.Errorf("Expected 'unknown trainer store type' error, got: %v", err)
	}
}

func TestInitializeStores_FileTrainersMissingPath(t *testing.T) {
	ctx := context.Background()
	cfg := testStoresConfig(t)
	cfg.Stores.Trainers.File = map[string]any{}

	_, err := InitializeStores(ctx, cfg, nil)
	if err == nil {
		t.Fatal("Expected error for missing trainer file path")
	}
	if !strings.Contains(err.Error(), "path is required") {
		t.Errorf("Expected 'path is required' error, got: %v", err)
	}
}

func TestCreateAdapters_TextEnabled(t *testing.T) {
	cfg := GetDefaultConfig()

	adapters, err := CreateAdapters(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create adapters: %v", err)
	}
	if len(adapters) != 1 {
		t.Fatalf("Expected 1 adapter, got %d", len(adapters))
	}
	if adapters[0].Protocol() != "text" {
		t.Errorf("Expected text adapter, got %q", adapters[0].Protocol())
	}
}

func TestCreateAdapters_NoneEnabled(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Adapters.Text.Enabled = false

	_, err := CreateAdapters(cfg, nil)
	if err == nil {
		t.Fatal("Expected error when no adapters are enabled")
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	cfg := GetDefaultConfig()

	result := InitializeMetrics(cfg)

	if result.Server != nil {
		t.Error("Expected nil metrics server when disabled")
	}
	if result.SessionMetrics == nil {
		t.Error("Expected no-op session metrics when disabled")
	}
	if result.StoreMetrics != nil {
		t.Error("Expected nil store metrics when disabled")
	}
}
