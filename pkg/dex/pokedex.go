// Package dex holds the domain layer: a read-only pokédex and a mutable
// trainer roster, both backed by fixed-width record arenas.
package dex

import (
	"context"
	"errors"
	"fmt"

	"github.com/trainerhq/dexd/internal/record"
	"github.com/trainerhq/dexd/pkg/store"
)

// Pokedex is a read-only view over the pokédex arena.
//
// The arena is never written while the server runs, so lookups take no
// lock of their own. Lookups performed during trainer validation run
// under the trainer lock because the caller already holds it, not because
// the pokédex needs it.
type Pokedex struct {
	arena store.Arena
}

// NewPokedex wraps an arena carrying pokédex records.
func NewPokedex(arena store.Arena) (*Pokedex, error) {
	if w := arena.Width(); w != record.PokemonSize {
		return nil, fmt.Errorf("pokedex arena width %d, want %d", w, record.PokemonSize)
	}
	return &Pokedex{arena: arena}, nil
}

// Count returns the number of pokédex entries.
func (p *Pokedex) Count(ctx context.Context) (int, error) {
	n, err := p.arena.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPokedexUnavailable, err)
	}
	return n, nil
}

// FindByID scans for the entry with the given key. A missing key reports
// ErrPokemonNotFound.
func (p *Pokedex) FindByID(ctx context.Context, id int32) (*record.Pokemon, error) {
	var found *record.Pokemon
	err := p.arena.Scan(ctx, func(index int, slot []byte) (bool, error) {
		var pk record.Pokemon
		if err := pk.Decode(slot); err != nil {
			return false, err
		}
		if pk.ID == id {
			found = &pk
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPokedexUnavailable, err)
	}
	if found == nil {
		return nil, fmt.Errorf("pokemon %d: %w", id, ErrPokemonNotFound)
	}
	return found, nil
}

// Exists reports whether the key resolves to a pokédex entry.
func (p *Pokedex) Exists(ctx context.Context, id int32) (bool, error) {
	_, err := p.FindByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrPokemonNotFound) {
		return false, nil
	}
	return false, err
}
