package dex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trainerhq/dexd/internal/record"
	"github.com/trainerhq/dexd/pkg/store"
)

// Trainers is the mutable trainer roster.
//
// A single mutex serializes every operation, reads included. Validation
// lookups against the pokédex run inside the critical section, so the
// records a write was validated against cannot change before the write
// lands. The mutex is never held together with the audit log lock.
//
// Keys are assigned on insert as one past the highest key currently
// stored, which means deleting the highest trainer makes its key eligible
// for reuse.
type Trainers struct {
	mu      sync.Mutex
	arena   store.Arena
	pokedex *Pokedex
	metrics StoreMetrics
}

// Detail is a trainer joined with its resolved party. References that no
// longer resolve against the pokédex are dropped from Team without
// comment, matching how rosters have always been displayed.
type Detail struct {
	Trainer record.Trainer
	Team    []record.Pokemon
}

// NewTrainers wraps an arena carrying trainer records. The pokédex is
// consulted for reference validation on every write. A nil metrics
// collector disables instrumentation.
func NewTrainers(arena store.Arena, pokedex *Pokedex, m StoreMetrics) (*Trainers, error) {
	if w := arena.Width(); w != record.TrainerSize {
		return nil, fmt.Errorf("trainer arena width %d, want %d", w, record.TrainerSize)
	}
	if m == nil {
		m = noopStoreMetrics{}
	}
	return &Trainers{arena: arena, pokedex: pokedex, metrics: m}, nil
}

// Count returns the number of trainer records.
func (s *Trainers) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.arena.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return n, nil
}

// List returns every trainer in store order.
func (s *Trainers) List(ctx context.Context) (out []record.Trainer, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperation("list", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ctx)
}

// Get returns the trainer with the given key, or ErrNotFound.
func (s *Trainers) Get(ctx context.Context, id int32) (t *record.Trainer, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperation("get", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, id)
}

// Describe returns the trainer with its party resolved against the
// pokédex. The whole join runs under the roster lock so the answer is one
// consistent snapshot.
func (s *Trainers) Describe(ctx context.Context, id int32) (detail *Detail, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperation("describe", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getLocked(ctx, id)
	if err != nil {
		return nil, err
	}

	detail = &Detail{Trainer: *t}
	for _, ref := range t.Party {
		pk, err := s.pokedex.FindByID(ctx, ref)
		if err != nil {
			if errors.Is(err, ErrPokemonNotFound) {
				continue
			}
			return nil, err
		}
		detail.Team = append(detail.Team, *pk)
	}
	return detail, nil
}

// Add validates the party and inserts a new trainer, returning the
// assigned key.
func (s *Trainers) Add(ctx context.Context, name string, party []int32) (id int32, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperation("add", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.validatePartyLocked(ctx, party); err != nil {
		return 0, err
	}

	maxID := int32(0)
	total := 0
	err = s.arena.Scan(ctx, func(index int, slot []byte) (bool, error) {
		var t record.Trainer
		if err := t.Decode(slot); err != nil {
			return false, err
		}
		if t.ID > maxID {
			maxID = t.ID
		}
		total++
		return true, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	t := record.Trainer{ID: maxID + 1, Name: name, Party: party}
	slot, err := t.Encode()
	if err != nil {
		return 0, err
	}
	if err = s.arena.Append(ctx, slot); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	s.metrics.SetTrainerCount(total + 1)
	return t.ID, nil
}

// Update validates the party and replaces the party of an existing
// trainer in place. The name is left as stored.
func (s *Trainers) Update(ctx context.Context, id int32, party []int32) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperation("update", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.validatePartyLocked(ctx, party); err != nil {
		return err
	}

	index := -1
	var current record.Trainer
	err = s.arena.Scan(ctx, func(i int, slot []byte) (bool, error) {
		var t record.Trainer
		if err := t.Decode(slot); err != nil {
			return false, err
		}
		if t.ID == id {
			index = i
			current = t
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if index < 0 {
		return fmt.Errorf("trainer %d: %w", id, ErrNotFound)
	}

	current.Party = party
	slot, err := current.Encode()
	if err != nil {
		return err
	}
	if err = s.arena.WriteAt(ctx, index, slot); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the trainer with the given key by rewriting the arena
// without it.
func (s *Trainers) Delete(ctx context.Context, id int32) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperation("delete", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := 0
	removed, err := s.arena.Rebuild(ctx, func(index int, slot []byte) (bool, error) {
		var t record.Trainer
		if err := t.Decode(slot); err != nil {
			return false, err
		}
		if t.ID != id {
			kept++
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if removed == 0 {
		return fmt.Errorf("trainer %d: %w", id, ErrNotFound)
	}
	s.metrics.SetTrainerCount(kept)
	return nil
}

func (s *Trainers) listLocked(ctx context.Context) ([]record.Trainer, error) {
	var out []record.Trainer
	err := s.arena.Scan(ctx, func(index int, slot []byte) (bool, error) {
		var t record.Trainer
		if err := t.Decode(slot); err != nil {
			return false, err
		}
		out = append(out, t)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return out, nil
}

func (s *Trainers) getLocked(ctx context.Context, id int32) (*record.Trainer, error) {
	var found *record.Trainer
	err := s.arena.Scan(ctx, func(index int, slot []byte) (bool, error) {
		var t record.Trainer
		if err := t.Decode(slot); err != nil {
			return false, err
		}
		if t.ID == id {
			found = &t
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if found == nil {
		return nil, fmt.Errorf("trainer %d: %w", id, ErrNotFound)
	}
	return found, nil
}

// validatePartyLocked enforces the party invariants: between one and
// MaxPartySize references, each resolving against the pokédex. First
// failure wins; nothing is written on failure.
func (s *Trainers) validatePartyLocked(ctx context.Context, party []int32) error {
	if len(party) < 1 || len(party) > record.MaxPartySize {
		return fmt.Errorf("party of %d: %w", len(party), ErrPartySize)
	}
	for _, ref := range party {
		ok, err := s.pokedex.Exists(ctx, ref)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("pokemon %d: %w", ref, ErrUnknownPokemon)
		}
	}
	return nil
}
