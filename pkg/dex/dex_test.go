package dex

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainerhq/dexd/internal/record"
	"github.com/trainerhq/dexd/pkg/store/memory"
)

// ============================================================================
// Test Fixtures
// ============================================================================

func testPokedex(t *testing.T, entries ...record.Pokemon) *Pokedex {
	t.Helper()
	arena, err := memory.New(record.PokemonSize)
	require.NoError(t, err)
	for i := range entries {
		slot, err := entries[i].Encode()
		require.NoError(t, err)
		require.NoError(t, arena.Append(context.Background(), slot))
	}
	p, err := NewPokedex(arena)
	require.NoError(t, err)
	return p
}

func defaultPokedex(t *testing.T) *Pokedex {
	t.Helper()
	return testPokedex(t,
		record.Pokemon{ID: 1, Name: "Bulbasaur", Type1: "Grass", Type2: "Poison"},
		record.Pokemon{ID: 4, Name: "Charmander", Type1: "Fire"},
		record.Pokemon{ID: 7, Name: "Squirtle", Type1: "Water"},
		record.Pokemon{ID: 25, Name: "Pikachu", Type1: "Electric"},
	)
}

func testRoster(t *testing.T, p *Pokedex) (*Trainers, *memory.Arena) {
	t.Helper()
	arena, err := memory.New(record.TrainerSize)
	require.NoError(t, err)
	s, err := NewTrainers(arena, p, nil)
	require.NoError(t, err)
	return s, arena
}

// snapshot captures the raw arena contents for byte-level comparison.
func snapshot(t *testing.T, arena *memory.Arena) []string {
	t.Helper()
	var slots []string
	require.NoError(t, arena.Scan(context.Background(), func(index int, slot []byte) (bool, error) {
		slots = append(slots, string(slot))
		return true, nil
	}))
	return slots
}

// ============================================================================
// Pokedex Tests
// ============================================================================

func TestPokedex(t *testing.T) {
	ctx := context.Background()

	t.Run("FindsByID", func(t *testing.T) {
		p := defaultPokedex(t)

		pk, err := p.FindByID(ctx, 25)
		require.NoError(t, err)
		assert.Equal(t, "Pikachu", pk.Name)
	})

	t.Run("ReportsMissingID", func(t *testing.T) {
		p := defaultPokedex(t)

		_, err := p.FindByID(ctx, 999)
		assert.ErrorIs(t, err, ErrPokemonNotFound)

		ok, err := p.Exists(ctx, 999)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CountsEntries", func(t *testing.T) {
		p := defaultPokedex(t)

		n, err := p.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("RejectsWrongWidth", func(t *testing.T) {
		arena, err := memory.New(record.TrainerSize)
		require.NoError(t, err)
		_, err = NewPokedex(arena)
		require.Error(t, err)
	})
}

// ============================================================================
// Trainer Roster Tests
// ============================================================================

func TestAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("AssignsSuccessorOfHighestKey", func(t *testing.T) {
		s, _ := testRoster(t, defaultPokedex(t))

		id, err := s.Add(ctx, "Ash", []int32{25})
		require.NoError(t, err)
		assert.Equal(t, int32(1), id)

		id, err = s.Add(ctx, "Misty", []int32{7})
		require.NoError(t, err)
		assert.Equal(t, int32(2), id)

		got, err := s.Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Misty", got.Name)
		assert.Equal(t, []int32{7}, got.Party)
	})

	t.Run("ReusesKeyAfterHighestDeleted", func(t *testing.T) {
		s, _ := testRoster(t, defaultPokedex(t))

		_, err := s.Add(ctx, "Ash", []int32{25})
		require.NoError(t, err)
		id2, err := s.Add(ctx, "Misty", []int32{7})
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, id2))

		id, err := s.Add(ctx, "Brock", []int32{4})
		require.NoError(t, err)
		assert.Equal(t, id2, id, "highest key becomes available again after delete")
	})

	t.Run("RejectsUnknownReference", func(t *testing.T) {
		s, arena := testRoster(t, defaultPokedex(t))
		_, err := s.Add(ctx, "Ash", []int32{25})
		require.NoError(t, err)
		before := snapshot(t, arena)

		_, err = s.Add(ctx, "Gary", []int32{25, 999})
		assert.ErrorIs(t, err, ErrUnknownPokemon)
		assert.Equal(t, before, snapshot(t, arena), "failed validation must not write")
	})

	t.Run("RejectsPartySizeOutOfRange", func(t *testing.T) {
		s, arena := testRoster(t, defaultPokedex(t))
		before := snapshot(t, arena)

		_, err := s.Add(ctx, "Ash", nil)
		assert.ErrorIs(t, err, ErrPartySize)

		_, err = s.Add(ctx, "Ash", []int32{1, 4, 7, 25, 1, 4, 7})
		assert.ErrorIs(t, err, ErrPartySize)
		assert.Equal(t, before, snapshot(t, arena))
	})

	t.Run("ConcurrentAddsGetDistinctKeys", func(t *testing.T) {
		s, _ := testRoster(t, defaultPokedex(t))

		const workers = 16
		ids := make([]int32, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, err := s.Add(ctx, fmt.Sprintf("trainer-%d", i), []int32{25})
				assert.NoError(t, err)
				ids[i] = id
			}(i)
		}
		wg.Wait()

		seen := make(map[int32]bool)
		for _, id := range ids {
			assert.False(t, seen[id], "key %d assigned twice", id)
			seen[id] = true
		}

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, workers, n)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplacesPartyInPlace", func(t *testing.T) {
		s, _ := testRoster(t, defaultPokedex(t))
		id, err := s.Add(ctx, "Ash", []int32{25})
		require.NoError(t, err)
		_, err = s.Add(ctx, "Misty", []int32{7})
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, id, []int32{1, 4, 7}))

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Ash", got.Name, "name survives a party update")
		assert.Equal(t, []int32{1, 4, 7}, got.Party)

		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, int32(1), all[0].ID, "store order preserved")
	})

	t.Run("ReportsMissingKey", func(t *testing.T) {
		s, arena := testRoster(t, defaultPokedex(t))
		before := snapshot(t, arena)

		err := s.Update(ctx, 42, []int32{25})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, before, snapshot(t, arena))
	})

	t.Run("RejectsUnknownReference", func(t *testing.T) {
		s, arena := testRoster(t, defaultPokedex(t))
		id, err := s.Add(ctx, "Ash", []int32{25})
		require.NoError(t, err)
		before := snapshot(t, arena)

		err = s.Update(ctx, id, []int32{999})
		assert.ErrorIs(t, err, ErrUnknownPokemon)
		assert.Equal(t, before, snapshot(t, arena))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesRecord", func(t *testing.T) {
		s, _ := testRoster(t, defaultPokedex(t))
		id, err := s.Add(ctx, "Ash", []int32{25})
		require.NoError(t, err)
		_, err = s.Add(ctx, "Misty", []int32{7})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, id))

		_, err = s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("SecondDeleteReportsMissing", func(t *testing.T) {
		s, _ := testRoster(t, defaultPokedex(t))
		id, err := s.Add(ctx, "Ash", []int32{25})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, id))
		assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
	})
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesTeamInPartyOrder", func(t *testing.T) {
		s, _ := testRoster(t, defaultPokedex(t))
		id, err := s.Add(ctx, "Ash", []int32{25, 1})
		require.NoError(t, err)

		detail, err := s.Describe(ctx, id)
		require.NoError(t, err)
		require.Len(t, detail.Team, 2)
		assert.Equal(t, "Pikachu", detail.Team[0].Name)
		assert.Equal(t, "Bulbasaur", detail.Team[1].Name)
	})

	t.Run("DropsUnresolvableReferences", func(t *testing.T) {
		p := defaultPokedex(t)
		arena, err := memory.New(record.TrainerSize)
		require.NoError(t, err)
		// Seed a legacy record whose second reference is no longer in
		// the pokédex.
		stale := record.Trainer{ID: 9, Name: "Old", Party: []int32{25, 999}}
		slot, err := stale.Encode()
		require.NoError(t, err)
		require.NoError(t, arena.Append(ctx, slot))
		s, err := NewTrainers(arena, p, nil)
		require.NoError(t, err)

		detail, err := s.Describe(ctx, 9)
		require.NoError(t, err)
		assert.Len(t, detail.Trainer.Party, 2, "stored party keeps the stale reference")
		require.Len(t, detail.Team, 1)
		assert.Equal(t, "Pikachu", detail.Team[0].Name)
	})

	t.Run("ReportsMissingKey", func(t *testing.T) {
		s, _ := testRoster(t, defaultPokedex(t))
		_, err := s.Describe(ctx, 5)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
