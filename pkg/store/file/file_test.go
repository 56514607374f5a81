package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainerhq/dexd/pkg/store"
)

func newTestArena(t *testing.T, width int) (*Arena, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.dat")
	a, err := New(path, width, true)
	require.NoError(t, err)
	return a, path
}

func TestNew(t *testing.T) {
	t.Run("CreatesMissingFile", func(t *testing.T) {
		_, path := newTestArena(t, 4)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})

	t.Run("RequiresFileWithoutCreate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.dat")

		_, err := New(path, 4, false)
		require.Error(t, err)
	})

	t.Run("RejectsMisalignedFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "torn.dat")
		require.NoError(t, os.WriteFile(path, []byte("12345"), 0o644))

		_, err := New(path, 4, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrCorrupt)
	})

	t.Run("RejectsInvalidWidth", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "x.dat"), 0, true)
		require.Error(t, err)
	})
}

func TestAppendScan(t *testing.T) {
	ctx := context.Background()

	t.Run("PreservesPositionalOrder", func(t *testing.T) {
		a, _ := newTestArena(t, 4)
		require.NoError(t, a.Append(ctx, []byte("aaaa")))
		require.NoError(t, a.Append(ctx, []byte("bbbb")))
		require.NoError(t, a.Append(ctx, []byte("cccc")))

		n, err := a.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		var seen []string
		err = a.Scan(ctx, func(index int, slot []byte) (bool, error) {
			seen = append(seen, string(slot))
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"aaaa", "bbbb", "cccc"}, seen)
	})

	t.Run("RejectsWrongWidth", func(t *testing.T) {
		a, _ := newTestArena(t, 4)
		err := a.Append(ctx, []byte("toolong"))
		assert.ErrorIs(t, err, store.ErrWidth)
	})

	t.Run("StopsEarly", func(t *testing.T) {
		a, _ := newTestArena(t, 4)
		require.NoError(t, a.Append(ctx, []byte("aaaa")))
		require.NoError(t, a.Append(ctx, []byte("bbbb")))

		visits := 0
		err := a.Scan(ctx, func(index int, slot []byte) (bool, error) {
			visits++
			return false, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, visits)
	})

	t.Run("DetectsTrailingPartialRecord", func(t *testing.T) {
		a, path := newTestArena(t, 4)
		require.NoError(t, a.Append(ctx, []byte("aaaa")))

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
		require.NoError(t, err)
		_, err = f.Write([]byte("xy"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		err = a.Scan(ctx, func(int, []byte) (bool, error) { return true, nil })
		assert.ErrorIs(t, err, store.ErrCorrupt)

		_, err = a.Len(ctx)
		assert.ErrorIs(t, err, store.ErrCorrupt)
	})
}

func TestWriteAt(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplacesInPlace", func(t *testing.T) {
		a, path := newTestArena(t, 4)
		require.NoError(t, a.Append(ctx, []byte("aaaa")))
		require.NoError(t, a.Append(ctx, []byte("bbbb")))

		require.NoError(t, a.WriteAt(ctx, 1, []byte("BBBB")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "aaaaBBBB", string(data))
	})

	t.Run("RejectsOutOfRange", func(t *testing.T) {
		a, _ := newTestArena(t, 4)
		require.NoError(t, a.Append(ctx, []byte("aaaa")))

		assert.ErrorIs(t, a.WriteAt(ctx, 1, []byte("bbbb")), store.ErrOutOfRange)
		assert.ErrorIs(t, a.WriteAt(ctx, -1, []byte("bbbb")), store.ErrOutOfRange)
	})
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("DropsFilteredRecords", func(t *testing.T) {
		a, path := newTestArena(t, 4)
		require.NoError(t, a.Append(ctx, []byte("aaaa")))
		require.NoError(t, a.Append(ctx, []byte("bbbb")))
		require.NoError(t, a.Append(ctx, []byte("cccc")))

		removed, err := a.Rebuild(ctx, func(index int, slot []byte) (bool, error) {
			return string(slot) != "bbbb", nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "aaaacccc", string(data))
	})

	t.Run("KeepsAllWhenNothingMatches", func(t *testing.T) {
		a, _ := newTestArena(t, 4)
		require.NoError(t, a.Append(ctx, []byte("aaaa")))

		removed, err := a.Rebuild(ctx, func(int, []byte) (bool, error) { return true, nil })
		require.NoError(t, err)
		assert.Zero(t, removed)

		n, err := a.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
