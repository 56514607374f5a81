package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "server.log"))
}

func TestAppend(t *testing.T) {
	t.Run("FormatsEntry", func(t *testing.T) {
		l := newTestLog(t)
		at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

		require.NoError(t, l.Append(at, "10.0.0.7:52114", "get trainer 3"))

		data, err := os.ReadFile(l.Path())
		require.NoError(t, err)
		assert.Equal(t,
			"[2026-03-14 09:26:53] Client 10.0.0.7:52114 issued command: get trainer 3\n",
			string(data))
	})

	t.Run("CreatesFileOnFirstUse", func(t *testing.T) {
		l := newTestLog(t)
		_, err := os.Stat(l.Path())
		require.True(t, os.IsNotExist(err))

		require.NoError(t, l.Append(time.Now(), "127.0.0.1:9", "exit"))
		_, err = os.Stat(l.Path())
		require.NoError(t, err)
	})

	t.Run("ConcurrentAppendsStayWhole", func(t *testing.T) {
		l := newTestLog(t)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = l.Append(time.Now(), "127.0.0.1:1000", fmt.Sprintf("get trainer %d", i))
			}(i)
		}
		wg.Wait()

		lines, err := l.Tail(100)
		require.NoError(t, err)
		assert.Len(t, lines, 20)
		for _, line := range lines {
			assert.True(t, strings.HasPrefix(line, "["), "line %q", line)
			assert.Contains(t, line, "issued command: get trainer ")
		}
	})
}

func TestTail(t *testing.T) {
	seed := func(t *testing.T, l *Log, n int) {
		t.Helper()
		for i := 1; i <= n; i++ {
			require.NoError(t, l.Append(time.Now(), "127.0.0.1:1", fmt.Sprintf("cmd %d", i)))
		}
	}

	t.Run("ReturnsLastNInOrder", func(t *testing.T) {
		l := newTestLog(t)
		seed(t, l, 15)

		lines, err := l.Tail(3)
		require.NoError(t, err)
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], "cmd 13")
		assert.Contains(t, lines[1], "cmd 14")
		assert.Contains(t, lines[2], "cmd 15")
	})

	t.Run("ReturnsEverythingWhenShorter", func(t *testing.T) {
		l := newTestLog(t)
		seed(t, l, 2)

		lines, err := l.Tail(10)
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})

	t.Run("DefaultsWhenCountUnusable", func(t *testing.T) {
		l := newTestLog(t)
		seed(t, l, DefaultTailLines+5)

		lines, err := l.Tail(0)
		require.NoError(t, err)
		assert.Len(t, lines, DefaultTailLines)

		lines, err = l.Tail(-3)
		require.NoError(t, err)
		assert.Len(t, lines, DefaultTailLines)
	})

	t.Run("MissingFileErrors", func(t *testing.T) {
		l := newTestLog(t)
		_, err := l.Tail(10)
		require.Error(t, err)
	})

	t.Run("EmptyFileErrors", func(t *testing.T) {
		l := newTestLog(t)
		require.NoError(t, os.WriteFile(l.Path(), nil, 0o644))

		_, err := l.Tail(10)
		assert.ErrorIs(t, err, ErrEmpty)
	})
}

func TestRender(t *testing.T) {
	t.Run("OneLineEach", func(t *testing.T) {
		body := Render([]string{"a", "b"})
		assert.Equal(t, "a\nb\n", body)
	})
}
