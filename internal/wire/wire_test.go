package wire

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkWriter accepts at most n bytes per Write call.
type chunkWriter struct {
	buf bytes.Buffer
	n   int
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		p = p[:w.n]
	}
	return w.buf.Write(p)
}

func TestLineReader(t *testing.T) {
	t.Run("StripsTerminator", func(t *testing.T) {
		lr := NewLineReader(strings.NewReader("get trainer\r\npost trainer Ash 25\n"))

		line, err := lr.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "get trainer", line)

		line, err = lr.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "post trainer Ash 25", line)
	})

	t.Run("EmptyLineIsAFrame", func(t *testing.T) {
		lr := NewLineReader(strings.NewReader("\n"))

		line, err := lr.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "", line)
	})

	t.Run("FinalUnterminatedLine", func(t *testing.T) {
		lr := NewLineReader(strings.NewReader("exit"))

		line, err := lr.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "exit", line)

		_, err = lr.ReadLine()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("CleanCloseReportsEOF", func(t *testing.T) {
		lr := NewLineReader(strings.NewReader(""))

		_, err := lr.ReadLine()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("OversizedInputSplitsAtCap", func(t *testing.T) {
		long := strings.Repeat("a", MaxLineLen+100)
		lr := NewLineReader(strings.NewReader(long + "\n"))

		line, err := lr.ReadLine()
		require.NoError(t, err)
		assert.Len(t, line, MaxLineLen)

		line, err = lr.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, long[MaxLineLen:], line)
	})
}

func TestWriteFull(t *testing.T) {
	t.Run("SurvivesShortWrites", func(t *testing.T) {
		w := &chunkWriter{n: 3}
		require.NoError(t, WriteFull(w, []byte("Trainer 1 updated.\n")))
		assert.Equal(t, "Trainer 1 updated.\n", w.buf.String())
	})
}

func TestWriteResponse(t *testing.T) {
	t.Run("AppendsSentinelLine", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := WriteResponse(&buf, "Goodbye from server.\n")
		require.NoError(t, err)
		assert.Equal(t, "Goodbye from server.\n[END]\n", buf.String())
		assert.Equal(t, buf.Len(), n)
	})

	t.Run("SuppliesMissingNewline", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := WriteResponse(&buf, "Invalid command.")
		require.NoError(t, err)
		assert.Equal(t, "Invalid command.\n[END]\n", buf.String())
		assert.Equal(t, buf.Len(), n)
	})
}
