// Package wire implements the line framing used on client connections:
// newline-terminated request frames in, newline-terminated response blocks
// closed by a sentinel line out.
package wire

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	// MaxLineLen caps a single request frame. Input that exceeds the cap
	// without a newline is delivered as a complete frame rather than
	// stalling the session.
	MaxLineLen = 8192

	// Sentinel is written on its own line after every response block.
	// Clients read until they see it and do not display it.
	Sentinel = "[END]"
)

// LineReader yields request frames from a connection, one line at a time.
type LineReader struct {
	r *bufio.Reader
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, MaxLineLen)}
}

// ReadLine returns the next frame with the line terminator stripped.
// A final unterminated line before close is returned as a normal frame;
// the subsequent call reports io.EOF.
func (lr *LineReader) ReadLine() (string, error) {
	line, err := lr.r.ReadSlice('\n')
	switch {
	case err == nil:
	case errors.Is(err, bufio.ErrBufferFull):
		// Frame longer than the cap: hand over what fits.
	case errors.Is(err, io.EOF) && len(line) > 0:
	default:
		return "", err
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

// WriteFull writes all of p, continuing after short writes.
func WriteFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// WriteResponse sends body followed by the sentinel line and reports how
// many bytes went out. A missing trailing newline on body is supplied so the
// sentinel always starts its own line.
func WriteResponse(w io.Writer, body string) (int, error) {
	var b strings.Builder
	b.Grow(len(body) + len(Sentinel) + 2)
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(Sentinel)
	b.WriteByte('\n')

	frame := b.String()
	if err := WriteFull(w, []byte(frame)); err != nil {
		return 0, err
	}
	return len(frame), nil
}
