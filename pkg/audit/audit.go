// Package audit records every received client command in a shared
// append-only log file and serves the tail of that file back to clients.
package audit

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultTailLines is the tail size used when a client does not ask for a
// usable line count.
const DefaultTailLines = 10

// ErrEmpty indicates the log exists but holds no lines yet.
var ErrEmpty = errors.New("log is empty")

// Log is the append-only command audit log.
//
// A single mutex serializes appends and tail reads. The lock is private to
// the log: callers never hold it together with the record store lock, so
// audit ordering is independent of store ordering.
type Log struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the backing file path.
func (l *Log) Path() string {
	return l.path
}

// Append records one command line as
//
//	[2006-01-02 15:04:05] Client <addr> issued command: <command>
//
// The file is created on first use. The open/write/close cycle runs under
// the log mutex, so concurrent appends never interleave within a line.
func (l *Log) Append(now time.Time, addr, command string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log %s: %w", l.path, err)
	}

	line := fmt.Sprintf("[%s] Client %s issued command: %s\n",
		now.Format("2006-01-02 15:04:05"), addr, command)
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("append audit log %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audit log %s: %w", l.path, err)
	}
	return nil
}

// Tail returns the last n lines in file order. n below one falls back to
// DefaultTailLines. A log that cannot be opened or holds no lines yet is
// reported as an error so callers can answer with their unreadable-log
// message.
func (l *Log) Tail(n int) ([]string, error) {
	if n < 1 {
		n = DefaultTailLines
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", l.path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log %s: %w", l.path, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("audit log %s: %w", l.path, ErrEmpty)
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Render joins tail lines back into a response body, one line each.
func Render(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
