// Package client implements a programmatic client for the dexd text
// protocol: dial the server, send command lines, read sentinel-terminated
// response blocks.
package client

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/trainerhq/dexd/internal/wire"
)

// Client is a connected dexd session.
//
// A Client owns one TCP connection and runs one command at a time over it;
// Do calls are serialized internally, so a Client is safe for concurrent
// use. For parallel load, dial one Client per goroutine.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *wire.LineReader
	timeout time.Duration
}

// Dial connects to a dexd server at addr (host:port) with no I/O timeout:
// calls block until the server answers, matching interactive use.
func Dial(addr string) (*Client, error) {
	return DialTimeout(addr, 0)
}

// DialTimeout connects like Dial but bounds the connect and every
// subsequent command round trip by timeout. Zero means no bound.
func DialTimeout(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{
		conn:    conn,
		reader:  wire.NewLineReader(conn),
		timeout: timeout,
	}, nil
}

// Do sends one command line and reads the response block up to the
// sentinel. The returned body has the sentinel and the final line
// terminator stripped; interior newlines of multi-line responses are
// preserved.
//
// A transport failure leaves the connection unusable; callers should Close
// and re-dial.
func (c *Client) Do(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return "", fmt.Errorf("set deadline: %w", err)
		}
	}

	if err := wire.WriteFull(c.conn, []byte(command+"\n")); err != nil {
		return "", fmt.Errorf("send %q: %w", command, err)
	}

	var lines []string
	for {
		line, err := c.reader.ReadLine()
		if err != nil {
			return "", fmt.Errorf("response to %q cut short: %w", command, err)
		}
		if line == wire.Sentinel {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
}

// Close tears down the connection. The server notices on its next read.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
