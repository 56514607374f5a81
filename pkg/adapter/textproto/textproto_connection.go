package textproto

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/trainerhq/dexd/internal/logger"
	"github.com/trainerhq/dexd/internal/protocol/command"
	"github.com/trainerhq/dexd/internal/wire"
)

// Connection handles the command/response cycle for a single client
// session.
type Connection struct {
	server  *Adapter
	conn    net.Conn
	session string
}

func newConnection(server *Adapter, conn net.Conn) *Connection {
	return &Connection{
		server:  server,
		conn:    conn,
		session: uuid.NewString(),
	}
}

// Serve reads command lines until the session ends. It implements panic
// recovery so a single misbehaving session cannot take down the server.
//
// The session ends when:
// - The client sends exit (farewell is written first)
// - The client closes the connection
// - A read or write fails, a timeout included
// - Shutdown is noticed between commands
//
// A malformed command never ends the session; it is answered like any
// other.
func (c *Connection) Serve(ctx context.Context) {
	clientAddr := c.conn.RemoteAddr().String()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in session %s from %s: %v", c.session, clientAddr, r)
		}
		_ = c.conn.Close()
	}()

	logger.Debug("Session %s started for %s", c.session, clientAddr)

	if c.server.config.IdleTimeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.server.config.IdleTimeout)); err != nil {
			logger.Warn("Failed to set deadline for %s: %v", clientAddr, err)
		}
	}

	reader := wire.NewLineReader(c.conn)

	for {
		// Between commands is the one place shutdown is noticed; a session
		// blocked in a read is left to its client
		select {
		case <-ctx.Done():
			logger.Debug("Session %s from %s ended by context cancellation", c.session, clientAddr)
			return
		case <-c.server.shutdown:
			logger.Debug("Session %s from %s ended by server shutdown", c.session, clientAddr)
			return
		default:
		}

		if c.server.config.ReadTimeout > 0 {
			deadline := time.Now().Add(c.server.config.ReadTimeout)
			if err := c.conn.SetReadDeadline(deadline); err != nil {
				logger.Warn("Failed to set read deadline for %s: %v", clientAddr, err)
				return
			}
		}

		line, err := reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debug("Session %s from %s closed by client", c.session, clientAddr)
			} else if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				logger.Debug("Session %s from %s timed out: %v", c.session, clientAddr, err)
			} else {
				logger.Debug("Error reading from session %s (%s): %v", c.session, clientAddr, err)
			}
			return
		}
		c.server.metrics.RecordBytesTransferred("received", int64(len(line))+1)

		// Every received line is recorded before dispatch, whatever the
		// dispatch outcome
		if err := c.server.auditLog.Append(time.Now(), clientAddr, line); err != nil {
			logger.Warn("Audit append failed for session %s: %v", c.session, err)
		}

		res := c.dispatch(ctx, line)

		if c.server.config.WriteTimeout > 0 {
			deadline := time.Now().Add(c.server.config.WriteTimeout)
			if err := c.conn.SetWriteDeadline(deadline); err != nil {
				logger.Warn("Failed to set write deadline for %s: %v", clientAddr, err)
				return
			}
		}

		n, err := wire.WriteResponse(c.conn, res.Text)
		if err != nil {
			logger.Debug("Send failed for session %s (%s): %v", c.session, clientAddr, err)
			return
		}
		c.server.metrics.RecordBytesTransferred("sent", int64(n))

		if res.Close {
			logger.Debug("Session %s from %s ended by exit command", c.session, clientAddr)
			return
		}

		if c.server.config.IdleTimeout > 0 {
			if err := c.conn.SetDeadline(time.Now().Add(c.server.config.IdleTimeout)); err != nil {
				logger.Warn("Failed to reset deadline for %s: %v", clientAddr, err)
			}
		}
	}
}

// dispatch runs one command line through the interpreter and records
// command metrics around it.
func (c *Connection) dispatch(ctx context.Context, line string) command.Result {
	name := command.Name(line)

	c.server.metrics.RecordCommandStart(name)
	defer c.server.metrics.RecordCommandEnd(name)

	startTime := time.Now()
	res := c.server.interp.Execute(ctx, line)
	c.server.metrics.RecordCommand(name, time.Since(startTime))

	return res
}
