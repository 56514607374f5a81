package textproto

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trainerhq/dexd/internal/logger"
	"github.com/trainerhq/dexd/internal/protocol/command"
	"github.com/trainerhq/dexd/pkg/audit"
	"github.com/trainerhq/dexd/pkg/dex"
	"github.com/trainerhq/dexd/pkg/metrics"
)

// Adapter implements the adapter.Adapter interface for the line-oriented
// text protocol.
//
// The adapter owns the TCP listener and session lifecycle. Each accepted
// connection is handled by a Connection instance that reads command lines,
// appends them to the audit log, dispatches them, and writes
// sentinel-terminated responses.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. shutdownCtx cancelled (in-flight store waits abort)
//  4. Serve() logs how many sessions remain and returns
//
// Active sessions are signalled but never awaited: a worker notices the
// shutdown between commands and ends its session on its own. There is no
// quiescence barrier, matching the server's stop-accepting contract.
//
// Thread safety:
// All methods are safe for concurrent use. The shutdown mechanism uses
// sync.Once so Stop() may be called multiple times.
type Adapter struct {
	// config holds the server configuration (port, limits, timeouts)
	config Config

	// listener is the TCP listener for accepting client connections
	// Closed during shutdown to stop accepting new connections
	listener net.Listener

	// interp dispatches received command lines against the shared stores
	interp *command.Interpreter

	// auditLog records every received command line before dispatch
	auditLog *audit.Log

	// metrics provides optional Prometheus metrics collection
	metrics metrics.SessionMetrics

	// shutdownOnce ensures shutdown is only initiated once
	shutdownOnce sync.Once

	// shutdown signals that shutdown has been initiated
	// Closed by initiateShutdown(), monitored by Serve() and sessions
	shutdown chan struct{}

	// connCount tracks the current number of active sessions
	// Used for metrics and shutdown logging only; nothing joins on it
	connCount atomic.Int32

	// connSemaphore limits concurrent sessions if MaxConnections > 0
	// nil if MaxConnections is 0 (unlimited)
	connSemaphore chan struct{}

	// boundPort holds the port the listener actually bound, which differs
	// from config.Port when an ephemeral port was requested
	boundPort atomic.Int32

	// shutdownCtx is cancelled during shutdown so sessions waiting on the
	// store lock abort instead of writing after the listener is gone
	shutdownCtx    context.Context
	cancelRequests context.CancelFunc
}

// Config holds configuration parameters for the text protocol server.
//
// All timeout values are optional; zero means no timeout, which is the
// default and preserves the protocol's block-until-client-acts behavior.
type Config struct {
	// Enabled controls whether the text adapter is active.
	Enabled bool `mapstructure:"enabled"`

	// Port is the TCP port to listen on for client connections.
	// Port 0 requests an ephemeral port, reported by Port() once bound.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// MaxConnections limits the number of concurrent client sessions.
	// When reached, new connections wait until an existing session closes.
	// 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// ReadTimeout is the maximum duration to wait for a command line.
	// 0 means no timeout: an idle client holds its session open.
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"min=0"`

	// WriteTimeout is the maximum duration for writing a response block.
	// 0 means no timeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"min=0"`

	// IdleTimeout is the maximum duration a session can sit between
	// commands before being closed. 0 means sessions stay open until the
	// client leaves.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
}

// validate checks that the configuration is usable.
func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid MaxConnections %d: must be >= 0", c.MaxConnections)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid ReadTimeout %v: must be >= 0", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid WriteTimeout %v: must be >= 0", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("invalid IdleTimeout %v: must be >= 0", c.IdleTimeout)
	}
	return nil
}

// New creates a new text protocol Adapter with the specified configuration.
//
// The adapter is created in a stopped state. Call SetStores() to inject the
// shared stores, then Serve() to start accepting connections.
//
// Parameters:
//   - config: Server configuration (port, limits, timeouts)
//   - sessionMetrics: Optional metrics collector (nil for no metrics)
//
// Panics if config validation fails.
func New(config Config, sessionMetrics metrics.SessionMetrics) *Adapter {
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid text adapter config: %v", err))
	}

	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
		logger.Debug("Text session limit: %d", config.MaxConnections)
	} else {
		logger.Debug("Text session limit: unlimited")
	}

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	if sessionMetrics == nil {
		sessionMetrics = metrics.NewNoopSessionMetrics()
	}

	return &Adapter{
		config:         config,
		metrics:        sessionMetrics,
		shutdown:       make(chan struct{}),
		connSemaphore:  connSemaphore,
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancelRequests,
	}
}

// SetStores injects the shared stores and builds the command interpreter
// over them.
//
// Called by the dexd server before Serve(); no synchronization needed.
func (s *Adapter) SetStores(pokedex *dex.Pokedex, trainers *dex.Trainers, auditLog *audit.Log) {
	s.interp = command.NewInterpreter(pokedex, trainers, auditLog)
	s.auditLog = auditLog
	logger.Debug("Text adapter stores configured")
}

// Serve starts the text server and blocks until the context is cancelled or
// an unrecoverable error occurs.
//
// Serve accepts incoming TCP connections on the configured port and spawns
// a goroutine per session. When the context is cancelled, Serve closes the
// listener, cancels in-flight store waits, logs the number of sessions that
// are still running, and returns without waiting for them.
//
// Returns:
//   - nil on orderly shutdown
//   - error if the listener cannot be created or stores were never injected
func (s *Adapter) Serve(ctx context.Context) error {
	if s.interp == nil {
		return fmt.Errorf("text adapter has no stores: call SetStores before Serve")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to create text listener on port %d: %w", s.config.Port, err)
	}

	s.listener = listener
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.boundPort.Store(int32(addr.Port))
	}

	logger.Info("Text server listening on port %d", s.Port())
	logger.Debug("Text config: max_connections=%d read_timeout=%v write_timeout=%v idle_timeout=%v",
		s.config.MaxConnections, s.config.ReadTimeout, s.config.WriteTimeout, s.config.IdleTimeout)

	// Monitor context cancellation in a separate goroutine so the accept
	// loop can stay blocked in Accept
	go func() {
		<-ctx.Done()
		logger.Info("Text shutdown signal received: %v", ctx.Err())
		s.initiateShutdown()
	}()

	for {
		// Acquire a session slot if connection limiting is enabled
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.finishShutdown()
			}
		}

		tcpConn, err := s.listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}

			// Accept fails with an error once the listener is closed; that
			// is the shutdown signal, anything else is transient
			select {
			case <-s.shutdown:
				return s.finishShutdown()
			default:
				logger.Debug("Error accepting text connection: %v", err)
				continue
			}
		}

		s.connCount.Add(1)
		s.metrics.RecordSessionAccepted()
		currentConns := s.connCount.Load()
		s.metrics.SetActiveSessions(currentConns)

		logger.Debug("Text session accepted from %s (active: %d)",
			tcpConn.RemoteAddr(), currentConns)

		conn := newConnection(s, tcpConn)
		go func(tcp net.Conn) {
			defer func() {
				s.connCount.Add(-1)
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}

				s.metrics.RecordSessionClosed()
				currentConns := s.connCount.Load()
				s.metrics.SetActiveSessions(currentConns)

				logger.Debug("Text session closed from %s (active: %d)",
					tcp.RemoteAddr(), currentConns)
			}()

			conn.Serve(s.shutdownCtx)
		}(tcpConn)
	}
}

// initiateShutdown stops acceptance. Safe to call multiple times.
func (s *Adapter) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Debug("Text shutdown initiated")

		close(s.shutdown)

		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				logger.Debug("Error closing text listener: %v", err)
			}
		}

		// Abort sessions waiting on the store lock; sessions blocked on
		// their client are left alone
		s.cancelRequests()
	})
}

// finishShutdown logs the sessions left behind and returns. Nothing waits
// for them: they end when their client disconnects or the process exits.
func (s *Adapter) finishShutdown() error {
	remaining := s.connCount.Load()
	if remaining > 0 {
		logger.Info("Text server stopped accepting; %d session(s) left to finish on their own", remaining)
	} else {
		logger.Info("Text server stopped accepting; no active sessions")
	}
	return nil
}

// Stop initiates shutdown of the text server.
//
// Stop is safe to call multiple times and concurrently with Serve(). It
// only signals shutdown; active sessions are not awaited, so Stop returns
// immediately.
func (s *Adapter) Stop(ctx context.Context) error {
	s.initiateShutdown()
	return nil
}

// GetActiveSessions returns the current number of active sessions.
//
// Primarily used for testing and monitoring.
func (s *Adapter) GetActiveSessions() int32 {
	return s.connCount.Load()
}

// Port returns the TCP port the text server is listening on. Before Serve()
// binds the listener this is the configured port.
func (s *Adapter) Port() int {
	if p := s.boundPort.Load(); p != 0 {
		return int(p)
	}
	return s.config.Port
}

// Protocol returns "text" as the protocol identifier.
func (s *Adapter) Protocol() string {
	return "text"
}
