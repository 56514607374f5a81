package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/trainerhq/dexd/internal/logger"
	"github.com/trainerhq/dexd/pkg/adapter"
	"github.com/trainerhq/dexd/pkg/audit"
	"github.com/trainerhq/dexd/pkg/dex"
)

// Server manages the lifecycle of the protocol adapters that share the
// record stores and the audit log.
//
// Lifecycle:
//  1. Creation: New() with the shared stores
//  2. Registration: AddAdapter() for each protocol front end
//  3. Startup: Serve() starts all adapters concurrently
//  4. Shutdown: context cancellation signals every adapter to stop
//
// All adapters operate on the same Pokedex, Trainers and audit log, so a
// record added over one front end is immediately visible on the others.
//
// Thread safety:
// AddAdapter() may be called concurrently before Serve(). Serve() must be
// called exactly once per instance.
type Server struct {
	pokedex  *dex.Pokedex
	trainers *dex.Trainers
	auditLog *audit.Log

	// adapters contains all registered protocol adapters
	adapters []adapter.Adapter

	// mu protects the adapters slice and the served flag
	mu sync.RWMutex

	// serveOnce ensures the serve loop runs at most once
	serveOnce sync.Once

	served bool
}

// New creates a Server around the shared stores.
//
// The stores are injected into every adapter added to this server, so all
// protocol front ends observe the same records. Panics if any store is nil;
// that is a programmer error, not a runtime condition.
func New(pokedex *dex.Pokedex, trainers *dex.Trainers, auditLog *audit.Log) *Server {
	if pokedex == nil {
		panic("pokedex store cannot be nil")
	}
	if trainers == nil {
		panic("trainer store cannot be nil")
	}
	if auditLog == nil {
		panic("audit log cannot be nil")
	}

	return &Server{
		pokedex:  pokedex,
		trainers: trainers,
		auditLog: auditLog,
		adapters: make([]adapter.Adapter, 0, 2),
	}
}

// AddAdapter registers a protocol adapter and injects the shared stores
// into it.
//
// Each adapter must serve a distinct protocol, and two adapters cannot
// claim the same fixed port. Port 0 requests an ephemeral port from the
// kernel, so it never conflicts.
//
// Panics if a is nil or if Serve() has already been called.
func (s *Server) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		panic("cannot add adapter after Serve() has been called")
	}

	protocol := a.Protocol()
	port := a.Port()

	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
		if port != 0 && existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter",
				port, existing.Protocol())
		}
	}

	a.SetStores(s.pokedex, s.trainers, s.auditLog)
	s.adapters = append(s.adapters, a)

	logger.Info("Registered %s adapter on port %d", protocol, port)

	return nil
}

// Serve starts all registered adapters and blocks until the context is
// cancelled or an adapter fails.
//
// When the context is cancelled, every adapter receives a Stop() call in
// reverse registration order and Serve() waits for their serve loops to
// return. Adapters signal shutdown to their sessions but do not wait for
// them; sessions still talking to a client finish on their own.
//
// Returns the context error on cancellation, or the failing adapter's
// error wrapped with its protocol name. Panics when called a second time.
func (s *Server) Serve(ctx context.Context) error {
	first := false
	var err error

	s.serveOnce.Do(func() {
		first = true
		s.mu.Lock()
		s.served = true
		s.mu.Unlock()
		err = s.serve(ctx)
	})

	if !first {
		panic("Serve() has already been called on this server instance")
	}

	return err
}

func (s *Server) serve(ctx context.Context) error {
	s.mu.RLock()
	if len(s.adapters) == 0 {
		s.mu.RUnlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.RUnlock()

	logger.Info("Starting server with %d adapter(s)", len(adapters))

	// Buffered so a failing adapter never blocks on report delivery.
	errChan := make(chan adapterError, len(adapters))

	var wg sync.WaitGroup
	for _, adp := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()
			logger.Info("Starting %s adapter on port %d", protocol, a.Port())

			if err := a.Serve(ctx); err != nil {
				// context.Canceled is the expected shutdown path.
				if err != context.Canceled && ctx.Err() == nil {
					logger.Error("%s adapter failed: %v", protocol, err)
					errChan <- adapterError{protocol: protocol, err: err}
					return
				}
				logger.Debug("%s adapter stopped after shutdown signal", protocol)
				return
			}
			logger.Info("%s adapter stopped", protocol)
		}(adp)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		s.stopAllAdapters(adapters)
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - stopping all adapters",
			adapterErr.protocol, adapterErr.err)
		s.stopAllAdapters(adapters)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	logger.Debug("Waiting for adapter serve loops to return")
	wg.Wait()

	logger.Info("Server stopped")

	return shutdownErr
}

// adapterError pairs an adapter protocol name with its error.
type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters signals shutdown to every adapter in reverse
// registration order. Stop() only signals; the adapters' Serve goroutines
// do the actual unwinding and are joined by the caller.
func (s *Server) stopAllAdapters(adapters []adapter.Adapter) {
	ctx := context.Background()

	logger.Info("Stopping %d adapter(s)", len(adapters))

	for i := len(adapters) - 1; i >= 0; i-- {
		adp := adapters[i]
		protocol := adp.Protocol()

		if err := adp.Stop(ctx); err != nil && err != context.Canceled {
			logger.Error("Error stopping %s adapter: %v", protocol, err)
			continue
		}
		logger.Debug("%s adapter stop signal sent", protocol)
	}
}

// Adapters returns a snapshot of the registered adapters. The copy is safe
// to iterate without holding the server's lock.
func (s *Server) Adapters() []adapter.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}
