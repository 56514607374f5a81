package adapter

import (
	"context"

	"github.com/trainerhq/dexd/pkg/audit"
	"github.com/trainerhq/dexd/pkg/dex"
)

// Adapter represents a protocol-specific server adapter that can be managed
// by the dexd server.
//
// Each adapter exposes the shared record stores over one client protocol and
// provides a unified interface for lifecycle management. All adapters share
// the same pokédex, trainer roster, and audit log, ensuring a consistent
// view of the data regardless of how a client connects.
//
// Lifecycle:
//  1. Creation: Adapter is created with protocol-specific configuration
//  2. Store injection: SetStores() provides shared backend access
//  3. Startup: Serve() starts the protocol server and blocks until shutdown
//  4. Shutdown: Stop() stops acceptance; active sessions are not awaited
//
// Thread safety:
// Implementations must be safe for concurrent use. SetStores() is called
// once before Serve(), but Stop() may be called concurrently with Serve().
type Adapter interface {
	// Serve starts the protocol server and blocks until the context is
	// cancelled or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must stop accepting new
	// connections and return. Sessions already in flight are left to finish
	// on their own; there is no quiescence barrier.
	//
	// If Serve returns before context cancellation, the server treats it as
	// a fatal error and stops all other adapters.
	//
	// Returns:
	//   - nil on orderly shutdown
	//   - context.Canceled if cancelled via context
	//   - error if startup fails
	Serve(ctx context.Context) error

	// SetStores injects the shared stores.
	//
	// Called exactly once by the server before Serve().
	//
	// Parameters:
	//   - pokedex: read-only reference store
	//   - trainers: mutable trainer roster
	//   - auditLog: shared command audit log
	SetStores(pokedex *dex.Pokedex, trainers *dex.Trainers, auditLog *audit.Log)

	// Stop initiates shutdown of the protocol server.
	//
	// Implementations must be idempotent and safe to call concurrently with
	// Serve(). Stop only signals; it does not wait for sessions to end.
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging and
	// metrics, e.g. "text".
	Protocol() string

	// Port returns the TCP port the adapter is listening on.
	//
	// Returns 0 if the adapter has not yet started or uses dynamic port
	// allocation.
	Port() int
}
