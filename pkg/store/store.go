// Package store defines the arena abstraction for fixed-width record
// storage. An arena is a flat sequence of equal-width binary records
// addressed by position; it knows nothing about record contents.
package store

import "context"

// ============================================================================
// Arena Interface
// ============================================================================

// Arena provides positional access to fixed-width binary records.
//
// Arenas preserve the legacy dataset format: records are stored
// back-to-back with no framing or index, so position is the only handle
// and a linear scan is the only lookup. The arena enforces a single
// structural invariant: total size is always a whole number of records.
//
// Concurrency:
// Arenas do not serialize callers. Higher layers that mutate shared
// arenas (see pkg/dex) hold their own lock across every access, so a
// single writer or reader is active at a time. Implementations only
// need to keep Rebuild crash-safe: a reader opening the arena after a
// crash must see either the old or the new contents, never a torn mix.
//
// Error Conventions:
//   - ErrCorrupt: stored size is not a multiple of the record width
//   - ErrOutOfRange: positional access beyond the last record
//   - ErrWidth: a slot whose length differs from Width
type Arena interface {
	// Width returns the fixed record width in bytes.
	Width() int

	// Len returns the number of records currently stored.
	Len(ctx context.Context) (int, error)

	// Scan visits records in positional order. fn receives the position
	// and the raw slot bytes; the slot is only valid for the duration of
	// the call. Returning false stops the scan early.
	Scan(ctx context.Context, fn func(index int, slot []byte) (bool, error)) error

	// Append adds one record after the current last position.
	Append(ctx context.Context, slot []byte) error

	// WriteAt replaces the record at the given position in place.
	WriteAt(ctx context.Context, index int, slot []byte) error

	// Rebuild rewrites the arena keeping only the records for which keep
	// returns true, and reports how many were dropped. The swap is atomic:
	// concurrent openers observe the old arena or the new one in full.
	Rebuild(ctx context.Context, keep func(index int, slot []byte) (bool, error)) (int, error)

	// Close releases any resources held by the arena.
	Close() error
}
