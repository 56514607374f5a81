package store

import "errors"

// Standard arena errors. Implementations wrap these with context:
//
//	return fmt.Errorf("arena %s: %w", path, store.ErrCorrupt)
//
// Callers test with errors.Is.
var (
	// ErrCorrupt indicates the stored size is not a whole number of
	// records. The arena refuses all access rather than guess at a
	// record boundary.
	ErrCorrupt = errors.New("arena is corrupt")

	// ErrOutOfRange indicates a positional access past the last record.
	ErrOutOfRange = errors.New("record index out of range")

	// ErrWidth indicates a slot whose length is not the arena width.
	ErrWidth = errors.New("slot width mismatch")
)
