// Package memory implements an in-memory arena. It is used by tests and by
// ephemeral server runs where persistence is not wanted.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/trainerhq/dexd/pkg/store"
)

// Arena stores records in a slice guarded by a read-write mutex. The lock
// makes each operation atomic on its own; cross-operation atomicity is the
// caller's concern, as with every arena.
type Arena struct {
	mu      sync.RWMutex
	width   int
	records [][]byte
}

var _ store.Arena = (*Arena)(nil)

func New(width int) (*Arena, error) {
	if width <= 0 {
		return nil, fmt.Errorf("memory arena: invalid record width %d", width)
	}
	return &Arena{width: width}, nil
}

// Load seeds the arena from a flat byte image, typically a legacy dataset
// file read into memory.
func (a *Arena) Load(image []byte) error {
	if len(image)%a.width != 0 {
		return fmt.Errorf("memory arena: image size %d not a multiple of %d: %w",
			len(image), a.width, store.ErrCorrupt)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = a.records[:0]
	for off := 0; off < len(image); off += a.width {
		slot := make([]byte, a.width)
		copy(slot, image[off:off+a.width])
		a.records = append(a.records, slot)
	}
	return nil
}

func (a *Arena) Width() int {
	return a.width
}

func (a *Arena) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records), nil
}

func (a *Arena) Scan(ctx context.Context, fn func(index int, slot []byte) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	for index, slot := range a.records {
		cont, err := fn(index, slot)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func (a *Arena) Append(ctx context.Context, slot []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(slot) != a.width {
		return fmt.Errorf("memory arena: append %d bytes: %w", len(slot), store.ErrWidth)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	owned := make([]byte, a.width)
	copy(owned, slot)
	a.records = append(a.records, owned)
	return nil
}

func (a *Arena) WriteAt(ctx context.Context, index int, slot []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(slot) != a.width {
		return fmt.Errorf("memory arena: write %d bytes: %w", len(slot), store.ErrWidth)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.records) {
		return fmt.Errorf("memory arena: index %d of %d: %w", index, len(a.records), store.ErrOutOfRange)
	}
	copy(a.records[index], slot)
	return nil
}

func (a *Arena) Rebuild(ctx context.Context, keep func(index int, slot []byte) (bool, error)) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	kept := make([][]byte, 0, len(a.records))
	removed := 0
	for index, slot := range a.records {
		ok, err := keep(index, slot)
		if err != nil {
			return 0, err
		}
		if ok {
			kept = append(kept, slot)
		} else {
			removed++
		}
	}
	a.records = kept
	return removed, nil
}

func (a *Arena) Close() error {
	return nil
}
