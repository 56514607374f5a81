// Package file implements a file-backed arena compatible with the legacy
// dataset files: fixed-width records stored back-to-back in a single flat
// file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kjk/common/atomicfile"

	"github.com/trainerhq/dexd/pkg/store"
)

// Arena is a file-backed record arena.
//
// The file is opened per operation rather than held open. That keeps the
// arena valid across Rebuild, which swaps the file by rename: operations
// started after the swap see the new file, and a crash mid-rebuild leaves
// the original untouched.
type Arena struct {
	path  string
	width int
}

var _ store.Arena = (*Arena)(nil)

// New opens the arena at path. With create set, a missing file is created
// empty; without it, the file must already exist. An existing file whose
// size is not a whole number of records fails with store.ErrCorrupt.
func New(path string, width int, create bool) (*Arena, error) {
	if width <= 0 {
		return nil, fmt.Errorf("arena %s: invalid record width %d", path, width)
	}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.Size()%int64(width) != 0 {
			return nil, fmt.Errorf("arena %s: size %d not a multiple of %d: %w",
				path, info.Size(), width, store.ErrCorrupt)
		}
	case os.IsNotExist(err) && create:
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create arena %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("create arena %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("open arena %s: %w", path, err)
	}

	return &Arena{path: path, width: width}, nil
}

func (a *Arena) Width() int {
	return a.width
}

func (a *Arena) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Stat(a.path)
	if err != nil {
		return 0, fmt.Errorf("stat arena %s: %w", a.path, err)
	}
	if info.Size()%int64(a.width) != 0 {
		return 0, fmt.Errorf("arena %s: size %d not a multiple of %d: %w",
			a.path, info.Size(), a.width, store.ErrCorrupt)
	}
	return int(info.Size() / int64(a.width)), nil
}

func (a *Arena) Scan(ctx context.Context, fn func(index int, slot []byte) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(a.path)
	if err != nil {
		return fmt.Errorf("open arena %s: %w", a.path, err)
	}
	defer f.Close()

	slot := make([]byte, a.width)
	for index := 0; ; index++ {
		_, err := io.ReadFull(f, slot)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("arena %s: trailing partial record: %w", a.path, store.ErrCorrupt)
		}
		if err != nil {
			return fmt.Errorf("read arena %s: %w", a.path, err)
		}

		cont, err := fn(index, slot)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

func (a *Arena) Append(ctx context.Context, slot []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(slot) != a.width {
		return fmt.Errorf("arena %s: append %d bytes: %w", a.path, len(slot), store.ErrWidth)
	}

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open arena %s: %w", a.path, err)
	}
	if _, err := f.Write(slot); err != nil {
		f.Close()
		return fmt.Errorf("append to arena %s: %w", a.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close arena %s: %w", a.path, err)
	}
	return nil
}

func (a *Arena) WriteAt(ctx context.Context, index int, slot []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(slot) != a.width {
		return fmt.Errorf("arena %s: write %d bytes: %w", a.path, len(slot), store.ErrWidth)
	}

	count, err := a.Len(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= count {
		return fmt.Errorf("arena %s: index %d of %d: %w", a.path, index, count, store.ErrOutOfRange)
	}

	f, err := os.OpenFile(a.path, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open arena %s: %w", a.path, err)
	}
	if _, err := f.WriteAt(slot, int64(index)*int64(a.width)); err != nil {
		f.Close()
		return fmt.Errorf("write arena %s at %d: %w", a.path, index, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close arena %s: %w", a.path, err)
	}
	return nil
}

func (a *Arena) Rebuild(ctx context.Context, keep func(index int, slot []byte) (bool, error)) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	out, err := atomicfile.New(a.path)
	if err != nil {
		return 0, fmt.Errorf("rebuild arena %s: %w", a.path, err)
	}
	defer out.RemoveIfNotClosed()

	removed := 0
	err = a.Scan(ctx, func(index int, slot []byte) (bool, error) {
		kept, err := keep(index, slot)
		if err != nil {
			return false, err
		}
		if !kept {
			removed++
			return true, nil
		}
		if _, err := out.Write(slot); err != nil {
			return false, fmt.Errorf("rebuild arena %s: %w", a.path, err)
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("rebuild arena %s: %w", a.path, err)
	}
	return removed, nil
}

func (a *Arena) Close() error {
	return nil
}
