package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileCollection persists a collection as a pretty-printed JSON array in
// a single flat file. Save stages the new content in a temp file in the
// same directory and renames it over the live file, so an interrupted
// write leaves the previous collection intact.
type FileCollection[T Record] struct {
	path string
	seed []T
}

// NewFileCollection returns a file-backed collection at path. seed is
// written on first touch, when the file does not exist yet; a nil seed
// initializes an empty collection.
func NewFileCollection[T Record](path string, seed []T) *FileCollection[T] {
	return &FileCollection[T]{path: path, seed: seed}
}

func (c *FileCollection[T]) Ping(_ context.Context) error {
	dir := filepath.Dir(c.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *FileCollection[T]) Load(ctx context.Context) ([]T, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return c.initialize(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, c.path, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, c.path, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (c *FileCollection[T]) Save(_ context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrUnavailable, err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrUnavailable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: stage %s: %v", ErrUnavailable, c.path, err)
	}

	if err := writeAndClose(tmp, data); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: stage %s: %v", ErrUnavailable, c.path, err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: swap %s: %v", ErrUnavailable, c.path, err)
	}
	return nil
}

// initialize writes the seed so a second Load with no intervening Save
// observes the same collection.
func (c *FileCollection[T]) initialize(ctx context.Context) ([]T, error) {
	seed := c.seed
	if seed == nil {
		seed = []T{}
	}

	if err := c.Save(ctx, seed); err != nil {
		return nil, err
	}
	return append(make([]T, 0, len(seed)), seed...), nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
