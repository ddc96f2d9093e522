package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a snapshot does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for durable snapshot storage.
type Store interface {
	// Open opens a snapshot for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a snapshot for streaming writes.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, name string) error
	// List returns all snapshot names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored snapshot.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs that expose their backing bytes.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// WritableBlob is a write-only handle for a snapshot under construction.
// The snapshot becomes visible on Close.
type WritableBlob interface {
	io.Writer
	io.Closer
	// Sync flushes buffered data to durable storage.
	Sync() error
}

// Save frames sections and writes them to the store under name.
func Save(ctx context.Context, store Store, name string, sections [][]byte, opts ...Option) error {
	wb, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: create %q: %w", name, err)
	}

	if err := Write(ctx, wb, sections, opts...); err != nil {
		_ = wb.Close()
		return err
	}

	if err := wb.Sync(); err != nil {
		_ = wb.Close()
		return fmt.Errorf("snapshot: sync %q: %w", name, err)
	}

	if err := wb.Close(); err != nil {
		return fmt.Errorf("snapshot: close %q: %w", name, err)
	}
	return nil
}

// Load reads the snapshot stored under name and returns its sections.
func Load(ctx context.Context, store Store, name string, opts ...Option) ([][]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %q: %w", name, err)
	}
	defer blob.Close()

	var r io.Reader
	if m, ok := blob.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	} else {
		r = io.NewSectionReader(blob, 0, blob.Size())
	}

	return Read(ctx, r, opts...)
}
