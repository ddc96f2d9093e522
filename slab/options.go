package slab

import (
	"context"
	"log/slog"
)

// Limiter is an admission interface for chunk memory. resource.Controller
// implements it; a nil Limiter means unlimited.
type Limiter interface {
	AcquireMemory(ctx context.Context, bytes int64) error
	ReleaseMemory(bytes int64)
}

const (
	// DefaultChunkSize is the default chunk size (1 MiB).
	DefaultChunkSize = 1024 * 1024
	// MaxChunks caps the number of chunks a slab may hold.
	MaxChunks = 65536
)

type options struct {
	chunkSize int
	offHeap   bool
	logger    *slog.Logger
	limiter   Limiter
}

// Option configures a Slab.
type Option func(*options)

// WithChunkSize sets the chunk size in bytes. Values are rounded up to the
// next power of two; non-positive values select DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(o *options) {
		o.chunkSize = size
	}
}

// WithOffHeap backs chunks with anonymous mappings instead of heap memory.
// Off-heap chunks are invisible to the garbage collector, which matters for
// slabs holding many gigabytes of pointer-free data.
//
// Do not store Go pointers in cells of an off-heap slab; the collector
// cannot see them.
func WithOffHeap() Option {
	return func(o *options) {
		o.offHeap = true
	}
}

// WithLogger sets the logger used for chunk growth events. Defaults to a
// discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLimiter sets the memory admission limiter consulted before each chunk
// allocation.
func WithLimiter(l Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}
