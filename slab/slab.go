package slab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/rawcell"
	"github.com/hupe1980/rawcell/internal/conv"
	"github.com/hupe1980/rawcell/internal/mmap"
)

var (
	// ErrClosed is returned when allocating from a closed slab.
	ErrClosed = errors.New("slab: closed")
	// ErrMaxChunks is returned when the slab would exceed MaxChunks.
	ErrMaxChunks = errors.New("slab: max chunks exceeded")
	// ErrTooLarge is returned when a span cannot fit in a single chunk.
	ErrTooLarge = errors.New("slab: allocation exceeds chunk capacity")
)

// Stats tracks slab usage.
type Stats struct {
	ChunksAllocated uint64 // historical: chunks ever created
	ActiveChunks    uint64 // current: chunks held
	BytesReserved   uint64 // current: chunk memory reserved
	CellsAllocated  uint64 // historical: cells handed out
	CellsRecycled   uint64 // historical: allocations served from the free set
}

type atomicStats struct {
	ChunksAllocated atomic.Uint64
	ActiveChunks    atomic.Uint64
	BytesReserved   atomic.Uint64
	CellsAllocated  atomic.Uint64
	CellsRecycled   atomic.Uint64
}

type chunk[T any] struct {
	cells   []rawcell.Cell[T]
	used    atomic.Int64  // cells handed out; bumped with CAS
	mapping *mmap.Mapping // non-nil for off-heap chunks
	index   uint32
}

// tryAlloc bumps the watermark by n and returns the span, or false when the
// chunk cannot hold n more cells.
func (c *chunk[T]) tryAlloc(n int) ([]rawcell.Cell[T], bool) {
	for {
		old := c.used.Load()
		next := old + int64(n)
		if next > int64(len(c.cells)) {
			return nil, false
		}
		if c.used.CompareAndSwap(old, next) {
			return c.cells[old:next:next], true
		}
	}
}

// Slab is a chunked bulk allocator for Cell[T] storage.
type Slab[T any] struct {
	opts          options
	cellSize      uintptr
	cellsPerChunk int

	mu      sync.RWMutex // guards chunk list growth, Reset, Close
	chunks  []*chunk[T]
	current atomic.Pointer[chunk[T]]
	closed  atomic.Bool

	freeMu sync.Mutex
	free   *roaring.Bitmap // recycled slot ids

	stats atomicStats

	// Shared storage for zero-sized T; every such cell is the same cell.
	zero rawcell.Cell[T]
}

// New creates a Slab. The first chunk is allocated eagerly so the first
// Alloc never pays the growth path.
func New[T any](opts ...Option) (*Slab[T], error) {
	o := options{
		chunkSize: DefaultChunkSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkSize <= 0 {
		o.chunkSize = DefaultChunkSize
	}
	// Power of two keeps chunk capacity arithmetic cheap.
	o.chunkSize = 1 << bits.Len(uint(o.chunkSize-1))

	var z rawcell.Cell[T]
	cellSize := unsafe.Sizeof(z)

	s := &Slab[T]{
		opts:     o,
		cellSize: cellSize,
		free:     roaring.New(),
	}

	if cellSize == 0 {
		// Zero-sized cells occupy no chunk memory at all.
		return s, nil
	}

	s.cellsPerChunk = o.chunkSize / int(cellSize)
	if s.cellsPerChunk == 0 {
		s.cellsPerChunk = 1
	}

	s.mu.Lock()
	err := s.grow(context.Background())
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// chunkBytes is the byte footprint of one chunk.
func (s *Slab[T]) chunkBytes() int {
	return s.cellsPerChunk * int(s.cellSize)
}

// grow appends a chunk. Callers hold s.mu.
func (s *Slab[T]) grow(ctx context.Context) error {
	idx := len(s.chunks)
	if idx >= MaxChunks {
		return ErrMaxChunks
	}

	byteSize := s.chunkBytes()
	if s.opts.limiter != nil {
		if err := s.opts.limiter.AcquireMemory(ctx, int64(byteSize)); err != nil {
			return fmt.Errorf("slab: acquire chunk memory: %w", err)
		}
	}

	var (
		cells   []rawcell.Cell[T]
		mapping *mmap.Mapping
	)
	if s.opts.offHeap {
		m, err := mmap.MapAnon(byteSize)
		if err != nil {
			if s.opts.limiter != nil {
				s.opts.limiter.ReleaseMemory(int64(byteSize))
			}
			return fmt.Errorf("slab: map chunk: %w", err)
		}
		mapping = m
		cells = unsafe.Slice((*rawcell.Cell[T])(unsafe.Pointer(unsafe.SliceData(m.Bytes()))), s.cellsPerChunk) //nolint:gosec // unsafe is required for chunk reinterpretation
	} else {
		// Typed allocation keeps T's pointer bitmap, so the collector sees
		// pointers stored in heap-chunk cells. Only off-heap chunks carry
		// the pointer-free restriction.
		cells = make([]rawcell.Cell[T], s.cellsPerChunk)
	}

	c := &chunk[T]{
		cells:   cells,
		mapping: mapping,
		index:   uint32(idx), //nolint:gosec // idx < MaxChunks
	}

	s.chunks = append(s.chunks, c)
	s.current.Store(c)

	s.stats.ChunksAllocated.Add(1)
	s.stats.ActiveChunks.Add(1)
	byteSizeU64, _ := conv.IntToUint64(byteSize)
	s.stats.BytesReserved.Add(byteSizeU64)

	s.opts.logger.Debug("slab chunk allocated",
		slog.Int("index", idx),
		slog.Int("bytes", byteSize),
		slog.Bool("off_heap", s.opts.offHeap),
	)
	return nil
}

// Alloc returns a single cell with unspecified contents.
func (s *Slab[T]) Alloc() (*rawcell.Cell[T], error) {
	return s.AllocContext(context.Background())
}

// AllocContext is Alloc with a context for limiter waits on chunk growth.
func (s *Slab[T]) AllocContext(ctx context.Context) (*rawcell.Cell[T], error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if s.cellSize == 0 {
		s.stats.CellsAllocated.Add(1)
		return &s.zero, nil
	}

	if p := s.popFree(); p != nil {
		s.stats.CellsAllocated.Add(1)
		s.stats.CellsRecycled.Add(1)
		return p, nil
	}

	span, err := s.allocSpan(ctx, 1)
	if err != nil {
		return nil, err
	}
	return &span[0], nil
}

// AllocSlice returns a contiguous span of n cells with unspecified
// contents. The span never crosses a chunk boundary, so n is limited to the
// chunk capacity.
func (s *Slab[T]) AllocSlice(n int) ([]rawcell.Cell[T], error) {
	return s.AllocSliceContext(context.Background(), n)
}

// AllocSliceContext is AllocSlice with a context for limiter waits.
func (s *Slab[T]) AllocSliceContext(ctx context.Context, n int) ([]rawcell.Cell[T], error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, nil
	}
	if s.cellSize == 0 {
		s.stats.CellsAllocated.Add(uint64(n))
		return make([]rawcell.Cell[T], n), nil
	}
	return s.allocSpan(ctx, n)
}

func (s *Slab[T]) allocSpan(ctx context.Context, n int) ([]rawcell.Cell[T], error) {
	if n > s.cellsPerChunk {
		return nil, fmt.Errorf("%w: %d cells, chunk holds %d", ErrTooLarge, n, s.cellsPerChunk)
	}

	for {
		curr := s.current.Load()
		if curr == nil {
			return nil, ErrClosed
		}

		if span, ok := curr.tryAlloc(n); ok {
			s.stats.CellsAllocated.Add(uint64(n))
			return span, nil
		}

		// Chunk is full. If another goroutine already grew, retry on the
		// new chunk; otherwise grow under the lock.
		if s.current.Load() != curr {
			continue
		}

		s.mu.Lock()
		if s.closed.Load() {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		if s.current.Load() != curr {
			s.mu.Unlock()
			continue
		}
		err := s.grow(ctx)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}
}

// popFree serves an allocation from the recycled-slot set, or nil.
func (s *Slab[T]) popFree() *rawcell.Cell[T] {
	s.freeMu.Lock()
	if s.free.IsEmpty() {
		s.freeMu.Unlock()
		return nil
	}
	id := s.free.Minimum()
	s.free.Remove(id)
	s.freeMu.Unlock()

	chunkIdx := int(id) / s.cellsPerChunk
	slot := int(id) % s.cellsPerChunk

	s.mu.RLock()
	c := s.chunks[chunkIdx]
	s.mu.RUnlock()
	return &c.cells[slot]
}

// Release returns a single allocated cell's slot to the free set. The
// cell's contents are not touched (no cleanup runs; the bytes are never
// treated as a live T). Reports whether the pointer belonged to this slab.
//
// Only cells allocated via Alloc should be released; releasing into the
// middle of an AllocSlice span hands that slot to a future Alloc while the
// span still references it.
func (s *Slab[T]) Release(p *rawcell.Cell[T]) bool {
	if p == nil || s.cellSize == 0 {
		return false
	}
	addr := uintptr(unsafe.Pointer(p))

	var (
		id    uint64
		found bool
	)
	s.mu.RLock()
	for _, c := range s.chunks {
		base := uintptr(unsafe.Pointer(unsafe.SliceData(c.cells)))
		limit := base + uintptr(c.used.Load())*s.cellSize
		if addr >= base && addr < limit {
			slot := uint64(addr-base) / uint64(s.cellSize)
			id = uint64(c.index)*uint64(s.cellsPerChunk) + slot
			found = true
			break
		}
	}
	s.mu.RUnlock()

	if !found || id > math.MaxUint32 {
		// Slots beyond the 32-bit id space are not recycled.
		return false
	}

	s.freeMu.Lock()
	s.free.Add(uint32(id))
	s.freeMu.Unlock()
	return true
}

// Reset drops all allocations, keeping only the first chunk for reuse.
//
// All previously returned cells and spans become invalid. Not safe
// concurrently with allocations.
func (s *Slab[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.freeMu.Lock()
	s.free.Clear()
	s.freeMu.Unlock()

	if len(s.chunks) == 0 {
		return
	}

	byteSize := s.chunkBytes()
	for _, c := range s.chunks[1:] {
		if c.mapping != nil {
			_ = c.mapping.Close()
		}
		if s.opts.limiter != nil {
			s.opts.limiter.ReleaseMemory(int64(byteSize))
		}
	}

	first := s.chunks[0]
	first.used.Store(0)
	s.chunks = s.chunks[:1]
	s.current.Store(first)

	s.stats.ActiveChunks.Store(1)
	byteSizeU64, _ := conv.IntToUint64(byteSize)
	s.stats.BytesReserved.Store(byteSizeU64)
}

// Close releases all chunk memory. The slab cannot be reused afterwards.
// Idempotent. Not safe concurrently with allocations.
func (s *Slab[T]) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	byteSize := s.chunkBytes()
	for _, c := range s.chunks {
		if c.mapping != nil {
			if cerr := c.mapping.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		if s.opts.limiter != nil {
			s.opts.limiter.ReleaseMemory(int64(byteSize))
		}
	}

	s.chunks = nil
	s.current.Store(nil)
	s.stats.ActiveChunks.Store(0)
	s.stats.BytesReserved.Store(0)
	return err
}

// Dump returns each chunk's used prefix as raw bytes, in chunk order.
//
// The sections alias live slab memory: they are valid until the next
// Reset/Close, and concurrent writes through cells show through. Intended
// for the snapshot package, which consumes them immediately.
func (s *Slab[T]) Dump() [][]byte {
	if s.cellSize == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var sections [][]byte
	for _, c := range s.chunks {
		used := c.used.Load()
		if used == 0 {
			continue
		}
		base := unsafe.Pointer(unsafe.SliceData(c.cells))
		sections = append(sections, unsafe.Slice((*byte)(base), uintptr(used)*s.cellSize)) //nolint:gosec // unsafe is required for chunk reinterpretation
	}
	return sections
}

// Restore loads sections produced by Dump into this slab, one section per
// chunk. The slab must be empty (fresh or Reset). Cell pointers are NOT
// restored across processes; only the raw cell contents are.
func (s *Slab[T]) Restore(ctx context.Context, sections [][]byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.cellSize == 0 {
		if len(sections) != 0 {
			return errors.New("slab: zero-sized cells cannot carry image data")
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.chunks {
		if c.used.Load() > 0 {
			return errors.New("slab: restore into non-empty slab")
		}
	}

	for _, sec := range sections {
		if len(sec) == 0 {
			continue
		}
		if uintptr(len(sec))%s.cellSize != 0 {
			return fmt.Errorf("slab: section size %d is not a multiple of cell size %d", len(sec), s.cellSize)
		}
		n := int(uintptr(len(sec)) / s.cellSize)
		if n > s.cellsPerChunk {
			return fmt.Errorf("%w: section holds %d cells, chunk holds %d", ErrTooLarge, n, s.cellsPerChunk)
		}

		curr := s.current.Load()
		if curr == nil || curr.used.Load() > 0 {
			if err := s.grow(ctx); err != nil {
				return err
			}
			curr = s.current.Load()
		}

		dst := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(curr.cells))), uintptr(len(curr.cells))*s.cellSize) //nolint:gosec // unsafe is required for chunk reinterpretation
		copy(dst, sec)
		curr.used.Store(int64(n))
		s.stats.CellsAllocated.Add(uint64(n))
	}
	return nil
}

// Stats returns current slab statistics.
func (s *Slab[T]) Stats() Stats {
	return Stats{
		ChunksAllocated: s.stats.ChunksAllocated.Load(),
		ActiveChunks:    s.stats.ActiveChunks.Load(),
		BytesReserved:   s.stats.BytesReserved.Load(),
		CellsAllocated:  s.stats.CellsAllocated.Load(),
		CellsRecycled:   s.stats.CellsRecycled.Load(),
	}
}

func (s *Slab[T]) String() string {
	st := s.Stats()
	return fmt.Sprintf("Slab{chunks: %d, reserved: %.2f MB, cells: %d, recycled: %d}",
		st.ActiveChunks,
		float64(st.BytesReserved)/(1024*1024),
		st.CellsAllocated,
		st.CellsRecycled,
	)
}
