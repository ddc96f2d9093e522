package rawcell

import (
	"unsafe"

	"github.com/hupe1980/rawcell/internal/mem"
)

// Cell is a storage region with the exact size and alignment of T.
//
// Layout guarantee: unsafe.Sizeof and unsafe.Alignof report identical values
// for Cell[T] and T, for every T including zero-sized and pointer-shaped
// types. The cell carries no additional state; a []Cell[T] is layout
// compatible with a []T.
//
// The zero value is a valid cell whose contents are unspecified by contract
// (Go zero-fills all new memory, but callers must not rely on that; treat
// the bytes as garbage until written).
//
// Go has no uninhabited (bottom) type, so the "never wrap a type with no
// values" rule from other languages has nothing to bite on here; every Go
// type argument is acceptable.
//
// A Cell is plain value data. Copying it copies the raw bytes, concurrent
// access follows the same rules as any shared memory, and discarding a cell
// never runs any cleanup on its contents.
type Cell[T any] struct {
	value T
}

// New returns a cell already holding v.
//
// By caller convention the cell is now "initialized"; nothing in the cell
// itself records that.
func New[T any](v T) Cell[T] {
	return Cell[T]{value: v}
}

// Uninit returns a cell whose contents are unspecified.
//
// No byte pattern is promised. The only defined way to get a value back out
// is to Write (or fill via MutPtr) first and then extract.
func Uninit[T any]() Cell[T] {
	var c Cell[T]
	return c
}

// WithByte returns a cell filled with sizeof(T) copies of b.
//
// For zero-sized T no memory is touched at all; there is nothing to fill.
// The resulting pattern may or may not be a valid T - that judgment is the
// caller's, exactly as with Uninit.
func WithByte[T any](b byte) Cell[T] {
	var c Cell[T]
	size := unsafe.Sizeof(c.value)
	if size == 0 {
		return c
	}
	bs := unsafe.Slice((*byte)(unsafe.Pointer(&c.value)), size) //nolint:gosec // unsafe is required for raw storage access
	mem.Fill(bs, b)
	return c
}

// Zeroed returns a cell filled with zero bytes. Equivalent to WithByte(0).
//
// Note that an all-zero pattern is not automatically a valid T (consider a
// type whose validity excludes the zero representation); the usual caller
// promise applies on extraction.
func Zeroed[T any]() Cell[T] {
	return WithByte[T](0)
}

// Ptr returns a pointer to the storage reinterpreted as T, without checking
// that the bytes currently form a valid T.
//
// The pointer is a read-only view by convention: Go has no const pointers,
// so the restriction is contractual. Use MutPtr when you intend to write.
func (c *Cell[T]) Ptr() *T {
	return &c.value
}

// MutPtr returns a mutable pointer to the storage reinterpreted as T.
//
// Writing through the result is the placement-style way to initialize the
// cell in place. The caller must not create aliasing mutable views that
// violate the usual Go memory rules.
func (c *Cell[T]) MutPtr() *T {
	return &c.value
}

// AssumeInit extracts the value, asserting that the storage currently holds
// a valid T. No check is performed.
//
// This is the canonical way to finish a cell. After extraction the cell
// should be considered dead by convention; reusing it requires a fresh
// Write.
func (c *Cell[T]) AssumeInit() T {
	return c.value
}

// Read returns a copy of the value, leaving the cell intact.
//
// Prefer AssumeInit. Read exists for the cases where the cell must survive
// the extraction; for types whose duplication is expensive or whose
// ownership semantics make duplicates dangerous (a cell holding a pointer
// now shares its referent with the copy), the duplication is on the caller.
func (c *Cell[T]) Read() T {
	return c.value
}

// Write overwrites the storage with v's representation.
//
// Whatever bytes were there before are discarded without any cleanup; the
// old contents are never treated as a valid T.
func (c *Cell[T]) Write(v T) {
	c.value = v
}
