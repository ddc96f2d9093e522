package rawcell

import (
	"unsafe"
)

// First reinterprets the base address of cells as a *T, skipping the cell
// wrapper. This is how a batch-allocated, partially-initialized []Cell[T]
// is handed to APIs that expect a raw T sequence.
//
// Defined even for an empty slice: the address is computed from the slice
// header without dereferencing it (unsafe.SliceData semantics), and the
// caller must not dereference the result in that case. For a nil slice the
// result is nil.
//
// Read-only by convention, like Ptr.
func First[T any](cells []Cell[T]) *T {
	return (*T)(unsafe.Pointer(unsafe.SliceData(cells))) //nolint:gosec // unsafe is required for raw storage access
}

// FirstMut is the mutable counterpart of First, with the same empty-slice
// contract.
func FirstMut[T any](cells []Cell[T]) *T {
	return (*T)(unsafe.Pointer(unsafe.SliceData(cells))) //nolint:gosec // unsafe is required for raw storage access
}
