// Package rawcell provides uninitialized storage cells for Go.
//
// A Cell[T] is a block of memory with exactly the size and alignment of T
// whose contents may or may not be a valid T. It exists for code that needs
// storage before the value is ready: bulk buffer allocation, incremental
// array construction, FFI boundary buffers, and placement-style patterns
// where the language's always-initialized discipline would insert work the
// caller is about to throw away anyway.
//
// # Quick Start
//
//	c := rawcell.Uninit[uint64]()
//	c.Write(42)
//	v := c.AssumeInit() // caller promises the cell holds a valid value
//
//	cells := make([]rawcell.Cell[int64], 128)
//	cells[0] = rawcell.New(int64(10))
//	p := rawcell.First(cells) // *int64 aimed at the first element
//
// # Contract
//
// The cell stores no tag, flag, or discriminant alongside the bytes. Whether
// the storage currently holds a valid T is a fact the calling code tracks by
// convention; no operation inspects the bit pattern to decide behavior, and
// no operation validates it. Extraction (AssumeInit, Read) and the pointer
// views (Ptr, MutPtr) are unchecked caller promises, exactly like any other
// reinterpretation through package unsafe. There is no recoverable error
// path and no logging in this package: the primitive is zero-overhead.
//
// Higher-level bulk allocation on top of Cell lives in the slab package;
// image persistence for slab memory lives in the snapshot package.
package rawcell
