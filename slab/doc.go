// Package slab provides a chunked bulk allocator for rawcell storage.
//
// A Slab[T] hands out Cell[T] storage from large chunks using lock-free
// bump allocation, so building a million-element structure costs a handful
// of chunk allocations instead of a million small ones. Chunks are either
// typed heap memory (the collector sees pointers stored in cells) or
// anonymous mappings that stay off the Go heap entirely and therefore must
// not hold Go pointers.
//
// # Concurrency Model
//
// Alloc and AllocSlice are safe to call from multiple goroutines. Release
// is safe concurrently with allocations. Reset and Close are NOT safe
// concurrently with anything; call them only when no allocation is in
// flight, the same discipline a caller owes any allocator teardown.
//
// # Lifecycle
//
//	s, _ := slab.New[Node](slab.WithChunkSize(1 << 20))
//	defer s.Close()
//
//	cells, _ := s.AllocSlice(1024) // uninitialized Cell[Node] storage
//	c, _ := s.Alloc()              // a single cell
//	s.Release(c)                   // slot goes back on the free set
//
// The cells themselves never track validity; see the rawcell package for
// that contract.
package slab
