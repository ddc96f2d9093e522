// Package snapshot persists raw slab memory images.
//
// A snapshot is the ordered list of byte sections produced by Slab.Dump,
// framed with a small header and optionally compressed per section. Reading
// a snapshot yields the sections back for Slab.Restore. The format carries
// no type information: restoring into a slab of a different cell layout is
// the caller's mistake, exactly like any other reinterpretation of raw
// bytes.
//
// # Basic Usage
//
//	store, _ := snapshot.NewLocalStore("./images")
//	_ = snapshot.Save(ctx, store, "nodes.img", s.Dump(),
//	    snapshot.WithCompression(snapshot.CompressionZSTD))
//
//	sections, _ := snapshot.Load(ctx, store, "nodes.img")
//	_ = fresh.Restore(ctx, sections)
//
// # Stores
//
//   - LocalStore: filesystem with mmap-backed reads
//   - MemoryStore: in-process, for tests and ephemeral use
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible systems
//
// Custom backends implement the Store interface.
package snapshot
