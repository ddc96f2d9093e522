// Package s3 provides an S3 implementation of the snapshot.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("snapshots/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = snapshot.Save(ctx, store, "slab-0001", sections)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads via streaming pipes for large snapshots
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
