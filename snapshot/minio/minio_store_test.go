package minio

import (
	"context"
	"testing"

	snapshotpkg "github.com/hupe1980/rawcell/snapshot"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-rawcell"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	// Put and Open
	data := []byte("hello minio world")
	err = store.Put(ctx, "snap.bin", data)
	require.NoError(t, err)

	blob, err := store.Open(ctx, "snap.bin")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)
	require.NoError(t, blob.Close())

	// Streaming create
	wb, err := store.Create(ctx, "streamed.bin")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed content"))
	require.NoError(t, err)
	require.NoError(t, wb.Sync())
	require.NoError(t, wb.Close())

	// List
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "snap.bin")
	assert.Contains(t, names, "streamed.bin")

	// Framed round trip through the store
	sections := [][]byte{[]byte("alpha"), []byte("beta")}
	err = snapshotpkg.Save(ctx, store, "framed.bin", sections)
	require.NoError(t, err)

	got, err := snapshotpkg.Load(ctx, store, "framed.bin")
	require.NoError(t, err)
	assert.Equal(t, sections, got)

	// Open missing
	_, err = store.Open(ctx, "does-not-exist")
	assert.ErrorIs(t, err, snapshotpkg.ErrNotFound)

	// Cleanup
	for _, name := range []string{"snap.bin", "streamed.bin", "framed.bin"} {
		assert.NoError(t, store.Delete(ctx, name))
	}
}
