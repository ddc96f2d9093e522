package slab_test

import (
	"context"
	"testing"

	"github.com/hupe1980/rawcell"
	"github.com/hupe1980/rawcell/slab"
	"github.com/hupe1980/rawcell/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End to end: allocate, dump, persist through a snapshot store, restore
// into a fresh slab.
func TestSlab_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()

	// 8 cells per chunk so the dump spans several sections.
	src, err := slab.New[uint64](slab.WithChunkSize(64))
	require.NoError(t, err)
	defer src.Close()

	const n = 20
	cells := make([]*rawcell.Cell[uint64], n)
	for i := range cells {
		c, err := src.Alloc()
		require.NoError(t, err)
		c.Write(uint64(i) * 37)
		cells[i] = c
	}

	store := snapshot.NewMemoryStore()
	require.NoError(t, snapshot.Save(ctx, store, "slab.bin", src.Dump(),
		snapshot.WithCompression(snapshot.CompressionLZ4)))

	sections, err := snapshot.Load(ctx, store, "slab.bin")
	require.NoError(t, err)

	dst, err := slab.New[uint64](slab.WithChunkSize(64))
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, dst.Restore(ctx, sections))

	// Restored contents must match the original image byte for byte.
	assert.Equal(t, len(src.Dump()), len(dst.Dump()))
	for i, sec := range dst.Dump() {
		assert.Equal(t, sections[i], sec, "section %d", i)
	}

	// Restored cells count as allocated; the next Alloc lands after them.
	c, err := dst.Alloc()
	require.NoError(t, err)
	c.Write(999)
	assert.EqualValues(t, n+1, dst.Stats().CellsAllocated)
}
