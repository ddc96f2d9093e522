package rawcell

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirst(t *testing.T) {
	t.Run("reads first element", func(t *testing.T) {
		cells := []Cell[int64]{New(int64(10)), Uninit[int64]()}

		p := First(cells)
		require.NotNil(t, p)
		assert.Equal(t, int64(10), *p)
	})

	t.Run("aliases the cell storage", func(t *testing.T) {
		cells := []Cell[uint64]{Zeroed[uint64]()}

		cells[0].Write(77)
		assert.Equal(t, uint64(77), *First(cells))
	})

	t.Run("empty slice computes address without deref", func(t *testing.T) {
		cells := make([]Cell[int64], 0, 4)
		// Must not fault; the result points at the base of the backing
		// array and may not be dereferenced.
		p := First(cells)
		assert.NotNil(t, p)
		assert.Equal(t, unsafe.Pointer(unsafe.SliceData(cells)), unsafe.Pointer(p))
	})

	t.Run("nil slice", func(t *testing.T) {
		var cells []Cell[int64]
		assert.Nil(t, First(cells))
	})
}

func TestFirstMut(t *testing.T) {
	t.Run("writes through", func(t *testing.T) {
		cells := []Cell[uint64]{Uninit[uint64]()}

		*FirstMut(cells) = 10
		assert.Equal(t, uint64(10), cells[0].AssumeInit())
	})

	t.Run("whole sequence via pointer arithmetic", func(t *testing.T) {
		cells := make([]Cell[int32], 4)

		// A []Cell[T] is layout compatible with []T, so the base pointer
		// can be widened back into a plain slice.
		raw := unsafe.Slice(FirstMut(cells), len(cells))
		for i := range raw {
			raw[i] = int32(i + 1)
		}

		for i := range cells {
			assert.Equal(t, int32(i+1), cells[i].AssumeInit())
		}
	})
}
