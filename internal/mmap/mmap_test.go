package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAnon(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		m, err := MapAnon(4096)
		require.NoError(t, err)
		defer m.Close()

		data := m.Bytes()
		require.Len(t, data, 4096)

		// Fresh anonymous pages read as zero and are writable.
		assert.Equal(t, byte(0), data[0])
		data[100] = 0xAB
		assert.Equal(t, byte(0xAB), m.Bytes()[100])
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := MapAnon(0)
		assert.ErrorIs(t, err, ErrInvalidSize)

		_, err = MapAnon(-1)
		assert.ErrorIs(t, err, ErrInvalidSize)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		m, err := MapAnon(4096)
		require.NoError(t, err)

		assert.NoError(t, m.Close())
		assert.NoError(t, m.Close())
		assert.Nil(t, m.Bytes())
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads file contents", func(t *testing.T) {
		path := filepath.Join(dir, "blob")
		content := []byte("hello mapped world")
		require.NoError(t, os.WriteFile(path, content, 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		defer m.Close()

		assert.Equal(t, content, m.Bytes())
		assert.Equal(t, len(content), m.Size())
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		defer m.Close()

		assert.Equal(t, 0, m.Size())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "nope"))
		assert.Error(t, err)
	})
}

func TestMapping_ReadAt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 3)
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("3456"), buf)

	// Short read at the tail.
	n, err = m.ReadAt(buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("89"), buf[:n])

	// Past the end.
	_, err = m.ReadAt(buf, 100)
	assert.ErrorIs(t, err, io.EOF)
}

func TestMapping_Advise(t *testing.T) {
	m, err := MapAnon(4096)
	require.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.Advise(AccessSequential))
	assert.NoError(t, m.Advise(AccessRandom))

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Advise(AccessDefault), ErrClosed)
}
