package snapshot

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressSection_Compresses(t *testing.T) {
	data := bytes.Repeat([]byte("rawcell "), 2048)

	for _, ct := range []CompressionType{CompressionLZ4, CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			out, err := compressSection(data, ct)
			require.NoError(t, err)
			require.NotNil(t, out)
			assert.Less(t, len(out), len(data))

			back, err := decompressSection(out, len(data), ct)
			require.NoError(t, err)
			assert.Equal(t, data, back)
		})
	}
}

func TestCompressSection_RawFallback(t *testing.T) {
	// Random bytes do not compress, so the section is stored raw.
	data := make([]byte, 8192)
	rng := rand.New(rand.NewSource(7))
	_, err := rng.Read(data)
	require.NoError(t, err)

	for _, ct := range []CompressionType{CompressionLZ4, CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			out, err := compressSection(data, ct)
			require.NoError(t, err)
			assert.Nil(t, out)
		})
	}
}

func TestCompressSection_None(t *testing.T) {
	out, err := compressSection([]byte("data"), CompressionNone)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDecompressSection_SizeMismatch(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1024)

	out, err := compressSection(data, CompressionZSTD)
	require.NoError(t, err)
	require.NotNil(t, out)

	_, err = decompressSection(out, len(data)+1, CompressionZSTD)
	assert.Error(t, err)
}

func TestCompressionType_String(t *testing.T) {
	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "lz4", CompressionLZ4.String())
	assert.Equal(t, "zstd", CompressionZSTD.String())
	assert.Equal(t, "unknown", CompressionType(99).String())
}
