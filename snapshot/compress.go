package snapshot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the per-section compression algorithm.
type CompressionType uint8

const (
	// CompressionNone stores sections raw.
	CompressionNone CompressionType = 0
	// CompressionLZ4 favors speed (hot restore paths).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD favors ratio (cold archives).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) valid() bool {
	return c <= CompressionZSTD
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// zstd coders are expensive to build; pool them across snapshots.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compressSection compresses data with the given algorithm. A nil result
// means the section should be stored raw (incompressible, or compression
// would not pay for itself).
func compressSection(data []byte, ct CompressionType) ([]byte, error) {
	if ct == CompressionNone || len(data) == 0 {
		return nil, nil
	}

	var (
		compressed []byte
		err        error
	)
	switch ct {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		buf := make([]byte, bound)
		var n int
		n, err = lz4.CompressBlock(data, buf, nil)
		if n > 0 {
			compressed = buf[:n]
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("snapshot: unknown compression type %d", ct)
	}
	if err != nil {
		return nil, err
	}

	// Keep raw storage when compression saves less than 10%.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return nil, nil
	}
	return compressed, nil
}

// decompressSection expands payload into exactly uncompressedSize bytes.
func decompressSection(payload []byte, uncompressedSize int, ct CompressionType) ([]byte, error) {
	result := make([]byte, uncompressedSize)

	switch ct {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, result)
		if err != nil {
			return nil, fmt.Errorf("snapshot: lz4 decompress: %w", err)
		}
		if n != uncompressedSize {
			return nil, errors.New("snapshot: decompressed size mismatch")
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(payload, result[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("snapshot: zstd decompress: %w", err)
		}
		if len(decoded) != uncompressedSize {
			return nil, errors.New("snapshot: decompressed size mismatch")
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("snapshot: unknown compression type %d", ct)
	}
}
