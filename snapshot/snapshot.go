package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/rawcell/internal/conv"
)

// Format:
//
//	[4]byte magic "RCSN"
//	uint8   version
//	uint8   compression type
//	uint16  reserved (zero)
//	uint32  section count
//	per section:
//	  uint32 uncompressed size
//	  uint32 compressed size (0 = stored raw)
//	  payload
//
// All integers little-endian.

var magic = [4]byte{'R', 'C', 'S', 'N'}

const (
	formatVersion = 1
	headerSize    = 12
	sectionHdr    = 8

	// MaxSectionSize caps a single section's stored and uncompressed size
	// (1 GiB). Headers claiming more are rejected before any allocation,
	// so a corrupted or hostile stream cannot demand arbitrary memory.
	MaxSectionSize = 1 << 30

	// sectionPrealloc bounds the section-table capacity reserved before
	// any payload bytes back the header's claimed count.
	sectionPrealloc = 4096
)

var (
	// ErrBadMagic is returned when the stream is not a snapshot.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrBadVersion is returned for snapshots from a newer format.
	ErrBadVersion = errors.New("snapshot: unsupported version")
	// ErrSectionTooLarge is returned when a section exceeds MaxSectionSize.
	ErrSectionTooLarge = errors.New("snapshot: section exceeds size limit")
)

// IOLimiter shapes snapshot throughput. resource.Controller implements it;
// nil means unlimited.
type IOLimiter interface {
	WaitIO(ctx context.Context, n int) error
}

type options struct {
	compression CompressionType
	limiter     IOLimiter
}

// Option configures snapshot reads and writes.
type Option func(*options)

// WithCompression selects the section codec. Defaults to CompressionNone.
func WithCompression(ct CompressionType) Option {
	return func(o *options) {
		if ct.valid() {
			o.compression = ct
		}
	}
}

// WithIOLimiter throttles bytes moved per second.
func WithIOLimiter(l IOLimiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// Write frames sections into w.
func Write(ctx context.Context, w io.Writer, sections [][]byte, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	count, err := conv.IntToUint32(len(sections))
	if err != nil {
		return fmt.Errorf("snapshot: section count: %w", err)
	}

	hdr := make([]byte, headerSize)
	copy(hdr, magic[:])
	hdr[4] = formatVersion
	hdr[5] = byte(o.compression)
	binary.LittleEndian.PutUint32(hdr[8:], count)
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}

	secHdr := make([]byte, sectionHdr)
	for i, sec := range sections {
		if len(sec) > MaxSectionSize {
			return fmt.Errorf("%w: section %d holds %d bytes", ErrSectionTooLarge, i, len(sec))
		}
		rawSize, err := conv.IntToUint32(len(sec))
		if err != nil {
			return fmt.Errorf("snapshot: section %d size: %w", i, err)
		}

		compressed, err := compressSection(sec, o.compression)
		if err != nil {
			return fmt.Errorf("snapshot: section %d: %w", i, err)
		}

		payload := sec
		var compSize uint32
		if compressed != nil {
			payload = compressed
			compSize, err = conv.IntToUint32(len(compressed))
			if err != nil {
				return fmt.Errorf("snapshot: section %d compressed size: %w", i, err)
			}
		}

		if err := waitIO(ctx, o.limiter, sectionHdr+len(payload)); err != nil {
			return err
		}

		binary.LittleEndian.PutUint32(secHdr[0:], rawSize)
		binary.LittleEndian.PutUint32(secHdr[4:], compSize)
		if _, err := w.Write(secHdr); err != nil {
			return fmt.Errorf("snapshot: write section %d header: %w", i, err)
		}
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("snapshot: write section %d: %w", i, err)
		}
	}
	return nil
}

// Read decodes a stream produced by Write and returns the raw sections.
func Read(ctx context.Context, r io.Reader, opts ...Option) ([][]byte, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if !bytes.Equal(hdr[:4], magic[:]) {
		return nil, ErrBadMagic
	}
	if hdr[4] != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, hdr[4])
	}
	ct := CompressionType(hdr[5])
	if !ct.valid() {
		return nil, fmt.Errorf("snapshot: unknown compression type %d", hdr[5])
	}

	count, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(hdr[8:]))
	if err != nil {
		return nil, fmt.Errorf("snapshot: section count: %w", err)
	}

	// The count is still unproven; later ReadFull calls fail fast on a lying
	// header, so only cap the table reservation.
	prealloc := count
	if prealloc > sectionPrealloc {
		prealloc = sectionPrealloc
	}

	sections := make([][]byte, 0, prealloc)
	secHdr := make([]byte, sectionHdr)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, secHdr); err != nil {
			return nil, fmt.Errorf("snapshot: read section %d header: %w", i, err)
		}
		rawSize, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(secHdr[0:]))
		if err != nil {
			return nil, fmt.Errorf("snapshot: section %d size: %w", i, err)
		}
		compSize, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(secHdr[4:]))
		if err != nil {
			return nil, fmt.Errorf("snapshot: section %d compressed size: %w", i, err)
		}
		if rawSize > MaxSectionSize || compSize > MaxSectionSize {
			return nil, fmt.Errorf("%w: section %d claims %d/%d bytes", ErrSectionTooLarge, i, rawSize, compSize)
		}

		payloadSize := compSize
		if compSize == 0 {
			payloadSize = rawSize
		}

		if err := waitIO(ctx, o.limiter, sectionHdr+payloadSize); err != nil {
			return nil, err
		}

		payload := make([]byte, payloadSize)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("snapshot: read section %d: %w", i, err)
		}

		if compSize == 0 {
			sections = append(sections, payload)
			continue
		}
		sec, err := decompressSection(payload, rawSize, ct)
		if err != nil {
			return nil, fmt.Errorf("snapshot: section %d: %w", i, err)
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

func waitIO(ctx context.Context, l IOLimiter, n int) error {
	if l == nil {
		return nil
	}
	return l.WaitIO(ctx, n)
}
