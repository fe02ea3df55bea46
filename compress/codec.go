package compress

import (
	"fmt"

	"github.com/arloliu/arps/errs"
)

// Compressor compresses a complete payload.
//
// The returned slice is owned by the caller and the input is not modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same type.
//
// Corrupted input, or input produced by a different algorithm, is reported as
// an error.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. Implementations are safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

// Stats describes one compression of an export payload.
type Stats struct {
	// Algorithm is the codec that produced the payload.
	Algorithm Type
	// OriginalSize is the payload size before compression.
	OriginalSize int64
	// CompressedSize is the payload size after compression.
	CompressedSize int64
}

// Ratio returns compressed size / original size, 0 for an empty payload.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the saved space as a percentage.
func (s Stats) SpaceSavings() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return (1.0 - s.Ratio()) * 100.0
}

// NewCodec returns the codec for t.
func NewCodec(t Type) (Codec, error) {
	switch t {
	case TypeNone:
		return NewNoOpCompressor(), nil
	case TypeZstd:
		return NewZstdCompressor(), nil
	case TypeS2:
		return NewS2Compressor(), nil
	case TypeLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, t)
	}
}

// Compress compresses data with the codec for t and reports the sizes.
func Compress(t Type, data []byte) ([]byte, Stats, error) {
	codec, err := NewCodec(t)
	if err != nil {
		return nil, Stats{}, err
	}

	out, err := codec.Compress(data)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%s compression failed: %w", t, err)
	}

	return out, Stats{Algorithm: t, OriginalSize: int64(len(data)), CompressedSize: int64(len(out))}, nil
}
