package compress

import (
	"fmt"
	"strings"

	"github.com/arloliu/arps/errs"
)

// Type identifies a compression algorithm.
type Type uint8

const (
	TypeNone Type = 0x1 // TypeNone writes payloads unchanged.
	TypeZstd Type = 0x2 // TypeZstd is Zstandard.
	TypeS2   Type = 0x3 // TypeS2 is the S2 stream format.
	TypeLZ4  Type = 0x4 // TypeLZ4 is the LZ4 frame format.
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeZstd:
		return "zstd"
	case TypeS2:
		return "s2"
	case TypeLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Type(0x%02x)", uint8(t))
	}
}

// Extension returns the file name suffix for payloads of this type, including
// the leading dot. TypeNone has no suffix.
func (t Type) Extension() string {
	switch t {
	case TypeZstd:
		return ".zst"
	case TypeS2:
		return ".s2"
	case TypeLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseType parses a configuration value such as "zstd". The empty string
// means TypeNone.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TypeNone, nil
	case "zstd", "zst":
		return TypeZstd, nil
	case "s2":
		return TypeS2, nil
	case "lz4":
		return TypeLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrUnsupportedCompression, s)
	}
}
