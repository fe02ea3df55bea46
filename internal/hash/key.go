// Package hash derives stable 64-bit keys for well identifiers.
package hash

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// WellKey returns the xxHash64 of a well identifier.
//
// Surrounding whitespace is ignored so that "33-053-01234 " and "33-053-01234"
// produced by different upstream exports resolve to the same well.
func WellKey(id string) uint64 {
	return xxhash.Sum64String(strings.TrimSpace(id))
}
