package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWellKey(t *testing.T) {
	tests := []struct {
		name string
		id   string
		key  uint64
	}{
		{"empty id", "", 0xef46db3751d8e999},
		{"short id", "test", 0x4fdcca5ddb678139},
		{"padded id", "  test\t", 0x4fdcca5ddb678139},
		{"sentence", "another test string", 0x212a22f593810bec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, WellKey(tt.id))
		})
	}
}

func TestWellKey_Distinct(t *testing.T) {
	assert.NotEqual(t, WellKey("33-053-01234"), WellKey("33-053-01235"))
}

func BenchmarkWellKey(b *testing.B) {
	id := "33-053-01234-00-00"
	for b.Loop() {
		WellKey(id)
	}
}
