package compress

// ZstdCompressor produces standard Zstandard frames, readable by the zstd
// command line tool.
//
// Zstd gives the best ratio of the supported codecs and is the usual choice
// for archived forecast exports.
//
// The default build uses the pure Go klauspost/compress implementation. Build
// with the cgozstd tag to link the libzstd-backed valyala/gozstd instead.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstd codec.
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
