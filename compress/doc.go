// Package compress provides the codecs applied to exported forecast and
// parameter files.
//
// Export writers build the whole CSV payload in memory and compress it once
// on Close, so every codec works on complete payloads:
//
//	type Codec interface {
//	    Compress(data []byte) ([]byte, error)
//	    Decompress(data []byte) ([]byte, error)
//	}
//
// # Supported Algorithms
//
//   - TypeNone: payload written unchanged
//   - TypeZstd: best ratio, standard .zst frames
//   - TypeS2: fastest, S2 stream format (.s2)
//   - TypeLZ4: fast, LZ4 frame format (.lz4)
//
// Every codec emits a self-describing stream format, so exported files can be
// opened with the matching command line tool as well as with Decompress.
//
// # Selecting a Codec
//
// Configuration values are parsed with ParseType and turned into a codec with
// NewCodec:
//
//	t, err := compress.ParseType(cfg.Export.Compression) // "zstd"
//	if err != nil {
//	    return err
//	}
//	codec, err := compress.NewCodec(t)
//	if err != nil {
//	    return err
//	}
//	out, err := codec.Compress(payload)
//	name := "forecast.csv" + t.Extension() // forecast.csv.zst
//
// # Zstd Backends
//
// The default build uses github.com/klauspost/compress/zstd. Building with
// -tags cgozstd switches to github.com/valyala/gozstd, which links libzstd.
// Both produce interchangeable frames.
package compress
