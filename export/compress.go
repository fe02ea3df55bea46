package export

import (
	"errors"
	"io"

	"github.com/arloliu/arps/compress"
	"github.com/arloliu/arps/internal/pool"
)

var errWriterClosed = errors.New("export: write to closed writer")

// CompressWriter buffers everything written to it and writes the compressed
// payload to the destination on Close.
type CompressWriter struct {
	dst   io.Writer
	typ   compress.Type
	buf   *pool.ByteBuffer
	stats compress.Stats
}

var _ io.WriteCloser = (*CompressWriter)(nil)

// Compress wraps w with the codec for t. TypeNone passes the payload through
// unchanged.
func Compress(w io.Writer, t compress.Type) (*CompressWriter, error) {
	if _, err := compress.NewCodec(t); err != nil {
		return nil, err
	}

	return &CompressWriter{
		dst: w,
		typ: t,
		buf: pool.GetExportBuffer(),
	}, nil
}

// Write buffers p.
func (cw *CompressWriter) Write(p []byte) (int, error) {
	if cw.buf == nil {
		return 0, errWriterClosed
	}

	return cw.buf.Write(p)
}

// Close compresses the buffered payload and writes it to the destination.
// It does not close the destination. Calling Close twice is a no-op.
func (cw *CompressWriter) Close() error {
	if cw.buf == nil {
		return nil
	}
	defer func() {
		pool.PutExportBuffer(cw.buf)
		cw.buf = nil
	}()

	out, stats, err := compress.Compress(cw.typ, cw.buf.Bytes())
	if err != nil {
		return err
	}
	cw.stats = stats

	_, err = cw.dst.Write(out)

	return err
}

// Stats reports the payload sizes. It is zero until Close succeeds.
func (cw *CompressWriter) Stats() compress.Stats {
	return cw.stats
}
