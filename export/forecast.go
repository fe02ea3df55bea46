package export

import (
	"io"
	"strconv"

	"github.com/arloliu/arps/decline"
)

// ForecastHeader is the header row of forecast exports.
var ForecastHeader = []string{"well_id", "producing_day", "forecasted_rate"}

// ForecastWriter writes one row per forecast point.
type ForecastWriter struct {
	t *table
}

// NewForecastWriter creates a forecast writer over w.
func NewForecastWriter(w io.Writer, opts ...Option) (*ForecastWriter, error) {
	t, err := newTable(w, ForecastHeader, opts)
	if err != nil {
		return nil, err
	}

	return &ForecastWriter{t: t}, nil
}

// Write appends the forecast of one well.
func (fw *ForecastWriter) Write(wellID string, points decline.Points) error {
	r, err := fw.t.row()
	if err != nil {
		return err
	}

	for _, p := range points {
		r[0] = wellID
		r[1] = strconv.Itoa(p.Day)
		r[2] = fixed(p.Rate, fw.t.cfg.Precision)
		if err := fw.t.writeRecord(); err != nil {
			return err
		}
	}

	return nil
}

// Rows returns the number of data rows written.
func (fw *ForecastWriter) Rows() int {
	return fw.t.rows
}

// Flush writes any buffered rows. An export without rows still gets its
// header.
func (fw *ForecastWriter) Flush() error {
	return fw.t.flush()
}

// Close flushes and releases pooled resources. It does not close the
// underlying writer. Write fails after Close.
func (fw *ForecastWriter) Close() error {
	return fw.t.close()
}
