// Package export writes forecasts and fitted parameters as delimited text.
//
// Writers render into any io.Writer. Wrap the destination with Compress to
// produce a zstd, s2 or lz4 file instead of plain CSV:
//
//	cw, err := export.Compress(file, compress.TypeZstd)
//	fw, err := export.NewForecastWriter(cw)
//	...
//	fw.Flush()
//	cw.Close()
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/arloliu/arps/internal/options"
	"github.com/arloliu/arps/internal/pool"
)

// Rendering defaults.
const (
	DefaultPrecision = 4
	MaxPrecision     = 12

	// missingValue marks a non-finite number, matching the NA spelling the
	// ingest package reads as missing.
	missingValue = "NA"
)

// Config controls how values are rendered.
type Config struct {
	// Precision is the number of decimal places for rates.
	Precision int32
	// Comma is the field delimiter.
	Comma rune
}

// Option configures a writer.
type Option = options.Option[*Config]

func defaultConfig() Config {
	return Config{Precision: DefaultPrecision, Comma: ','}
}

// WithPrecision sets the number of decimal places for rates, 0 to 12.
func WithPrecision(places int) Option {
	return options.New(func(cfg *Config) error {
		if places < 0 || places > MaxPrecision {
			return fmt.Errorf("precision %d outside [0, %d]", places, MaxPrecision)
		}
		cfg.Precision = int32(places)

		return nil
	})
}

// WithComma sets the field delimiter.
func WithComma(r rune) Option {
	return options.New(func(cfg *Config) error {
		if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError || !utf8.ValidRune(r) {
			return fmt.Errorf("invalid delimiter %q", r)
		}
		cfg.Comma = r

		return nil
	})
}

// table is the shared CSV plumbing of the writers: a lazily written header
// and a pooled record slice.
type table struct {
	cfg    Config
	w      *csv.Writer
	header []string
	record []string
	put    func()
	rows   int
	begun  bool
}

func newTable(w io.Writer, header []string, opts []Option) (*table, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	cw := csv.NewWriter(w)
	cw.Comma = cfg.Comma

	record, put := pool.GetStringSlice(len(header))

	return &table{cfg: cfg, w: cw, header: header, record: record, put: put}, nil
}

func (t *table) begin() error {
	if t.begun {
		return nil
	}
	t.begun = true

	return t.w.Write(t.header)
}

// row returns the record slice to fill for the next row.
func (t *table) row() ([]string, error) {
	if t.record == nil {
		return nil, errWriterClosed
	}

	return t.record, nil
}

func (t *table) writeRecord() error {
	if err := t.begin(); err != nil {
		return err
	}
	if err := t.w.Write(t.record); err != nil {
		return err
	}
	t.rows++

	return nil
}

// flush writes the header if nothing was written yet and flushes buffered rows.
func (t *table) flush() error {
	if err := t.begin(); err != nil {
		return err
	}
	t.w.Flush()

	return t.w.Error()
}

// close flushes the table and hands the record slice back to the pool.
// Rows written afterwards fail with errWriterClosed; closing twice is a no-op.
func (t *table) close() error {
	if t.put == nil {
		return nil
	}

	err := t.flush()
	t.put()
	t.put = nil
	t.record = nil

	return err
}

// fixed renders v with exactly places decimals.
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missingValue
	}

	return decimal.NewFromFloat(v).StringFixed(places)
}

// exact renders v with the shortest decimal that round-trips.
func exact(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missingValue
	}

	return decimal.NewFromFloat(v).String()
}
