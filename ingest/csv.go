package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/arloliu/arps/errs"
	"github.com/arloliu/arps/internal/options"
	"github.com/arloliu/arps/series"
)

// ctxCheckInterval is how many rows are read between context checks.
const ctxCheckInterval = 1024

// CSVConfig configures a CSVSource.
type CSVConfig struct {
	// Columns names the well, day, rate and status columns.
	Columns Columns
	// Status keeps only rows whose status column equals it, ignoring case.
	// Empty disables the filter.
	Status string
	// Comma is the field delimiter.
	Comma rune
}

func defaultCSVConfig() CSVConfig {
	return CSVConfig{
		Columns: DefaultColumns(),
		Status:  DefaultStatus,
		Comma:   ',',
	}
}

// CSVOption configures a CSVSource.
type CSVOption = options.Option[*CSVConfig]

// WithColumns overrides column names. Empty names keep their defaults.
func WithColumns(c Columns) CSVOption {
	return options.NoError(func(cfg *CSVConfig) {
		cfg.Columns = c.withDefaults()
	})
}

// WithStatus sets the status filter. An empty status keeps every row.
func WithStatus(status string) CSVOption {
	return options.NoError(func(cfg *CSVConfig) {
		cfg.Status = strings.TrimSpace(status)
	})
}

// WithComma sets the field delimiter, e.g. '\t' or ';'.
func WithComma(r rune) CSVOption {
	return options.New(func(cfg *CSVConfig) error {
		if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError || !utf8.ValidRune(r) {
			return fmt.Errorf("invalid delimiter %q", r)
		}
		cfg.Comma = r

		return nil
	})
}

// CSVSource reads production rows from delimited text with a header row.
type CSVSource struct {
	r   io.Reader
	cfg CSVConfig
}

var _ Source = (*CSVSource)(nil)

// NewCSVSource creates a source that reads r once.
func NewCSVSource(r io.Reader, opts ...CSVOption) (*CSVSource, error) {
	cfg := defaultCSVConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &CSVSource{r: r, cfg: cfg}, nil
}

type csvLayout struct {
	well, day, rate, status int
}

// Wells reads the whole input and groups rows by well.
//
// Header names are matched after CleanName. Rate cells that are empty or
// hold NA/NaN become missing samples; rows with a blank well identifier are
// skipped. Malformed day or rate values fail the read with the offending line.
func (s *CSVSource) Wells(ctx context.Context) ([]series.Well, error) {
	reader := csv.NewReader(s.r)
	reader.Comma = s.cfg.Comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read csv header: empty input: %w", errs.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	layout, err := s.layout(header)
	if err != nil {
		return nil, err
	}

	g := newGrouper()
	for row := 0; ; row++ {
		if row%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		id := field(record, layout.well)
		if strings.TrimSpace(id) == "" {
			continue
		}

		status := field(record, layout.status)
		if s.cfg.Status != "" && !strings.EqualFold(strings.TrimSpace(status), s.cfg.Status) {
			continue
		}

		day, err := parseDay(field(record, layout.day))
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, s.cfg.Columns.Day, err)
		}

		sample, err := parseSample(day, field(record, layout.rate))
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, s.cfg.Columns.Rate, err)
		}

		if err := g.add(id, status, sample); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	return g.result(), nil
}

func (s *CSVSource) layout(header []string) (csvLayout, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		clean := CleanName(name)
		if _, ok := index[clean]; !ok {
			index[clean] = i
		}
	}

	lookup := func(name string, required bool) (int, error) {
		if i, ok := index[CleanName(name)]; ok {
			return i, nil
		}
		if required {
			return -1, fmt.Errorf("%w: %q", errs.ErrMissingColumn, name)
		}

		return -1, nil
	}

	var (
		l   csvLayout
		err error
	)
	if l.well, err = lookup(s.cfg.Columns.Well, true); err != nil {
		return l, err
	}
	if l.day, err = lookup(s.cfg.Columns.Day, true); err != nil {
		return l, err
	}
	if l.rate, err = lookup(s.cfg.Columns.Rate, true); err != nil {
		return l, err
	}
	if l.status, err = lookup(s.cfg.Columns.Status, s.cfg.Status != ""); err != nil {
		return l, err
	}

	return l, nil
}

// field returns record[i], or "" when the column is absent or the row short.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}

	return record[i]
}

// parseDay accepts integral values, including "30.0" from spreadsheet exports.
func parseDay(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if d, err := strconv.Atoi(raw); err == nil {
		return d, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("invalid producing day %q", raw)
	}

	return int(f), nil
}

func parseSample(day int, raw string) (series.Sample, error) {
	if isMissing(raw) {
		return series.Missing(day), nil
	}

	rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return series.Sample{}, fmt.Errorf("invalid rate %q", raw)
	}

	return series.Observed(day, rate), nil
}
