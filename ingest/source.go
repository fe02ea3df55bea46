// Package ingest loads per-well production histories from tabular sources.
//
// Sources return wells in the order their identifiers first appear. Rows of
// the same well are grouped by the xxHash64 key of the identifier; two
// different identifiers that hash to the same key are reported as
// errs.ErrHashCollision rather than silently merged.
package ingest

import (
	"context"
	"strings"
	"unicode"

	"github.com/arloliu/arps/series"
)

// Source yields production histories grouped by well.
type Source interface {
	Wells(ctx context.Context) ([]series.Well, error)
}

// DefaultStatus is the well status kept by default: active wells.
const DefaultStatus = "A"

// Columns names the fields a source reads. For CSV sources the names are
// compared after CleanName normalization.
type Columns struct {
	Well   string `yaml:"well"`
	Day    string `yaml:"day"`
	Rate   string `yaml:"rate"`
	Status string `yaml:"status"`
}

// DefaultColumns returns the column names of the state production exports.
func DefaultColumns() Columns {
	return Columns{
		Well:   "well_id",
		Day:    "producing_days",
		Rate:   "daily_oil_rate",
		Status: "well_status",
	}
}

// withDefaults fills empty names from DefaultColumns.
func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.Well == "" {
		c.Well = d.Well
	}
	if c.Day == "" {
		c.Day = d.Day
	}
	if c.Rate == "" {
		c.Rate = d.Rate
	}
	if c.Status == "" {
		c.Status = d.Status
	}

	return c
}

// CleanName normalizes a column header: surrounding space is trimmed, letters
// are lower-cased, every run of other characters becomes a single underscore,
// and leading or trailing underscores are dropped. "Daily Oil Rate (bbl)"
// becomes "daily_oil_rate_bbl".
func CleanName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pending := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))

			continue
		}
		pending = true
	}

	return b.String()
}

// isMissing reports whether a raw rate cell means "no data".
func isMissing(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "na", "nan", "null", "n/a":
		return true
	default:
		return false
	}
}
