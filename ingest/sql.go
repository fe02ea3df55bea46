package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/arloliu/arps/series"
)

// Supported SQL dialects.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite3"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLConfig describes the production table.
type SQLConfig struct {
	// Driver selects the placeholder style: DriverPostgres, DriverMySQL or
	// DriverSQLite.
	Driver string
	// Table is the production table, optionally schema-qualified.
	Table string
	// Columns names the well, day, rate and status columns.
	Columns Columns
	// Status keeps only rows with this status. Empty disables the filter.
	Status string
}

// SQLSource reads production rows from a database table.
type SQLSource struct {
	db          *sql.DB
	cfg         SQLConfig
	placeholder sq.PlaceholderFormat
}

var _ Source = (*SQLSource)(nil)

// NewSQLSource validates cfg and returns a source over db. Table and column
// names must be plain identifiers; they are interpolated into the query.
func NewSQLSource(db *sql.DB, cfg SQLConfig) (*SQLSource, error) {
	if db == nil {
		return nil, fmt.Errorf("sql source: nil database")
	}

	cfg.Columns = cfg.Columns.withDefaults()

	var placeholder sq.PlaceholderFormat
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "pgx", "pq":
		placeholder = sq.Dollar
	case DriverMySQL, DriverSQLite, "sqlite":
		placeholder = sq.Question
	default:
		return nil, fmt.Errorf("sql source: unsupported driver %q", cfg.Driver)
	}

	for _, name := range []string{cfg.Table, cfg.Columns.Well, cfg.Columns.Day, cfg.Columns.Rate, cfg.Columns.Status} {
		if !identifierPattern.MatchString(name) {
			return nil, fmt.Errorf("sql source: invalid identifier %q", name)
		}
	}

	return &SQLSource{db: db, cfg: cfg, placeholder: placeholder}, nil
}

// Query returns the statement and arguments Wells runs.
func (s *SQLSource) Query() (string, []any, error) {
	c := s.cfg.Columns
	q := sq.Select(c.Well, c.Day, c.Rate, c.Status).
		From(s.cfg.Table).
		OrderBy(c.Well, c.Day).
		PlaceholderFormat(s.placeholder)
	if s.cfg.Status != "" {
		q = q.Where(sq.Eq{c.Status: s.cfg.Status})
	}

	return q.ToSql()
}

// Wells runs the query and groups rows by well. NULL rates become missing
// samples and rows with a NULL day or well are skipped.
func (s *SQLSource) Wells(ctx context.Context) ([]series.Well, error) {
	query, args, err := s.Query()
	if err != nil {
		return nil, fmt.Errorf("build production query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query production: %w", err)
	}
	defer rows.Close()

	g := newGrouper()
	for rows.Next() {
		var (
			well   sql.NullString
			day    sql.NullInt64
			rate   sql.NullFloat64
			status sql.NullString
		)
		if err := rows.Scan(&well, &day, &rate, &status); err != nil {
			return nil, fmt.Errorf("scan production row: %w", err)
		}
		if !well.Valid || strings.TrimSpace(well.String) == "" || !day.Valid {
			continue
		}

		sample := series.Missing(int(day.Int64))
		if rate.Valid {
			sample = series.Observed(int(day.Int64), rate.Float64)
		}

		if err := g.add(well.String, status.String, sample); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate production rows: %w", err)
	}

	return g.result(), nil
}
