package ingest

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/arloliu/arps/errs"
	"github.com/arloliu/arps/series"
	"github.com/stretchr/testify/require"
)

func TestSQLSource_Query(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tests := []struct {
		name     string
		cfg      SQLConfig
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "postgres with status",
			cfg:      SQLConfig{Driver: DriverPostgres, Table: "production", Status: "A"},
			wantSQL:  "SELECT well_id, producing_days, daily_oil_rate, well_status FROM production WHERE well_status = $1 ORDER BY well_id, producing_days",
			wantArgs: []any{"A"},
		},
		{
			name:     "mysql with status",
			cfg:      SQLConfig{Driver: DriverMySQL, Table: "prod.monthly", Status: "A"},
			wantSQL:  "SELECT well_id, producing_days, daily_oil_rate, well_status FROM prod.monthly WHERE well_status = ? ORDER BY well_id, producing_days",
			wantArgs: []any{"A"},
		},
		{
			name: "custom columns without filter",
			cfg: SQLConfig{
				Driver:  DriverPostgres,
				Table:   "daily",
				Columns: Columns{Well: "api", Day: "day_on", Rate: "oil"},
			},
			wantSQL: "SELECT api, day_on, oil, well_status FROM daily ORDER BY api, day_on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSQLSource(db, tt.cfg)
			require.NoError(t, err)

			query, args, err := src.Query()
			require.NoError(t, err)
			require.Equal(t, tt.wantSQL, query)
			require.Equal(t, len(tt.wantArgs), len(args))
			for i := range tt.wantArgs {
				require.Equal(t, tt.wantArgs[i], args[i])
			}
		})
	}
}

func TestNewSQLSource_Invalid(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tests := []struct {
		name string
		cfg  SQLConfig
	}{
		{"unknown driver", SQLConfig{Driver: "oracle", Table: "production"}},
		{"empty table", SQLConfig{Driver: DriverPostgres}},
		{"injected table", SQLConfig{Driver: DriverPostgres, Table: "production; DROP TABLE wells"}},
		{"injected column", SQLConfig{Driver: DriverMySQL, Table: "production", Columns: Columns{Rate: "rate) --"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSQLSource(db, tt.cfg)
			require.Error(t, err)
		})
	}

	_, err = NewSQLSource(nil, SQLConfig{Driver: DriverPostgres, Table: "production"})
	require.Error(t, err)
}

func TestSQLSource_Wells(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"well_id", "producing_days", "daily_oil_rate", "well_status"}).
		AddRow("W-2", 0, 250.0, "A").
		AddRow("W-1", 0, 100.0, "A").
		AddRow("W-1", 30, nil, "A").
		AddRow(nil, 30, 1.0, "A").
		AddRow("W-1", nil, 1.0, "A").
		AddRow("W-2", 30, 200.0, "A")

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT well_id, producing_days, daily_oil_rate, well_status FROM production WHERE well_status = $1 ORDER BY well_id, producing_days",
	)).WithArgs("A").WillReturnRows(rows)

	src, err := NewSQLSource(db, SQLConfig{Driver: DriverPostgres, Table: "production", Status: "A"})
	require.NoError(t, err)

	wells, err := src.Wells(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, wells, 2)
	require.Equal(t, "W-2", wells[0].ID)
	require.Equal(t, []series.Sample{series.Observed(0, 250), series.Observed(30, 200)}, wells[0].Samples)
	require.Equal(t, "W-1", wells[1].ID)
	require.Equal(t, "A", wells[1].Status)
	require.Equal(t, []series.Sample{series.Observed(0, 100), series.Missing(30)}, wells[1].Samples)
}

func TestSQLSource_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	src, err := NewSQLSource(db, SQLConfig{Driver: DriverMySQL, Table: "production"})
	require.NoError(t, err)

	_, err = src.Wells(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestSQLSource_RowError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("stream broken")
	rows := sqlmock.NewRows([]string{"well_id", "producing_days", "daily_oil_rate", "well_status"}).
		AddRow("W-1", 0, 10.0, "A").
		AddRow("W-1", 30, 9.0, "A").
		RowError(1, boom)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	src, err := NewSQLSource(db, SQLConfig{Driver: DriverMySQL, Table: "production"})
	require.NoError(t, err)

	_, err = src.Wells(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestGrouper_EmptyID(t *testing.T) {
	g := newGrouper()
	err := g.add("  ", "A", series.Observed(0, 1))
	require.ErrorIs(t, err, errs.ErrInvalidWellID)
}
