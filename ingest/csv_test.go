package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/arloliu/arps/errs"
	"github.com/arloliu/arps/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productionCSV = `Well ID,Producing Days,Daily Oil Rate,Well Status
W-1,0,100,A
W-1,30,80,A
W-2,0,250,A
W-1,60,NA,A
W-3,0,40,I
W-2,30,,a
W-1,90,55,A
`

func readWells(t *testing.T, input string, opts ...CSVOption) []series.Well {
	t.Helper()

	src, err := NewCSVSource(strings.NewReader(input), opts...)
	require.NoError(t, err)

	wells, err := src.Wells(context.Background())
	require.NoError(t, err)

	return wells
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"well_id", "well_id"},
		{"Well ID", "well_id"},
		{"  Daily Oil Rate (bbl) ", "daily_oil_rate_bbl"},
		{"PRODUCING-DAYS", "producing_days"},
		{"__status__", "status"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanName(tt.in))
		})
	}
}

func TestCSVSource_GroupsByWell(t *testing.T) {
	wells := readWells(t, productionCSV)

	require.Len(t, wells, 2, "inactive W-3 is filtered out")

	require.Equal(t, "W-1", wells[0].ID)
	require.Equal(t, "A", wells[0].Status)
	require.Equal(t, []series.Sample{
		series.Observed(0, 100),
		series.Observed(30, 80),
		series.Missing(60),
		series.Observed(90, 55),
	}, wells[0].Samples)

	require.Equal(t, "W-2", wells[1].ID)
	require.Equal(t, []series.Sample{
		series.Observed(0, 250),
		series.Missing(30),
	}, wells[1].Samples)
}

func TestCSVSource_NoStatusFilter(t *testing.T) {
	wells := readWells(t, productionCSV, WithStatus(""))

	require.Len(t, wells, 3)
	require.Equal(t, "W-3", wells[2].ID)
	require.Equal(t, "I", wells[2].Status)
}

func TestCSVSource_StatusColumnOptionalWithoutFilter(t *testing.T) {
	input := "well_id,producing_days,daily_oil_rate\nA,0,10\nA,30,9\n"

	wells := readWells(t, input, WithStatus(""))
	require.Len(t, wells, 1)
	require.Empty(t, wells[0].Status)
	require.Len(t, wells[0].Samples, 2)
}

func TestCSVSource_CustomColumnsAndDelimiter(t *testing.T) {
	input := "api;days;oil;state\n42-001;0;12.5;P\n42-001;30.0;11;P\n"

	wells := readWells(t, input,
		WithColumns(Columns{Well: "API", Day: "Days", Rate: "Oil", Status: "State"}),
		WithStatus("p"),
		WithComma(';'),
	)

	require.Len(t, wells, 1)
	require.Equal(t, "42-001", wells[0].ID)
	require.Equal(t, []series.Sample{
		series.Observed(0, 12.5),
		series.Observed(30, 11),
	}, wells[0].Samples)
}

func TestCSVSource_MissingRateSpellings(t *testing.T) {
	input := "well_id,producing_days,daily_oil_rate\n" +
		"A,0,\nA,1,NA\nA,2,nan\nA,3,NaN\nA,4,n/a\nA,5,-3\nA,6,7\n"

	wells := readWells(t, input, WithStatus(""))
	require.Len(t, wells, 1)
	require.Len(t, wells[0].Samples, 7)
	require.Equal(t, 1, series.CountUsable(wells[0].Samples))
}

func TestCSVSource_SkipsBlankWellIDs(t *testing.T) {
	input := "well_id,producing_days,daily_oil_rate\n ,0,10\nB,0,5\n"

	wells := readWells(t, input, WithStatus(""))
	require.Len(t, wells, 1)
	require.Equal(t, "B", wells[0].ID)
}

func TestCSVSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    []CSVOption
		wantErr error
		errText string
	}{
		{
			name:    "empty input",
			input:   "",
			wantErr: errs.ErrMissingColumn,
		},
		{
			name:    "missing rate column",
			input:   "well_id,producing_days,well_status\nA,0,A\n",
			wantErr: errs.ErrMissingColumn,
			errText: "daily_oil_rate",
		},
		{
			name:    "missing status column with filter",
			input:   "well_id,producing_days,daily_oil_rate\nA,0,1\n",
			wantErr: errs.ErrMissingColumn,
			errText: "well_status",
		},
		{
			name:    "bad day",
			input:   "well_id,producing_days,daily_oil_rate\nA,0,1\nA,1.5,2\n",
			opts:    []CSVOption{WithStatus("")},
			errText: "line 3",
		},
		{
			name:    "bad rate",
			input:   "well_id,producing_days,daily_oil_rate\nA,0,lots\n",
			opts:    []CSVOption{WithStatus("")},
			errText: `invalid rate "lots"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewCSVSource(strings.NewReader(tt.input), tt.opts...)
			require.NoError(t, err)

			_, err = src.Wells(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errText != "" {
				require.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestWithComma_Invalid(t *testing.T) {
	_, err := NewCSVSource(strings.NewReader(""), WithComma('"'))
	require.ErrorIs(t, err, errs.ErrInvalidOption)
}

func TestCSVSource_CanceledContext(t *testing.T) {
	src, err := NewCSVSource(strings.NewReader(productionCSV))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.Wells(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{" 30 ", 30, false},
		{"60.0", 60, false},
		{"-5", -5, false},
		{"1.25", 0, true},
		{"", 0, true},
		{"day", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseDay(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func BenchmarkCSVSource_Wells(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("well_id,producing_days,daily_oil_rate,well_status\n")
	for w := 0; w < 200; w++ {
		for d := 0; d < 720; d += 30 {
			fmt.Fprintf(&sb, "W-%03d,%d,%.2f,A\n", w, d, 500/(1+0.01*float64(d)))
		}
	}
	input := sb.String()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		src, _ := NewCSVSource(strings.NewReader(input))
		if _, err := src.Wells(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
