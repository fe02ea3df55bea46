package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/arps/decline"
	"github.com/arloliu/arps/errs"
	"github.com/arloliu/arps/export"
	"github.com/arloliu/arps/ingest"
	"github.com/arloliu/arps/series"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func syntheticWell(id string, p decline.Parameters, days int) series.Well {
	w := series.Well{ID: id, Status: "A"}
	for d := 0; d <= days; d += 30 {
		w.Samples = append(w.Samples, series.Observed(d, decline.Rate(p, float64(d))))
	}

	return w
}

func scenarioWell(id string) series.Well {
	return series.Well{ID: id, Samples: []series.Sample{
		series.Observed(0, 100),
		series.Observed(30, 80),
		series.Observed(60, 65),
		series.Observed(90, 55),
	}}
}

func TestNewRunner_Defaults(t *testing.T) {
	r, err := NewRunner(Config{}, nil)
	require.NoError(t, err)
	require.Positive(t, r.Workers())
	require.Equal(t, decline.DefaultForecastConfig(), r.cfg.Forecast)
	require.NotNil(t, r.cfg.Estimator)
}

func TestNewRunner_Invalid(t *testing.T) {
	_, err := NewRunner(Config{Workers: -1}, discardLogger())
	require.Error(t, err)

	_, err = NewRunner(Config{Forecast: decline.ForecastConfig{StepDays: 0, HorizonDays: 30}}, discardLogger())
	require.ErrorIs(t, err, errs.ErrDegenerateForecastInput)
}

func TestRunner_Run(t *testing.T) {
	wells := []series.Well{
		scenarioWell("W-1"),
		{ID: "W-2", Samples: []series.Sample{series.Observed(0, 10), series.Observed(30, 9)}},
		{ID: "W-3"},
		syntheticWell("W-4", decline.Parameters{Qi: 800, Di: 0.01, B: 0.8}, 720),
	}

	r, err := NewRunner(Config{Workers: 3}, discardLogger())
	require.NoError(t, err)

	report, err := r.Run(context.Background(), wells)
	require.NoError(t, err)

	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Wells, 4)
	for i, w := range wells {
		require.Equal(t, w.ID, report.Wells[i].ID, "results keep input order")
	}
	require.Equal(t, 2, report.Fitted)
	require.Equal(t, 2, report.Fallback)
	require.False(t, report.Finished.Before(report.Started))

	scenario := report.Wells[0]
	require.True(t, scenario.Fit.Success)
	require.Equal(t, []int{0, 30, 60, 90, 120, 150, 180, 210, 240, 270}, scenario.Points.Days())
	require.InDelta(t, 25.27, scenario.Points[len(scenario.Points)-1].Rate, 0.1)

	short := report.Wells[1]
	require.False(t, short.Fit.Success)
	require.Equal(t, decline.ReasonInsufficientData, short.Fit.Reason)
	require.Equal(t, decline.DefaultFallback(), short.Fit.Params)

	empty := report.Wells[2]
	require.Equal(t, []int{0, 30, 60, 90, 120, 150, 180}, empty.Points.Days())
	require.InDelta(t, 500, empty.Points[0].Rate, 1e-9)

	synthetic := report.Wells[3]
	require.True(t, synthetic.Fit.Success)
	require.InDelta(t, 800, synthetic.Fit.Params.Qi, 1e-2)
	require.InDelta(t, 0.01, synthetic.Fit.Params.Di, 1e-5)
	require.InDelta(t, 0.8, synthetic.Fit.Params.B, 1e-3)

	total := 0.0
	for _, w := range report.Wells {
		require.Positive(t, w.Volume)
		total += w.Volume
	}
	require.InDelta(t, total, report.TotalVolume(), 1e-9)
}

func TestRunner_ManyWellsMatchSerialFits(t *testing.T) {
	wells := make([]series.Well, 64)
	for i := range wells {
		p := decline.Parameters{Qi: 200 + float64(i), Di: 0.005 + 0.0005*float64(i%10), B: 0.2 + 0.1*float64(i%8)}
		wells[i] = syntheticWell(fmt.Sprintf("W-%02d", i), p, 360)
	}

	r, err := NewRunner(Config{Workers: 8}, discardLogger())
	require.NoError(t, err)

	report, err := r.Run(context.Background(), wells)
	require.NoError(t, err)
	require.Len(t, report.Wells, len(wells))

	for i, w := range wells {
		serial := decline.Estimate(w.Samples)
		got := report.Wells[i]
		require.Equal(t, w.ID, got.ID)
		require.Equal(t, serial.Params, got.Fit.Params, "well %s", w.ID)
	}
}

func TestRunner_EmptyInput(t *testing.T) {
	r, err := NewRunner(Config{Workers: 2}, discardLogger())
	require.NoError(t, err)

	report, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, report.Wells)
	require.Zero(t, report.TotalVolume())
}

func TestRunner_InvalidWellIDs(t *testing.T) {
	r, err := NewRunner(Config{Workers: 2}, discardLogger())
	require.NoError(t, err)

	tests := []struct {
		name  string
		wells []series.Well
		want  error
	}{
		{"duplicate id", []series.Well{scenarioWell("W-1"), scenarioWell("W-2"), scenarioWell("W-1")}, errs.ErrDuplicateWell},
		{"empty id", []series.Well{scenarioWell("W-1"), scenarioWell("")}, errs.ErrInvalidWellID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := r.Run(context.Background(), tt.wells)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, report)
		})
	}
}

func TestRunner_Canceled(t *testing.T) {
	wells := make([]series.Well, 100)
	for i := range wells {
		wells[i] = scenarioWell(fmt.Sprintf("W-%03d", i))
	}

	r, err := NewRunner(Config{Workers: 2}, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.Run(ctx, wells)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, report)
}

func TestRunner_RunSource(t *testing.T) {
	input := "well_id,producing_days,daily_oil_rate,well_status\n" +
		"W-1,0,100,A\nW-1,30,80,A\nW-1,60,65,A\nW-1,90,55,A\nW-2,0,5,I\n"
	src, err := ingest.NewCSVSource(strings.NewReader(input))
	require.NoError(t, err)

	r, err := NewRunner(DefaultConfig(), discardLogger())
	require.NoError(t, err)

	report, err := r.RunSource(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, report.Wells, 1)
	require.Equal(t, "W-1", report.Wells[0].ID)
	require.True(t, report.Wells[0].Fit.Success)
}

type failingSource struct{ err error }

func (f failingSource) Wells(context.Context) ([]series.Well, error) { return nil, f.err }

func TestRunner_RunSourceError(t *testing.T) {
	boom := errors.New("source down")
	r, err := NewRunner(DefaultConfig(), discardLogger())
	require.NoError(t, err)

	_, err = r.RunSource(context.Background(), failingSource{err: boom})
	require.ErrorIs(t, err, boom)
}

func TestReport_Export(t *testing.T) {
	r, err := NewRunner(Config{Workers: 1}, discardLogger())
	require.NoError(t, err)

	report, err := r.Run(context.Background(), []series.Well{
		scenarioWell("W-1"),
		{ID: "W-2"},
	})
	require.NoError(t, err)

	var fbuf, pbuf bytes.Buffer
	fw, err := export.NewForecastWriter(&fbuf)
	require.NoError(t, err)
	pw, err := export.NewParameterWriter(&pbuf)
	require.NoError(t, err)

	require.NoError(t, report.Export(fw, pw))
	require.NoError(t, fw.Close())
	require.NoError(t, pw.Close())

	require.Equal(t, 10+7, fw.Rows())
	require.Equal(t, 2, pw.Rows())

	lines := strings.Split(strings.TrimSpace(pbuf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "W-1,"))
	require.True(t, strings.HasSuffix(lines[1], ",true,none,fitted,4"))
	require.Equal(t, "W-2,500,0.01,0.5,NA,false,insufficient_data,fallback,0", lines[2])

	require.NoError(t, report.Export(nil, nil))
}

func TestReport_Duration(t *testing.T) {
	r, err := NewRunner(Config{Workers: 1}, discardLogger())
	require.NoError(t, err)

	report, err := r.Run(context.Background(), []series.Well{scenarioWell("W-1")})
	require.NoError(t, err)
	require.GreaterOrEqual(t, report.Duration(), time.Duration(0))
	require.False(t, math.IsNaN(report.TotalVolume()))
}

func BenchmarkRunner_Run(b *testing.B) {
	wells := make([]series.Well, 256)
	for i := range wells {
		p := decline.Parameters{Qi: 300 + float64(i), Di: 0.01, B: 0.6}
		wells[i] = syntheticWell(fmt.Sprintf("W-%03d", i), p, 720)
	}

	r, err := NewRunner(Config{}, discardLogger())
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := r.Run(context.Background(), wells); err != nil {
			b.Fatal(err)
		}
	}
}
