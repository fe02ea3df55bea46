package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObserved(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		valid bool
	}{
		{"positive", 12.5, true},
		{"zero", 0, true},
		{"negative", -1, false},
		{"nan", math.NaN(), false},
		{"inf", math.Inf(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Observed(30, tt.rate)
			require.Equal(t, 30, s.Day)
			require.Equal(t, tt.valid, s.Valid)
			require.Equal(t, tt.valid, s.Usable())
		})
	}
}

func TestSample_UsableRejectsNegativeDay(t *testing.T) {
	require.False(t, Sample{Day: -1, Rate: 10, Valid: true}.Usable())
}

func TestPoints_PreservesOrderAndSkipsMissing(t *testing.T) {
	samples := []Sample{
		Observed(60, 65),
		Missing(45),
		Observed(0, 100),
		Observed(30, 80),
	}

	days, rates := Points(samples)
	require.Equal(t, []float64{60, 0, 30}, days)
	require.Equal(t, []float64{65, 100, 80}, rates)
	require.Equal(t, 3, CountUsable(samples))
}

func TestDayRange(t *testing.T) {
	first, last, ok := DayRange([]Sample{Observed(90, 55), Missing(200), Observed(15, 90), Observed(40, 70)})
	require.True(t, ok)
	require.Equal(t, 15, first)
	require.Equal(t, 90, last)

	_, _, ok = DayRange([]Sample{Missing(0)})
	require.False(t, ok)

	_, _, ok = DayRange(nil)
	require.False(t, ok)
}

func TestWell_Key(t *testing.T) {
	a := Well{ID: "33-053-01234"}
	b := Well{ID: " 33-053-01234 "}
	c := Well{ID: "33-053-09999"}

	require.Equal(t, a.Key(), b.Key())
	require.NotEqual(t, a.Key(), c.Key())
}
