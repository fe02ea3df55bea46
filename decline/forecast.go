package decline

import (
	"fmt"

	"github.com/arloliu/arps/errs"
	"github.com/arloliu/arps/internal/options"
)

const (
	// DefaultStepDays is the default spacing of the forecast grid.
	DefaultStepDays = 30
	// DefaultHorizonDays is the default projection length past the last
	// observed day.
	DefaultHorizonDays = 180
)

// Point is one forecast value.
type Point struct {
	Day  int
	Rate float64
}

// Points is a forecast ordered by ascending day.
type Points []Point

// Days returns the grid days.
func (ps Points) Days() []int {
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.Day
	}

	return out
}

// Rates returns the forecast rates.
func (ps Points) Rates() []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Rate
	}

	return out
}

// ForecastConfig controls the forecast grid.
type ForecastConfig struct {
	StepDays    int
	HorizonDays int
}

// DefaultForecastConfig returns a 30-day grid with a 180-day horizon.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{StepDays: DefaultStepDays, HorizonDays: DefaultHorizonDays}
}

// Validate reports a non-positive step or a negative horizon as
// errs.ErrDegenerateForecastInput.
func (c ForecastConfig) Validate() error {
	_, err := Grid(0, 0, c.StepDays, c.HorizonDays)
	return err
}

// ForecastOption configures a single Forecast call.
type ForecastOption = options.Option[*ForecastConfig]

// WithStepDays sets the grid spacing. Non-positive values make Forecast fail.
func WithStepDays(days int) ForecastOption {
	return options.NoError(func(cfg *ForecastConfig) {
		cfg.StepDays = days
	})
}

// WithHorizonDays sets how far past the last observed day to project.
// Negative values make Forecast fail.
func WithHorizonDays(days int) ForecastOption {
	return options.NoError(func(cfg *ForecastConfig) {
		cfg.HorizonDays = days
	})
}

// WithForecastConfig replaces the whole grid configuration.
func WithForecastConfig(c ForecastConfig) ForecastOption {
	return options.NoError(func(cfg *ForecastConfig) {
		*cfg = c
	})
}

// Grid returns the forecast days: firstDay, firstDay+step, ... up to lastDay,
// followed by floor(horizon/step) future days continuing the same cadence.
// When lastDay is on the cadence the future days are lastDay+step,
// lastDay+2·step, ... up to lastDay+horizon; otherwise they continue from the
// last historical grid day, so 0..95 with a 30-day step and a 180-day horizon
// yields 0, 30, ..., 270.
//
// The result is strictly ascending, never exceeds lastDay+horizon and has
// floor((lastDay−firstDay)/step) + 1 + floor(horizon/step) entries.
func Grid(firstDay, lastDay, stepDays, horizonDays int) ([]int, error) {
	switch {
	case firstDay < 0:
		return nil, fmt.Errorf("%w: first day %d is negative", errs.ErrDegenerateForecastInput, firstDay)
	case lastDay < firstDay:
		return nil, fmt.Errorf("%w: last day %d before first day %d", errs.ErrDegenerateForecastInput, lastDay, firstDay)
	case stepDays <= 0:
		return nil, fmt.Errorf("%w: step %d days", errs.ErrDegenerateForecastInput, stepDays)
	case horizonDays < 0:
		return nil, fmt.Errorf("%w: horizon %d days", errs.ErrDegenerateForecastInput, horizonDays)
	}

	days := make([]int, 0, (lastDay-firstDay)/stepDays+1+horizonDays/stepDays)
	for d := firstDay; d <= lastDay; d += stepDays {
		days = append(days, d)
	}
	lastGrid := days[len(days)-1]
	for k := 1; k <= horizonDays/stepDays; k++ {
		days = append(days, lastGrid+k*stepDays)
	}

	return days, nil
}

// Forecast evaluates p on the grid spanning [firstDay, lastDay] plus the
// horizon. Elapsed time is measured from the first grid day, so passing
// FitResult.Origin as firstDay reproduces the fitted curve.
//
// Parameters must be finite with qi ≥ 0, Di in [0, 15] and b in [0, 1.5];
// anything else is reported as errs.ErrDegenerateForecastInput. The result is
// non-increasing and deterministic.
func Forecast(p Parameters, firstDay, lastDay int, opts ...ForecastOption) (Points, error) {
	cfg := DefaultForecastConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if err := DefaultBounds().validationBounds().check(p); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrDegenerateForecastInput, err)
	}

	days, err := Grid(firstDay, lastDay, cfg.StepDays, cfg.HorizonDays)
	if err != nil {
		return nil, err
	}

	points := make(Points, len(days))
	for i, d := range days {
		points[i] = Point{Day: d, Rate: Rate(p, float64(d-days[0]))}
	}

	return points, nil
}
