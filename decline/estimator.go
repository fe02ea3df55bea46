package decline

import (
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/arps/errs"
	"github.com/arloliu/arps/internal/lsq"
	"github.com/arloliu/arps/internal/options"
	"github.com/arloliu/arps/internal/pool"
	"github.com/arloliu/arps/series"
)

const (
	defaultInitialB  = 0.5
	defaultInitialDi = 0.01
	minInitialDi     = 1e-4
)

// Reason explains why a fit did not succeed.
type Reason uint8

const (
	// ReasonNone marks a successful fit.
	ReasonNone Reason = iota
	// ReasonInsufficientData marks a history with too few usable samples.
	ReasonInsufficientData
	// ReasonDivergence marks a solver failure or a result outside the bounds.
	ReasonDivergence
)

// String implements fmt.Stringer.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInsufficientData:
		return "insufficient_data"
	case ReasonDivergence:
		return "divergence"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// Err maps the reason to its sentinel error, nil for ReasonNone.
func (r Reason) Err() error {
	switch r {
	case ReasonNone:
		return nil
	case ReasonInsufficientData:
		return errs.ErrInsufficientData
	default:
		return errs.ErrFitDivergence
	}
}

// FitResult is the outcome of a single decline fit.
//
// On failure Params holds the estimator's fallback parameters and RMSE is NaN.
type FitResult struct {
	// Params are the fitted parameters, or the fallback when Success is false.
	Params Parameters
	// RMSE is the root mean square error over the usable samples.
	RMSE float64
	// Success reports whether the solver converged inside the bounds.
	Success bool
	// Reason explains a failed fit.
	Reason Reason
	// Iterations is the number of solver steps taken.
	Iterations int
	// Samples is the number of usable samples the fit saw.
	Samples int
	// Origin is the producing day the fit's time axis starts at. Forecasts
	// reproduce the fitted curve when started at this day.
	Origin int
}

// String implements fmt.Stringer.
func (r FitResult) String() string {
	if r.Success {
		return fmt.Sprintf("FitResult{Success: true, Params: {%s}, RMSE: %.4f, Iterations: %d, Samples: %d, Origin: %d}",
			r.Params, r.RMSE, r.Iterations, r.Samples, r.Origin)
	}

	return fmt.Sprintf("FitResult{Success: false, Reason: %s, Params: {%s}, Samples: %d}",
		r.Reason, r.Params, r.Samples)
}

// Err returns errs.ErrInsufficientData or errs.ErrFitDivergence for a failed
// fit and nil otherwise.
func (r FitResult) Err() error {
	if r.Success {
		return nil
	}

	return r.Reason.Err()
}

// EstimatorConfig holds the estimator settings.
type EstimatorConfig struct {
	Bounds        Bounds
	Fallback      Parameters
	MinSamples    int
	MaxIterations int
	FTol          float64
	XTol          float64
}

func defaultEstimatorConfig() EstimatorConfig {
	s := lsq.DefaultSettings()

	return EstimatorConfig{
		Bounds:        DefaultBounds(),
		Fallback:      DefaultFallback(),
		MinSamples:    DefaultMinSamples,
		MaxIterations: s.MaxIterations,
		FTol:          s.FTol,
		XTol:          s.XTol,
	}
}

// EstimatorOption configures an Estimator.
type EstimatorOption = options.Option[*EstimatorConfig]

// WithBounds sets the box the solver fits within.
func WithBounds(b Bounds) EstimatorOption {
	return options.New(func(cfg *EstimatorConfig) error {
		if err := b.Validate(); err != nil {
			return err
		}
		cfg.Bounds = b

		return nil
	})
}

// WithFallback sets the parameters reported by failed fits.
func WithFallback(p Parameters) EstimatorOption {
	return options.NoError(func(cfg *EstimatorConfig) {
		cfg.Fallback = p
	})
}

// WithMinSamples sets the number of usable samples required to attempt a fit.
// Values below 3 are rejected; the model has three parameters.
func WithMinSamples(n int) EstimatorOption {
	return options.New(func(cfg *EstimatorConfig) error {
		if n < DefaultMinSamples {
			return fmt.Errorf("min samples %d is below %d", n, DefaultMinSamples)
		}
		cfg.MinSamples = n

		return nil
	})
}

// WithMaxIterations caps the solver's trial steps.
func WithMaxIterations(n int) EstimatorOption {
	return options.New(func(cfg *EstimatorConfig) error {
		if n <= 0 {
			return fmt.Errorf("max iterations must be positive, got %d", n)
		}
		cfg.MaxIterations = n

		return nil
	})
}

// WithTolerance sets the relative cost and step tolerances of the solver.
func WithTolerance(ftol, xtol float64) EstimatorOption {
	return options.New(func(cfg *EstimatorConfig) error {
		if !(ftol > 0) || !(xtol > 0) || math.IsInf(ftol, 0) || math.IsInf(xtol, 0) {
			return fmt.Errorf("tolerances must be positive and finite, got ftol=%v xtol=%v", ftol, xtol)
		}
		cfg.FTol = ftol
		cfg.XTol = xtol

		return nil
	})
}

// Estimator fits Arps parameters to production histories.
//
// An Estimator is immutable after construction and safe for concurrent use.
type Estimator struct {
	cfg EstimatorConfig
}

// NewEstimator returns an estimator configured by opts.
func NewEstimator(opts ...EstimatorOption) (*Estimator, error) {
	cfg := defaultEstimatorConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if err := cfg.Bounds.validationBounds().check(cfg.Fallback); err != nil {
		return nil, fmt.Errorf("%w: fallback %w", errs.ErrInvalidOption, err)
	}

	return &Estimator{cfg: cfg}, nil
}

var defaultEstimator = &Estimator{cfg: defaultEstimatorConfig()}

// Estimate fits samples with the default estimator.
func Estimate(samples []series.Sample) FitResult {
	return defaultEstimator.Estimate(samples)
}

// Config returns a copy of the estimator settings.
func (e *Estimator) Config() EstimatorConfig {
	return e.cfg
}

// Fallback returns the parameters reported by failed fits.
func (e *Estimator) Fallback() Parameters {
	return e.cfg.Fallback
}

// Estimate fits the Arps model to the usable samples.
//
// Missing samples are dropped. Time is measured in days since the earliest
// usable sample, recorded in FitResult.Origin. Estimate never panics and never
// returns an error: data problems and solver failures are reported through
// FitResult.Success and FitResult.Reason with the fallback parameters.
func (e *Estimator) Estimate(samples []series.Sample) FitResult {
	days, rates := series.Points(samples)
	n := len(days)

	origin, _, _ := series.DayRange(samples)
	if n < e.cfg.MinSamples {
		return e.failure(ReasonInsufficientData, n, origin, 0)
	}

	ts, release := pool.GetFloat64Slice(n)
	defer release()
	for i, d := range days {
		ts[i] = d - float64(origin)
	}

	problem := lsq.Problem{
		T:        ts,
		Y:        rates,
		Lower:    e.cfg.Bounds.Lower.vector(),
		Upper:    e.cfg.Bounds.Upper.vector(),
		Model:    rateAt,
		Gradient: gradientAt,
	}
	settings := lsq.Settings{
		MaxIterations:  e.cfg.MaxIterations,
		FTol:           e.cfg.FTol,
		XTol:           e.cfg.XTol,
		InitialDamping: lsq.DefaultSettings().InitialDamping,
	}

	res, err := lsq.Solve(problem, initialGuess(ts, rates).vector(), settings)
	if err != nil {
		iters := 0
		if errors.Is(err, errs.ErrMaxIterations) {
			iters = e.cfg.MaxIterations
		}

		return e.failure(ReasonDivergence, n, origin, iters)
	}

	params := fromVector(res.Params)
	if !e.cfg.Bounds.Contains(params) {
		return e.failure(ReasonDivergence, n, origin, res.Iterations)
	}

	rmse := residualRMSE(params, ts, rates)
	if math.IsNaN(rmse) || math.IsInf(rmse, 0) {
		return e.failure(ReasonDivergence, n, origin, res.Iterations)
	}

	return FitResult{
		Params:     params,
		RMSE:       rmse,
		Success:    true,
		Reason:     ReasonNone,
		Iterations: res.Iterations,
		Samples:    n,
		Origin:     origin,
	}
}

func (e *Estimator) failure(reason Reason, samples, origin, iterations int) FitResult {
	return FitResult{
		Params:     e.cfg.Fallback,
		RMSE:       math.NaN(),
		Reason:     reason,
		Iterations: iterations,
		Samples:    samples,
		Origin:     origin,
	}
}

// initialGuess derives a starting point from the earliest and latest samples.
// The solver projects it into the bounds.
func initialGuess(ts, rates []float64) Parameters {
	first, last := 0, 0
	maxRate := rates[0]
	for i, t := range ts {
		if t < ts[first] {
			first = i
		}
		if t > ts[last] {
			last = i
		}
		maxRate = math.Max(maxRate, rates[i])
	}

	qi := rates[first]
	if qi == 0 {
		qi = maxRate
	}

	di := defaultInitialDi
	qFirst, qLast, span := rates[first], rates[last], ts[last]-ts[first]
	if span > 0 && qFirst > 0 && qLast > 0 && qFirst > qLast {
		di = math.Min(math.Max(math.Log(qFirst/qLast)/span, minInitialDi), MaxDi)
	}

	return Parameters{Qi: qi, Di: di, B: defaultInitialB}
}

func residualRMSE(p Parameters, ts, rates []float64) float64 {
	sum := 0.0
	for i, t := range ts {
		r := rates[i] - Rate(p, t)
		sum += r * r
	}

	return math.Sqrt(sum / float64(len(ts)))
}
