// Package arps estimates Modified Hyperbolic Arps decline parameters for oil and
// gas wells and projects their production forward.
//
// The decline package holds the core: a bounded least-squares Estimator, the
// pure Forecast function and the override Session. This package wraps them
// for the common per-well flow, and the ingest, batch and export packages move
// production histories in and forecasts out.
//
// # Core Features
//
//   - Bounded Levenberg–Marquardt fitting of q(t) = qi / (1 + b·Di·t)^(1/b)
//   - Deterministic fallback parameters when a history cannot be fitted
//   - Evenly spaced forecasts covering the observed range plus a horizon
//   - Validated parameter overrides that are never silently clamped
//   - CSV and SQL ingestion, parallel batch runs and compressed CSV export
//
// # Basic Usage
//
// Fitting and forecasting a single well:
//
//	well := series.Well{ID: "33-053-01234", Samples: []series.Sample{
//	    series.Observed(0, 100),
//	    series.Observed(30, 80),
//	    series.Observed(60, 65),
//	    series.Observed(90, 55),
//	}}
//
//	wf, err := arps.ForecastWell(well, nil, decline.DefaultForecastConfig())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(wf.Fit)
//	for _, p := range wf.Points {
//	    fmt.Printf("day=%d rate=%.2f\n", p.Day, p.Rate)
//	}
//
// Overriding the fitted parameters:
//
//	session := arps.NewSession(wf.Fit)
//	if err := session.Override(decline.Parameters{Qi: 120, Di: 0.01, B: 0.9}); err != nil {
//	    return err // errs.ErrInvalidParameterOverride
//	}
//	points, err := session.Forecast(wf.First, wf.Last)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the decline
// package. For custom bounds, fallback parameters or solver settings, build a
// decline.Estimator directly.
package arps

import (
	"github.com/arloliu/arps/decline"
	"github.com/arloliu/arps/internal/hash"
	"github.com/arloliu/arps/series"
)

// WellKey returns the xxHash64 key used to group rows of the same well.
func WellKey(id string) uint64 {
	return hash.WellKey(id)
}

// NewEstimator creates a decline estimator. It is a shortcut for
// decline.NewEstimator.
func NewEstimator(opts ...decline.EstimatorOption) (*decline.Estimator, error) {
	return decline.NewEstimator(opts...)
}

// NewSession starts an override session over fit with the default bounds.
func NewSession(fit decline.FitResult) *decline.Session {
	return decline.NewSession(fit, decline.DefaultBounds())
}

// Fit estimates decline parameters for the well's usable samples.
//
// A nil estimator uses the default settings.
func Fit(w series.Well, est *decline.Estimator) decline.FitResult {
	if est == nil {
		return decline.Estimate(w.Samples)
	}

	return est.Estimate(w.Samples)
}

// WellForecast is the fit and forecast of a single well.
type WellForecast struct {
	// ID is the well identifier.
	ID string
	// Fit is the decline fit; on failure it carries the fallback parameters.
	Fit decline.FitResult
	// First and Last are the grid bounds the forecast was built over.
	First, Last int
	// Points is the forecast.
	Points decline.Points
	// Volume is the cumulative production over the forecast grid.
	Volume float64
}

// ForecastWell fits the well and forecasts it over its observed range plus the
// configured horizon.
//
// The grid starts at the fit origin so the forecast follows the fitted curve.
// A well without usable samples is forecast from day 0 with the fallback
// parameters. Errors are reported only for an invalid grid configuration.
func ForecastWell(w series.Well, est *decline.Estimator, cfg decline.ForecastConfig) (WellForecast, error) {
	fit := Fit(w, est)

	first, last, ok := series.DayRange(w.Samples)
	if !ok {
		first, last = 0, 0
	}

	points, err := decline.Forecast(fit.Params, first, last, decline.WithForecastConfig(cfg))
	if err != nil {
		return WellForecast{}, err
	}

	return WellForecast{
		ID:     w.ID,
		Fit:    fit,
		First:  first,
		Last:   last,
		Points: points,
		Volume: decline.Cumulative(fit.Params, float64(points[len(points)-1].Day-first)),
	}, nil
}
