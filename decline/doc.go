// Package decline fits and projects Modified Hyperbolic Arps decline curves.
//
// The model describes the producing rate of a well as a function of elapsed
// time t in days:
//
//	q(t) = qi / (1 + b·Di·t)^(1/b)
//
// where qi is the initial rate, Di the initial nominal decline rate and b the
// hyperbolic exponent. As b approaches zero the curve becomes exponential,
// q(t) = qi·exp(−Di·t), and that limit is used for b < BEpsilon.
//
// # Fitting
//
// An Estimator runs a bounded nonlinear least-squares fit over a production
// history. Failures never surface as errors: a history with too few usable
// samples, or a solver that does not converge, yields a FitResult with
// Success set to false and the estimator's fallback parameters.
//
//	est, err := decline.NewEstimator(decline.WithMaxIterations(200))
//	if err != nil {
//	    return err
//	}
//	fit := est.Estimate(samples)
//	if !fit.Success {
//	    log.Printf("using fallback: %v", fit.Err())
//	}
//
// # Forecasting
//
// Forecast evaluates parameters on a fixed-cadence grid covering the observed
// range plus a horizon. Elapsed time is counted from the first grid day, so
// a forecast started at FitResult.Origin reproduces the fitted curve:
//
//	points, err := decline.Forecast(fit.Params, fit.Origin, lastDay,
//	    decline.WithStepDays(30), decline.WithHorizonDays(180))
//
// # Overrides
//
// A Session keeps the last fit alongside an optional user override. Overrides
// outside the parameter domain are rejected, never clamped, and Reset returns
// to the fitted (or fallback) parameters.
package decline
