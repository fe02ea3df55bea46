package decline

import (
	"fmt"

	"github.com/arloliu/arps/errs"
)

// Source identifies where the active parameters of a Session came from.
type Source uint8

const (
	// SourceFitted marks parameters from a successful fit.
	SourceFitted Source = iota
	// SourceFallback marks the fallback parameters of a failed fit.
	SourceFallback
	// SourceOverride marks user-supplied parameters.
	SourceOverride
)

// String implements fmt.Stringer.
func (s Source) String() string {
	switch s {
	case SourceFitted:
		return "fitted"
	case SourceFallback:
		return "fallback"
	case SourceOverride:
		return "override"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// Session holds the parameters a forecast is drawn from: the last fit, or a
// user override of it.
//
// A Session is not safe for concurrent use.
type Session struct {
	bounds   Bounds
	fit      FitResult
	override *Parameters
}

// NewSession starts a session from fit. Overrides are validated against
// bounds with the b lower bound widened to 0.
func NewSession(fit FitResult, bounds Bounds) *Session {
	return &Session{bounds: bounds.validationBounds(), fit: fit}
}

// Fit returns the last recorded fit.
func (s *Session) Fit() FitResult {
	return s.fit
}

// Active returns the parameters forecasts are drawn from.
func (s *Session) Active() Parameters {
	if s.override != nil {
		return *s.override
	}

	return s.fit.Params
}

// Source reports where Active comes from.
func (s *Session) Source() Source {
	switch {
	case s.override != nil:
		return SourceOverride
	case s.fit.Success:
		return SourceFitted
	default:
		return SourceFallback
	}
}

// Override replaces the active parameters with p.
//
// Values outside the session bounds are rejected with
// errs.ErrInvalidParameterOverride and leave the session unchanged; they are
// never clamped.
func (s *Session) Override(p Parameters) error {
	if err := s.bounds.check(p); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidParameterOverride, err)
	}
	s.override = &p

	return nil
}

// Reset discards any override.
func (s *Session) Reset() {
	s.override = nil
}

// Refit records a new fit and discards any override.
func (s *Session) Refit(fit FitResult) {
	s.fit = fit
	s.override = nil
}

// Forecast forecasts from the active parameters.
func (s *Session) Forecast(firstDay, lastDay int, opts ...ForecastOption) (Points, error) {
	return Forecast(s.Active(), firstDay, lastDay, opts...)
}
