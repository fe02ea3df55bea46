package decline

import (
	"fmt"
	"math"

	"github.com/arloliu/arps/errs"
)

const (
	// BEpsilon is the smallest b exponent the estimator will fit. Below it the
	// model is evaluated with its exponential limit.
	BEpsilon = 1e-6

	// MaxDi is the upper bound of the nominal decline rate, in 1/day.
	MaxDi = 15.0
	// MaxB is the upper bound of the hyperbolic exponent.
	MaxB = 1.5

	// DefaultMinSamples is the number of usable samples required to attempt a fit.
	DefaultMinSamples = 3
)

// Parameters are the Modified Hyperbolic Arps coefficients.
type Parameters struct {
	// Qi is the initial rate at t = 0.
	Qi float64
	// Di is the initial nominal decline rate, in 1/day.
	Di float64
	// B is the hyperbolic exponent.
	B float64
}

// DefaultFallback returns the parameters reported when a fit fails.
func DefaultFallback() Parameters {
	return Parameters{Qi: 500, Di: 0.01, B: 0.5}
}

// String implements fmt.Stringer.
func (p Parameters) String() string {
	return fmt.Sprintf("qi=%.4f di=%.6f b=%.4f", p.Qi, p.Di, p.B)
}

func (p Parameters) vector() []float64 {
	return []float64{p.Qi, p.Di, p.B}
}

func fromVector(v []float64) Parameters {
	return Parameters{Qi: v[0], Di: v[1], B: v[2]}
}

// Bounds is a closed box on each parameter. Upper values may be +Inf.
type Bounds struct {
	Lower Parameters
	Upper Parameters
}

// DefaultBounds returns the bounds the estimator fits within:
// qi in [0, +Inf), Di in [0, 15], b in [BEpsilon, 1.5].
func DefaultBounds() Bounds {
	return Bounds{
		Lower: Parameters{Qi: 0, Di: 0, B: BEpsilon},
		Upper: Parameters{Qi: math.Inf(1), Di: MaxDi, B: MaxB},
	}
}

// validationBounds returns b with the b lower bound widened to 0, so that
// user-supplied and forecast parameters may use the exponential limit.
func (b Bounds) validationBounds() Bounds {
	out := b
	out.Lower.B = math.Min(out.Lower.B, 0)

	return out
}

// Validate reports an errs.ErrInvalidBounds error when any bound is NaN,
// a lower bound is infinite or negative, or a lower bound exceeds its upper
// bound.
func (b Bounds) Validate() error {
	check := func(name string, lo, hi float64) error {
		switch {
		case math.IsNaN(lo) || math.IsNaN(hi):
			return fmt.Errorf("%w: %s bound is NaN", errs.ErrInvalidBounds, name)
		case math.IsInf(lo, 0) || lo < 0:
			return fmt.Errorf("%w: %s lower bound %v", errs.ErrInvalidBounds, name, lo)
		case lo > hi:
			return fmt.Errorf("%w: %s lower bound %v exceeds upper bound %v", errs.ErrInvalidBounds, name, lo, hi)
		}

		return nil
	}

	if err := check("qi", b.Lower.Qi, b.Upper.Qi); err != nil {
		return err
	}
	if err := check("di", b.Lower.Di, b.Upper.Di); err != nil {
		return err
	}

	return check("b", b.Lower.B, b.Upper.B)
}

// Contains reports whether every coefficient of p is finite and inside b.
func (b Bounds) Contains(p Parameters) bool {
	return b.check(p) == nil
}

// check returns a description of the first coefficient outside b.
func (b Bounds) check(p Parameters) error {
	fields := []struct {
		name      string
		v, lo, hi float64
	}{
		{"qi", p.Qi, b.Lower.Qi, b.Upper.Qi},
		{"di", p.Di, b.Lower.Di, b.Upper.Di},
		{"b", p.B, b.Lower.B, b.Upper.B},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s=%v is not finite", f.name, f.v)
		}
		if f.v < f.lo || f.v > f.hi {
			return fmt.Errorf("%s=%v outside [%v, %v]", f.name, f.v, f.lo, f.hi)
		}
	}

	return nil
}
