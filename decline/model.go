package decline

import "math"

const (
	// seriesThreshold is the |b·Di·t| below which ∂q/∂b uses its Taylor
	// expansion; the closed form cancels catastrophically near zero.
	seriesThreshold = 1e-4
	// harmonicTolerance is the distance from b = 1 inside which Cumulative uses
	// the harmonic closed form.
	harmonicTolerance = 1e-9
)

// Rate evaluates the Modified Hyperbolic Arps rate at elapsed time tau:
//
//	q(τ) = qi · (1 + b·Di·τ)^(−1/b)
//
// For b < BEpsilon the exponential limit qi · exp(−Di·τ) is used.
func Rate(p Parameters, tau float64) float64 {
	if p.B < BEpsilon {
		return p.Qi * math.Exp(-p.Di*tau)
	}

	return p.Qi * math.Exp(-math.Log1p(p.B*p.Di*tau)/p.B)
}

// Cumulative returns the volume produced between elapsed time 0 and tau.
//
// The exponential limit is used for b < BEpsilon and the harmonic form for
// b = 1. A zero decline rate produces qi·tau.
func Cumulative(p Parameters, tau float64) float64 {
	if tau <= 0 || p.Qi == 0 {
		return 0
	}
	if p.Di == 0 {
		return p.Qi * tau
	}

	switch {
	case p.B < BEpsilon:
		return p.Qi / p.Di * -math.Expm1(-p.Di*tau)
	case math.Abs(p.B-1) < harmonicTolerance:
		return p.Qi / p.Di * math.Log1p(p.Di*tau)
	default:
		l := math.Log1p(p.B * p.Di * tau)
		return p.Qi / ((1 - p.B) * p.Di) * -math.Expm1(l-l/p.B)
	}
}

// rateAt is Rate over a solver parameter vector {qi, Di, b}.
func rateAt(v []float64, t float64) float64 {
	return Rate(fromVector(v), t)
}

// gradientAt writes ∂q/∂{qi, Di, b} at t into dst.
func gradientAt(v []float64, t float64, dst []float64) {
	qi, di, b := v[0], v[1], v[2]

	if b < BEpsilon {
		e := math.Exp(-di * t)
		s := di * t
		dst[0] = e
		dst[1] = -qi * t * e
		dst[2] = qi * e * s * s / 2

		return
	}

	x := b * di * t
	l := math.Log1p(x)
	base := math.Exp(-l / b)
	f := qi * base

	dst[0] = base
	dst[1] = -qi * t * base / (1 + x)

	if math.Abs(x) < seriesThreshold {
		s := di * t
		dst[2] = f * s * s * (0.5 - 2*x/3)

		return
	}
	dst[2] = f * (l/(b*b) - di*t/(b*(1+x)))
}
