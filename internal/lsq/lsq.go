// Package lsq solves small box-constrained nonlinear least-squares problems.
//
// The solver is a projected Levenberg–Marquardt iteration with Marquardt
// diagonal scaling. Parameters held at a bound by the gradient are frozen for
// the step, and every trial point is projected onto the bounds before it is
// evaluated, so iterates never leave the feasible box.
package lsq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/arps/errs"
)

const (
	minDamping = 1e-12
	// diagFloorRatio keeps the scaled system positive definite when a Jacobian
	// column vanishes (e.g. all samples on the same day).
	diagFloorRatio = 1e-15
)

// Problem describes min Σ (Y[i] − Model(params, T[i]))² subject to
// Lower ≤ params ≤ Upper.
type Problem struct {
	// T holds the independent variable of each observation.
	T []float64
	// Y holds the observed values.
	Y []float64
	// Lower and Upper bound each parameter. Infinite bounds are allowed.
	Lower, Upper []float64
	// Model evaluates the model at t.
	Model func(params []float64, t float64) float64
	// Gradient writes ∂Model/∂params at t into dst.
	Gradient func(params []float64, t float64, dst []float64)
}

// Settings controls termination.
type Settings struct {
	// MaxIterations caps the number of trial steps, accepted or not.
	MaxIterations int
	// FTol is the relative cost reduction below which an accepted step ends
	// the iteration.
	FTol float64
	// XTol is the relative per-parameter step size below which the iteration
	// ends.
	XTol float64
	// InitialDamping is the starting Levenberg–Marquardt damping factor.
	InitialDamping float64
}

// DefaultSettings returns the settings used by the decline estimator.
func DefaultSettings() Settings {
	return Settings{
		MaxIterations:  400,
		FTol:           1e-10,
		XTol:           1e-10,
		InitialDamping: 1e-3,
	}
}

// Result is a converged solution.
type Result struct {
	// Params is the solution, inside the bounds.
	Params []float64
	// Cost is ½ Σ residual² at Params.
	Cost float64
	// Iterations is the number of trial steps taken.
	Iterations int
}

// Solve minimizes the problem starting from x0.
//
// x0 is projected onto the bounds first. Solve returns errs.ErrMaxIterations
// when the budget is exhausted and errs.ErrNonFinite when the cost or the
// Jacobian cannot be evaluated at the starting point.
func Solve(p Problem, x0 []float64, s Settings) (Result, error) {
	if err := p.validate(len(x0)); err != nil {
		return Result{}, err
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = DefaultSettings().MaxIterations
	}
	if s.InitialDamping <= 0 {
		s.InitialDamping = DefaultSettings().InitialDamping
	}

	n, m := len(x0), len(p.T)

	x := make([]float64, n)
	copy(x, x0)
	p.project(x)

	resid := make([]float64, m)
	cost := p.cost(x, resid)
	if !isFinite(cost) {
		return Result{}, fmt.Errorf("%w: initial cost %v", errs.ErrNonFinite, cost)
	}

	var (
		jac     = mat.NewDense(m, n, nil)
		grad    = make([]float64, n)
		active  = make([]bool, n)
		normal  = mat.NewSymDense(n, nil)
		gvec    mat.VecDense
		damped  = mat.NewSymDense(n, nil)
		chol    mat.Cholesky
		step    mat.VecDense
		cand    = make([]float64, n)
		candRes = make([]float64, m)
		lambda  = s.InitialDamping
		iter    = 0
	)

	for {
		if cost == 0 {
			return Result{Params: x, Cost: cost, Iterations: iter}, nil
		}

		if !p.jacobian(x, jac, grad) {
			return Result{}, fmt.Errorf("%w: jacobian at %v", errs.ErrNonFinite, x)
		}

		normalEquations(jac, normal)
		gvec.MulVec(jac.T(), mat.NewVecDense(m, resid))

		maxDiag := 0.0
		for j := 0; j < n; j++ {
			maxDiag = math.Max(maxDiag, normal.At(j, j))
		}
		floor := math.Max(maxDiag*diagFloorRatio, math.SmallestNonzeroFloat64)

		// A parameter pinned at a bound with the descent direction pointing
		// outward is held fixed for this step.
		for j := 0; j < n; j++ {
			g := gvec.AtVec(j)
			active[j] = (x[j] <= p.Lower[j] && g < 0) || (x[j] >= p.Upper[j] && g > 0)
			if active[j] {
				gvec.SetVec(j, 0)
			}
		}

		accepted := false
		for !accepted {
			iter++
			if iter > s.MaxIterations {
				return Result{}, fmt.Errorf("%w: %d trial steps, cost %g", errs.ErrMaxIterations, s.MaxIterations, cost)
			}

			damped.CopySym(normal)
			for j := 0; j < n; j++ {
				d := normal.At(j, j)
				damped.SetSym(j, j, d+lambda*math.Max(d, floor))
			}
			for j := 0; j < n; j++ {
				if !active[j] {
					continue
				}
				for k := 0; k < n; k++ {
					damped.SetSym(j, k, 0)
				}
				damped.SetSym(j, j, 1)
			}

			if ok := chol.Factorize(damped); !ok {
				lambda *= 10
				continue
			}
			if err := chol.SolveVecTo(&step, &gvec); err != nil {
				lambda *= 10
				continue
			}

			for j := 0; j < n; j++ {
				cand[j] = x[j] + step.AtVec(j)
			}
			p.project(cand)

			if smallStep(x, cand, s.XTol) {
				return Result{Params: x, Cost: cost, Iterations: iter}, nil
			}

			candCost := p.cost(cand, candRes)
			if !isFinite(candCost) || candCost >= cost {
				lambda *= 10
				continue
			}

			reduction := cost - candCost
			prevCost := cost
			copy(x, cand)
			copy(resid, candRes)
			cost = candCost
			lambda = math.Max(lambda/10, minDamping)
			accepted = true

			if reduction <= s.FTol*prevCost {
				return Result{Params: x, Cost: cost, Iterations: iter}, nil
			}
		}
	}
}

func (p Problem) validate(n int) error {
	switch {
	case n == 0:
		return fmt.Errorf("%w: no parameters", errs.ErrInvalidOption)
	case len(p.T) == 0 || len(p.T) != len(p.Y):
		return fmt.Errorf("%w: %d inputs vs %d observations", errs.ErrInvalidOption, len(p.T), len(p.Y))
	case len(p.Lower) != n || len(p.Upper) != n:
		return fmt.Errorf("%w: bounds length %d/%d, want %d", errs.ErrInvalidBounds, len(p.Lower), len(p.Upper), n)
	case p.Model == nil || p.Gradient == nil:
		return fmt.Errorf("%w: model and gradient are required", errs.ErrInvalidOption)
	}
	for j := 0; j < n; j++ {
		if math.IsNaN(p.Lower[j]) || math.IsNaN(p.Upper[j]) || p.Lower[j] > p.Upper[j] {
			return fmt.Errorf("%w: parameter %d has [%v, %v]", errs.ErrInvalidBounds, j, p.Lower[j], p.Upper[j])
		}
	}

	return nil
}

func (p Problem) project(x []float64) {
	for j := range x {
		x[j] = math.Min(math.Max(x[j], p.Lower[j]), p.Upper[j])
	}
}

// cost fills resid with Y − Model and returns ½ Σ resid².
func (p Problem) cost(x, resid []float64) float64 {
	for i, t := range p.T {
		resid[i] = p.Y[i] - p.Model(x, t)
	}

	return 0.5 * floats.Dot(resid, resid)
}

// jacobian fills jac with ∂Model/∂x for every observation and reports whether
// every entry is finite.
func (p Problem) jacobian(x []float64, jac *mat.Dense, row []float64) bool {
	for i, t := range p.T {
		p.Gradient(x, t, row)
		for j, v := range row {
			if !isFinite(v) {
				return false
			}
			jac.Set(i, j, v)
		}
	}

	return true
}

// normalEquations writes JᵀJ into dst.
func normalEquations(jac *mat.Dense, dst *mat.SymDense) {
	m, n := jac.Dims()
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			sum := 0.0
			for i := 0; i < m; i++ {
				sum += jac.At(i, a) * jac.At(i, b)
			}
			dst.SetSym(a, b, sum)
		}
	}
}

// smallStep reports whether every component moved less than xtol relative to
// its magnitude.
func smallStep(x, cand []float64, xtol float64) bool {
	for j := range x {
		if math.Abs(cand[j]-x[j]) > xtol*(math.Abs(x[j])+xtol) {
			return false
		}
	}

	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
