// Package errs defines the sentinel errors shared by the arps packages.
//
// Callers match them with errors.Is; packages wrap them with additional context
// using fmt.Errorf("...: %w", errs.ErrX).
package errs

import "errors"

// Fit outcomes. The estimator never returns these directly; they are exposed
// through decline.FitResult.Err for callers that prefer an error value.
var (
	// ErrInsufficientData indicates fewer valid samples than the model requires.
	ErrInsufficientData = errors.New("insufficient data for decline fit")
	// ErrFitDivergence indicates the solver failed to converge within bounds.
	ErrFitDivergence = errors.New("decline fit did not converge")
)

// Contract violations returned to the caller.
var (
	// ErrInvalidParameterOverride indicates a user-supplied parameter outside its domain.
	ErrInvalidParameterOverride = errors.New("invalid parameter override")
	// ErrDegenerateForecastInput indicates malformed forecast grid bounds or parameters.
	ErrDegenerateForecastInput = errors.New("degenerate forecast input")
	// ErrInvalidBounds indicates inverted or non-finite parameter bounds.
	ErrInvalidBounds = errors.New("invalid parameter bounds")
	// ErrInvalidOption indicates an option value that cannot be applied.
	ErrInvalidOption = errors.New("invalid option")
)

// Solver errors.
var (
	// ErrMaxIterations indicates the solver exhausted its iteration budget.
	ErrMaxIterations = errors.New("maximum iterations exceeded")
	// ErrNonFinite indicates a NaN or infinite cost, residual or parameter.
	ErrNonFinite = errors.New("non-finite value in solver state")
)

// Ingestion and export errors.
var (
	// ErrHashCollision indicates two distinct well identifiers share a hash key.
	ErrHashCollision = errors.New("well key hash collision")
	// ErrInvalidWellID indicates an empty well identifier.
	ErrInvalidWellID = errors.New("invalid well identifier")
	// ErrDuplicateWell indicates the same well was tracked twice.
	ErrDuplicateWell = errors.New("well already tracked")
	// ErrMissingColumn indicates a required column is absent from tabular input.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnsupportedCompression indicates an unknown compression type.
	ErrUnsupportedCompression = errors.New("unsupported compression type")
)
