package export

import (
	"io"
	"strconv"

	"github.com/arloliu/arps/decline"
)

// ParameterHeader is the header row of parameter exports.
var ParameterHeader = []string{"well_id", "qi", "di", "b", "rmse", "success", "reason", "source", "samples"}

// ParameterRow is one well of a parameter export.
type ParameterRow struct {
	WellID string
	// Fit is the estimator outcome.
	Fit decline.FitResult
	// Params are the parameters the forecast used; they differ from
	// Fit.Params when an override is active.
	Params decline.Parameters
	// Source tells where Params came from.
	Source decline.Source
}

// RowFromFit builds the row of a well forecast with its fitted or fallback
// parameters.
func RowFromFit(wellID string, fit decline.FitResult) ParameterRow {
	src := decline.SourceFitted
	if !fit.Success {
		src = decline.SourceFallback
	}

	return ParameterRow{WellID: wellID, Fit: fit, Params: fit.Params, Source: src}
}

// RowFromSession builds the row of a well from its override session.
func RowFromSession(wellID string, s *decline.Session) ParameterRow {
	return ParameterRow{WellID: wellID, Fit: s.Fit(), Params: s.Active(), Source: s.Source()}
}

// ParameterWriter writes one row per well with its decline parameters.
//
// Parameters are rendered exactly; RMSE uses the configured precision and is
// NA for failed fits.
type ParameterWriter struct {
	t *table
}

// NewParameterWriter creates a parameter writer over w.
func NewParameterWriter(w io.Writer, opts ...Option) (*ParameterWriter, error) {
	t, err := newTable(w, ParameterHeader, opts)
	if err != nil {
		return nil, err
	}

	return &ParameterWriter{t: t}, nil
}

// Write appends one well.
func (pw *ParameterWriter) Write(row ParameterRow) error {
	r, err := pw.t.row()
	if err != nil {
		return err
	}

	r[0] = row.WellID
	r[1] = exact(row.Params.Qi)
	r[2] = exact(row.Params.Di)
	r[3] = exact(row.Params.B)
	r[4] = fixed(row.Fit.RMSE, pw.t.cfg.Precision)
	r[5] = strconv.FormatBool(row.Fit.Success)
	r[6] = row.Fit.Reason.String()
	r[7] = row.Source.String()
	r[8] = strconv.Itoa(row.Fit.Samples)

	return pw.t.writeRecord()
}

// Rows returns the number of data rows written.
func (pw *ParameterWriter) Rows() int {
	return pw.t.rows
}

// Flush writes any buffered rows.
func (pw *ParameterWriter) Flush() error {
	return pw.t.flush()
}

// Close flushes and releases pooled resources. It does not close the
// underlying writer.
func (pw *ParameterWriter) Close() error {
	return pw.t.close()
}
