// Package batch fits and forecasts many wells concurrently.
//
// A Runner hands wells to a fixed pool of workers and collects one
// arps.WellForecast per well, in input order. A well whose fit fails is
// forecast with the fallback parameters; it never aborts the run.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/arps"
	"github.com/arloliu/arps/decline"
	"github.com/arloliu/arps/export"
	"github.com/arloliu/arps/ingest"
	"github.com/arloliu/arps/internal/collision"
	"github.com/arloliu/arps/series"
)

// Config configures a Runner.
type Config struct {
	// Workers is the number of concurrent fits. Zero uses GOMAXPROCS.
	Workers int
	// Estimator fits each well. Nil uses the default estimator.
	Estimator *decline.Estimator
	// Forecast sets the grid cadence and horizon.
	Forecast decline.ForecastConfig
}

// DefaultConfig returns a config with GOMAXPROCS workers, the default
// estimator and the default forecast grid.
func DefaultConfig() Config {
	return Config{Forecast: decline.DefaultForecastConfig()}
}

// Report is the outcome of a batch run.
type Report struct {
	// RunID identifies the run in logs.
	RunID string
	// Started and Finished bracket the run.
	Started, Finished time.Time
	// Wells holds one forecast per input well, in input order.
	Wells []arps.WellForecast
	// Fitted and Fallback count successful and failed fits.
	Fitted, Fallback int
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// TotalVolume sums the forecast volume of every well.
func (r *Report) TotalVolume() float64 {
	total := 0.0
	for _, w := range r.Wells {
		total += w.Volume
	}

	return total
}

// Export writes every well's forecast to fw and its parameters to pw.
// Either writer may be nil.
func (r *Report) Export(fw *export.ForecastWriter, pw *export.ParameterWriter) error {
	for _, w := range r.Wells {
		if fw != nil {
			if err := fw.Write(w.ID, w.Points); err != nil {
				return fmt.Errorf("write forecast of %s: %w", w.ID, err)
			}
		}
		if pw != nil {
			if err := pw.Write(export.RowFromFit(w.ID, w.Fit)); err != nil {
				return fmt.Errorf("write parameters of %s: %w", w.ID, err)
			}
		}
	}

	return nil
}

// Runner runs batch forecasts. It is safe for concurrent use.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// NewRunner validates cfg and returns a runner. A nil logger uses
// slog.Default.
func NewRunner(cfg Config, logger *slog.Logger) (*Runner, error) {
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Forecast == (decline.ForecastConfig{}) {
		cfg.Forecast = decline.DefaultForecastConfig()
	}
	if err := cfg.Forecast.Validate(); err != nil {
		return nil, fmt.Errorf("forecast config: %w", err)
	}
	if cfg.Estimator == nil {
		est, err := decline.NewEstimator()
		if err != nil {
			return nil, err
		}
		cfg.Estimator = est
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{cfg: cfg, logger: logger.With("component", "batch")}, nil
}

// Workers returns the effective worker count.
func (r *Runner) Workers() int {
	return r.cfg.Workers
}

// claimWells checks that each well ID appears once.
func claimWells(wells []series.Well) error {
	tracker := collision.NewTracker()
	for _, w := range wells {
		if _, err := tracker.Claim(w.ID, w.Key()); err != nil {
			return fmt.Errorf("well %q: %w", w.ID, err)
		}
	}

	return nil
}

// RunSource loads wells from src and runs them.
func (r *Runner) RunSource(ctx context.Context, src ingest.Source) (*Report, error) {
	wells, err := src.Wells(ctx)
	if err != nil {
		return nil, fmt.Errorf("load wells: %w", err)
	}

	return r.Run(ctx, wells)
}

// Run fits and forecasts every well. It returns ctx.Err() if the context is
// canceled before all wells are done.
//
// Every well needs a distinct, non-empty ID; a repeated ID fails the run with
// errs.ErrDuplicateWell before any fit starts.
func (r *Runner) Run(ctx context.Context, wells []series.Well) (*Report, error) {
	if err := claimWells(wells); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Wells:   make([]arps.WellForecast, len(wells)),
	}
	logger := r.logger.With("run_id", report.RunID)
	logger.Info("batch started", "wells", len(wells), "workers", r.cfg.Workers)

	jobs := make(chan int)
	errCh := make(chan error, r.cfg.Workers)

	var wg sync.WaitGroup
	for range min(r.cfg.Workers, max(len(wells), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := r.runWell(logger, wells[i], &report.Wells[i]); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}

	runErr := r.dispatch(ctx, jobs, errCh, len(wells))
	close(jobs)
	wg.Wait()
	close(errCh)

	if runErr == nil {
		runErr = <-errCh
	}
	if runErr != nil {
		logger.Warn("batch aborted", "error", runErr)
		return nil, runErr
	}

	for _, w := range report.Wells {
		if w.Fit.Success {
			report.Fitted++
		} else {
			report.Fallback++
		}
	}
	report.Finished = time.Now()

	logger.Info("batch finished",
		"fitted", report.Fitted,
		"fallback", report.Fallback,
		"duration", report.Duration(),
	)

	return report, nil
}

// dispatch feeds well indexes to the workers until done, canceled or a
// worker fails.
func (r *Runner) dispatch(ctx context.Context, jobs chan<- int, errCh <-chan error, n int) error {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case jobs <- i:
		}
	}

	return ctx.Err()
}

func (r *Runner) runWell(logger *slog.Logger, w series.Well, dst *arps.WellForecast) error {
	wf, err := arps.ForecastWell(w, r.cfg.Estimator, r.cfg.Forecast)
	if err != nil {
		return fmt.Errorf("forecast well %s: %w", w.ID, err)
	}
	*dst = wf

	if wf.Fit.Success {
		logger.Debug("well fitted",
			"well", w.ID,
			"params", wf.Fit.Params.String(),
			"rmse", wf.Fit.RMSE,
			"iterations", wf.Fit.Iterations,
		)
	} else {
		logger.Debug("well fit failed, using fallback",
			"well", w.ID,
			"reason", wf.Fit.Reason.String(),
			"samples", wf.Fit.Samples,
		)
	}

	return nil
}
