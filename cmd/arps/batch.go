package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/urfave/cli/v2"

	"github.com/arloliu/arps/batch"
	"github.com/arloliu/arps/compress"
	"github.com/arloliu/arps/decline"
	"github.com/arloliu/arps/export"
	"github.com/arloliu/arps/ingest"
	"github.com/arloliu/arps/internal/config"
	"github.com/arloliu/arps/series"
)

// Output file names, before the compression extension.
const (
	forecastFile   = "forecast.csv"
	parametersFile = "parameters.csv"
)

// =============================================================================
// BATCH COMMAND
// =============================================================================

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Fit and forecast every well of a source",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory (defaults to export.dir from the config)",
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Concurrent fits (0 = GOMAXPROCS)",
				EnvVars: []string{"ARPS_WORKERS"},
			},
			&cli.StringFlag{
				Name:  "compression",
				Usage: "Output compression (none, zstd, s2, lz4)",
			},
		},
		Action: runBatch,
	}
}

func runBatch(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	if c.IsSet("workers") {
		e.cfg.Batch.Workers = c.Int("workers")
	}
	if c.IsSet("compression") {
		e.cfg.Export.Compression = c.String("compression")
	}
	if c.IsSet("out") {
		e.cfg.Export.Dir = c.String("out")
	}
	if c.IsSet("input") {
		e.cfg.Source.Kind = config.SourceCSV
		e.cfg.Source.Path = c.String("input")
	}

	typ, err := e.cfg.CompressionType()
	if err != nil {
		return err
	}

	est, err := decline.NewEstimator(e.cfg.EstimatorOptions()...)
	if err != nil {
		return err
	}

	runner, err := batch.NewRunner(batch.Config{
		Workers:   e.cfg.Batch.Workers,
		Estimator: est,
		Forecast:  e.cfg.ForecastConfig(),
	}, e.logger)
	if err != nil {
		return err
	}

	src, closeSource, err := e.openSource(c.Context)
	if err != nil {
		return err
	}
	defer closeSource()

	report, err := runner.RunSource(c.Context, src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(e.cfg.Export.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	forecastPath := filepath.Join(e.cfg.Export.Dir, forecastFile+typ.Extension())
	if err := e.writeOutput(forecastPath, typ, func(cw *export.CompressWriter) error {
		fw, err := export.NewForecastWriter(cw, e.cfg.ExportOptions()...)
		if err != nil {
			return err
		}
		if err := report.Export(fw, nil); err != nil {
			return err
		}

		return fw.Close()
	}); err != nil {
		return err
	}

	parametersPath := filepath.Join(e.cfg.Export.Dir, parametersFile+typ.Extension())
	if err := e.writeOutput(parametersPath, typ, func(cw *export.CompressWriter) error {
		pw, err := export.NewParameterWriter(cw, e.cfg.ExportOptions()...)
		if err != nil {
			return err
		}
		if err := report.Export(nil, pw); err != nil {
			return err
		}

		return pw.Close()
	}); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "run %s: %d wells (%d fitted, %d fallback), total forecast volume %.1f\n",
		report.RunID, len(report.Wells), report.Fitted, report.Fallback, report.TotalVolume())
	fmt.Fprintf(c.App.Writer, "wrote %s\nwrote %s\n", forecastPath, parametersPath)

	return nil
}

// writeOutput creates path, lets fill render into a compressing writer and
// flushes the compressed payload to disk.
func (e *env) writeOutput(path string, typ compress.Type, fill func(*export.CompressWriter) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw, err := export.Compress(f, typ)
	if err != nil {
		return err
	}
	if err := fill(cw); err != nil {
		cw.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	stats := cw.Stats()
	e.logger.Info("output written",
		"path", path,
		"compression", stats.Algorithm.String(),
		"bytes", stats.CompressedSize,
		"savings_pct", stats.SpaceSavings(),
	)

	return f.Close()
}

// openSource returns the configured production source and a function that
// releases it.
func (e *env) openSource(ctx context.Context) (ingest.Source, func(), error) {
	switch e.cfg.Source.Kind {
	case config.SourceSQL:
		db, err := sql.Open(e.cfg.Source.Driver, e.cfg.Source.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		src, err := ingest.NewSQLSource(db, e.cfg.SQLConfig())
		if err != nil {
			db.Close()
			return nil, nil, err
		}

		return src, func() { db.Close() }, nil
	default:
		wells, err := e.readCSV(ctx, e.cfg.Source.Path)
		if err != nil {
			return nil, nil, err
		}

		return staticSource(wells), func() {}, nil
	}
}

// staticSource serves wells that were already read.
type staticSource []series.Well

func (s staticSource) Wells(context.Context) ([]series.Well, error) {
	return s, nil
}
