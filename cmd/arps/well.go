package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/arloliu/arps"
	"github.com/arloliu/arps/decline"
	"github.com/arloliu/arps/export"
	"github.com/arloliu/arps/ingest"
	"github.com/arloliu/arps/series"
)

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Production CSV file (defaults to source.path from the config)",
	}
}

func wellFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "well",
		Aliases:  []string{"w"},
		Usage:    "Well identifier",
		Required: true,
	}
}

// =============================================================================
// FIT COMMAND
// =============================================================================

func fitCommand() *cli.Command {
	return &cli.Command{
		Name:   "fit",
		Usage:  "Fit decline parameters for one well",
		Flags:  []cli.Flag{inputFlag(), wellFlag()},
		Action: runFit,
	}
}

func runFit(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}

	well, est, err := e.loadWell(c.Context, c.String("input"), c.String("well"))
	if err != nil {
		return err
	}

	fit := arps.Fit(well, est)
	e.logger.Debug("fit finished", "well", well.ID, "success", fit.Success, "iterations", fit.Iterations)

	fmt.Fprintf(c.App.Writer, "%s\t%s\n", well.ID, fit)

	return nil
}

// =============================================================================
// FORECAST COMMAND
// =============================================================================

func forecastCommand() *cli.Command {
	return &cli.Command{
		Name:  "forecast",
		Usage: "Forecast one well, optionally overriding fitted parameters",
		Flags: []cli.Flag{
			inputFlag(),
			wellFlag(),
			&cli.Float64Flag{Name: "qi", Usage: "Override the initial rate"},
			&cli.Float64Flag{Name: "di", Usage: "Override the initial decline rate (1/day)"},
			&cli.Float64Flag{Name: "b", Usage: "Override the b-factor"},
			&cli.BoolFlag{Name: "reset", Usage: "Discard overrides and forecast with the fitted parameters"},
			&cli.StringFlag{Name: "params", Usage: "Also write the parameter row used by the forecast to this CSV file"},
		},
		Action: runForecast,
	}
}

func runForecast(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}

	well, est, err := e.loadWell(c.Context, c.String("input"), c.String("well"))
	if err != nil {
		return err
	}

	session := decline.NewSession(arps.Fit(well, est), e.cfg.Bounds())

	if c.IsSet("qi") || c.IsSet("di") || c.IsSet("b") {
		p := session.Active()
		if c.IsSet("qi") {
			p.Qi = c.Float64("qi")
		}
		if c.IsSet("di") {
			p.Di = c.Float64("di")
		}
		if c.IsSet("b") {
			p.B = c.Float64("b")
		}
		if err := session.Override(p); err != nil {
			return err
		}
	}
	if c.Bool("reset") {
		session.Reset()
	}

	e.logger.Info("forecasting well",
		"well", well.ID,
		"source", session.Source().String(),
		"params", session.Active().String(),
	)

	first, last, ok := series.DayRange(well.Samples)
	if !ok {
		first, last = 0, 0
	}

	points, err := session.Forecast(first, last, decline.WithForecastConfig(e.cfg.ForecastConfig()))
	if err != nil {
		return err
	}

	fw, err := export.NewForecastWriter(c.App.Writer, e.cfg.ExportOptions()...)
	if err != nil {
		return err
	}
	if err := fw.Write(well.ID, points); err != nil {
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}

	if path := c.String("params"); path != "" {
		return e.writeParams(path, export.RowFromSession(well.ID, session))
	}

	return nil
}

// writeParams writes a single-row parameter export to path.
func (e *env) writeParams(path string, row export.ParameterRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	pw, err := export.NewParameterWriter(f, e.cfg.ExportOptions()...)
	if err != nil {
		return err
	}
	if err := pw.Write(row); err != nil {
		return err
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}

// loadWell reads the CSV input and returns the named well with the
// configured estimator.
func (e *env) loadWell(ctx context.Context, input, id string) (series.Well, *decline.Estimator, error) {
	est, err := decline.NewEstimator(e.cfg.EstimatorOptions()...)
	if err != nil {
		return series.Well{}, nil, err
	}

	wells, err := e.readCSV(ctx, input)
	if err != nil {
		return series.Well{}, nil, err
	}

	id = strings.TrimSpace(id)
	for _, w := range wells {
		if w.ID == id {
			return w, est, nil
		}
	}

	return series.Well{}, nil, fmt.Errorf("well %q not found in input", id)
}

func (e *env) readCSV(ctx context.Context, input string) ([]series.Well, error) {
	if input == "" {
		input = e.cfg.Source.Path
	}
	if input == "" {
		return nil, fmt.Errorf("no input: pass --input or set source.path")
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	src, err := ingest.NewCSVSource(f, e.cfg.CSVOptions()...)
	if err != nil {
		return nil, err
	}

	wells, err := src.Wells(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}
	e.logger.Debug("input loaded", "path", input, "wells", len(wells))

	return wells, nil
}
