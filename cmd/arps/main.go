// arps fits Arps decline curves to well production histories and forecasts
// future rates.
//
// Usage:
//
//	arps fit --input production.csv --well 33-053-02102
//	arps forecast --input production.csv --well 33-053-02102 --b 0.9
//	arps batch --input production.csv --out results/
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/arloliu/arps/internal/config"
	"github.com/arloliu/arps/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "arps",
		Usage:     "Arps decline curve fitting and production forecasting",
		Version:   fmt.Sprintf("%s (commit: %s)", version, commit),
		Writer:    stdout,
		ErrWriter: stderr,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"ARPS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"ARPS_LOG_LEVEL"},
			},
		},

		Commands: []*cli.Command{
			fitCommand(),
			forecastCommand(),
			batchCommand(),
		},
	}
}

// env is what every command needs: the loaded config and a logger.
type env struct {
	cfg    config.Config
	logger *slog.Logger
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}

	logger := logging.New(c.App.ErrWriter, cfg.Logging.Level)

	return &env{cfg: cfg, logger: logger.With("component", "cli", "command", c.Command.Name)}, nil
}
