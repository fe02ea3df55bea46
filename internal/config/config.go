// Package config loads the arps command configuration from YAML and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/arps/compress"
	"github.com/arloliu/arps/decline"
	"github.com/arloliu/arps/export"
	"github.com/arloliu/arps/ingest"
)

const (
	configPathEnv  = "ARPS_CONFIG"
	logLevelEnv    = "ARPS_LOG_LEVEL"
	databaseDSNEnv = "ARPS_DATABASE_DSN"
	workersEnv     = "ARPS_WORKERS"
)

// Source kinds.
const (
	SourceCSV = "csv"
	SourceSQL = "sql"
)

// Config holds every setting of the arps command.
type Config struct {
	Logging  LoggingConfig `yaml:"logging"`
	Fit      FitConfig     `yaml:"fit"`
	Forecast GridConfig    `yaml:"forecast"`
	Source   SourceConfig  `yaml:"source"`
	Export   ExportConfig  `yaml:"export"`
	Batch    BatchConfig   `yaml:"batch"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FitConfig tunes the decline estimator.
type FitConfig struct {
	Bounds        BoundsConfig `yaml:"bounds"`
	Fallback      ParamsConfig `yaml:"fallback"`
	MinSamples    int          `yaml:"min_samples"`
	MaxIterations int          `yaml:"max_iterations"`
}

// BoundsConfig narrows the fit box. Zero values keep the defaults; qi_max
// defaults to unbounded.
type BoundsConfig struct {
	QiMax float64 `yaml:"qi_max"`
	DiMax float64 `yaml:"di_max"`
	BMin  float64 `yaml:"b_min"`
	BMax  float64 `yaml:"b_max"`
}

// ParamsConfig is a parameter triple. Unset fields keep the default value;
// an explicit 0 is kept, so b: 0 selects exponential decline.
type ParamsConfig struct {
	Qi *float64 `yaml:"qi"`
	Di *float64 `yaml:"di"`
	B  *float64 `yaml:"b"`
}

// parameters fills the unset fields of p from def.
func (p ParamsConfig) parameters(def decline.Parameters) decline.Parameters {
	if p.Qi != nil {
		def.Qi = *p.Qi
	}
	if p.Di != nil {
		def.Di = *p.Di
	}
	if p.B != nil {
		def.B = *p.B
	}

	return def
}

// GridConfig sets the forecast cadence and horizon.
type GridConfig struct {
	StepDays    int  `yaml:"step_days"`
	HorizonDays *int `yaml:"horizon_days"`
}

// SourceConfig selects where production histories come from.
type SourceConfig struct {
	Kind    string         `yaml:"kind"`
	Path    string         `yaml:"path"`
	Driver  string         `yaml:"driver"`
	DSN     string         `yaml:"dsn"`
	Table   string         `yaml:"table"`
	Columns ingest.Columns `yaml:"columns"`
	// Status is the well status filter; an explicit empty string disables it.
	Status *string `yaml:"status"`
}

// ExportConfig controls batch output files.
type ExportConfig struct {
	Dir         string `yaml:"dir"`
	Compression string `yaml:"compression"`
	Precision   *int   `yaml:"precision"`
}

// BatchConfig sizes the worker pool. Zero uses GOMAXPROCS.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path falls back to ARPS_CONFIG; with neither set only
// defaults and environment are used. The result is validated.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		fileCfg, err := Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Parse decodes a YAML document without applying defaults. Unknown keys are
// rejected.
func Parse(raw []byte) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Source.DSN = v
	}

	if v := os.Getenv(workersEnv); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", workersEnv, err)
		}
		c.Batch.Workers = n
	}

	return nil
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Fit.Bounds.QiMax != 0 {
		base.Fit.Bounds.QiMax = override.Fit.Bounds.QiMax
	}
	if override.Fit.Bounds.DiMax != 0 {
		base.Fit.Bounds.DiMax = override.Fit.Bounds.DiMax
	}
	if override.Fit.Bounds.BMin != 0 {
		base.Fit.Bounds.BMin = override.Fit.Bounds.BMin
	}
	if override.Fit.Bounds.BMax != 0 {
		base.Fit.Bounds.BMax = override.Fit.Bounds.BMax
	}
	if override.Fit.Fallback.Qi != nil {
		base.Fit.Fallback.Qi = override.Fit.Fallback.Qi
	}
	if override.Fit.Fallback.Di != nil {
		base.Fit.Fallback.Di = override.Fit.Fallback.Di
	}
	if override.Fit.Fallback.B != nil {
		base.Fit.Fallback.B = override.Fit.Fallback.B
	}
	if override.Fit.MinSamples != 0 {
		base.Fit.MinSamples = override.Fit.MinSamples
	}
	if override.Fit.MaxIterations != 0 {
		base.Fit.MaxIterations = override.Fit.MaxIterations
	}

	if override.Forecast.StepDays != 0 {
		base.Forecast.StepDays = override.Forecast.StepDays
	}
	if override.Forecast.HorizonDays != nil {
		base.Forecast.HorizonDays = override.Forecast.HorizonDays
	}

	if override.Source.Kind != "" {
		base.Source.Kind = override.Source.Kind
	}
	if override.Source.Path != "" {
		base.Source.Path = override.Source.Path
	}
	if override.Source.Driver != "" {
		base.Source.Driver = override.Source.Driver
	}
	if override.Source.DSN != "" {
		base.Source.DSN = override.Source.DSN
	}
	if override.Source.Table != "" {
		base.Source.Table = override.Source.Table
	}
	if override.Source.Columns != (ingest.Columns{}) {
		base.Source.Columns = mergeColumns(base.Source.Columns, override.Source.Columns)
	}
	if override.Source.Status != nil {
		base.Source.Status = override.Source.Status
	}

	if override.Export.Dir != "" {
		base.Export.Dir = override.Export.Dir
	}
	if override.Export.Compression != "" {
		base.Export.Compression = override.Export.Compression
	}
	if override.Export.Precision != nil {
		base.Export.Precision = override.Export.Precision
	}

	if override.Batch.Workers != 0 {
		base.Batch.Workers = override.Batch.Workers
	}

	return base
}

func mergeColumns(base, override ingest.Columns) ingest.Columns {
	if override.Well != "" {
		base.Well = override.Well
	}
	if override.Day != "" {
		base.Day = override.Day
	}
	if override.Rate != "" {
		base.Rate = override.Rate
	}
	if override.Status != "" {
		base.Status = override.Status
	}

	return base
}

func defaultConfig() Config {
	bounds := decline.DefaultBounds()
	fallback := decline.DefaultFallback()
	grid := decline.DefaultForecastConfig()
	est := defaultEstimatorConfig()

	return Config{
		Logging: LoggingConfig{Level: "info"},
		Fit: FitConfig{
			Bounds: BoundsConfig{
				QiMax: bounds.Upper.Qi,
				DiMax: bounds.Upper.Di,
				BMin:  bounds.Lower.B,
				BMax:  bounds.Upper.B,
			},
			Fallback:      ParamsConfig{Qi: ptr(fallback.Qi), Di: ptr(fallback.Di), B: ptr(fallback.B)},
			MinSamples:    est.MinSamples,
			MaxIterations: est.MaxIterations,
		},
		Forecast: GridConfig{StepDays: grid.StepDays, HorizonDays: ptr(grid.HorizonDays)},
		Source: SourceConfig{
			Kind:    SourceCSV,
			Columns: ingest.DefaultColumns(),
			Status:  ptr(ingest.DefaultStatus),
		},
		Export: ExportConfig{
			Dir:         ".",
			Compression: compress.TypeNone.String(),
			Precision:   ptr(export.DefaultPrecision),
		},
	}
}

func defaultEstimatorConfig() decline.EstimatorConfig {
	est, _ := decline.NewEstimator()
	return est.Config()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.Bounds().Validate(); err != nil {
		return fmt.Errorf("fit.bounds: %w", err)
	}
	if _, err := decline.NewEstimator(c.EstimatorOptions()...); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	if err := c.ForecastConfig().Validate(); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}

	switch c.Source.Kind {
	case SourceCSV:
	case SourceSQL:
		if c.Source.DSN == "" {
			return fmt.Errorf("source: sql source requires a dsn")
		}
		if c.Source.Table == "" {
			return fmt.Errorf("source: sql source requires a table")
		}
		switch c.Source.Driver {
		case ingest.DriverPostgres, ingest.DriverMySQL, ingest.DriverSQLite:
		default:
			return fmt.Errorf("source: unsupported driver %q", c.Source.Driver)
		}
	default:
		return fmt.Errorf("source: unknown kind %q", c.Source.Kind)
	}

	if _, err := c.CompressionType(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if p := c.precision(); p < 0 || p > export.MaxPrecision {
		return fmt.Errorf("export: precision %d outside [0, %d]", p, export.MaxPrecision)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch: workers must not be negative, got %d", c.Batch.Workers)
	}

	return nil
}

// Bounds returns the fit box.
func (c Config) Bounds() decline.Bounds {
	b := decline.DefaultBounds()
	b.Upper.Qi = c.Fit.Bounds.QiMax
	if b.Upper.Qi == 0 {
		b.Upper.Qi = math.Inf(1)
	}
	b.Upper.Di = c.Fit.Bounds.DiMax
	b.Lower.B = c.Fit.Bounds.BMin
	b.Upper.B = c.Fit.Bounds.BMax

	return b
}

// EstimatorOptions translates the fit section into estimator options.
func (c Config) EstimatorOptions() []decline.EstimatorOption {
	return []decline.EstimatorOption{
		decline.WithBounds(c.Bounds()),
		decline.WithFallback(c.Fallback()),
		decline.WithMinSamples(c.Fit.MinSamples),
		decline.WithMaxIterations(c.Fit.MaxIterations),
	}
}

// Fallback returns the parameters used when a fit fails.
func (c Config) Fallback() decline.Parameters {
	return c.Fit.Fallback.parameters(decline.DefaultFallback())
}

// ForecastConfig returns the forecast grid settings.
func (c Config) ForecastConfig() decline.ForecastConfig {
	fc := decline.ForecastConfig{StepDays: c.Forecast.StepDays, HorizonDays: decline.DefaultHorizonDays}
	if c.Forecast.HorizonDays != nil {
		fc.HorizonDays = *c.Forecast.HorizonDays
	}

	return fc
}

// CompressionType parses export.compression.
func (c Config) CompressionType() (compress.Type, error) {
	return compress.ParseType(c.Export.Compression)
}

// ExportOptions returns the writer options of the export section.
func (c Config) ExportOptions() []export.Option {
	return []export.Option{export.WithPrecision(c.precision())}
}

func (c Config) precision() int {
	if c.Export.Precision == nil {
		return export.DefaultPrecision
	}

	return *c.Export.Precision
}

// StatusFilter returns the well status filter, empty when disabled.
func (c Config) StatusFilter() string {
	if c.Source.Status == nil {
		return ingest.DefaultStatus
	}

	return *c.Source.Status
}

// CSVOptions returns the CSV source options of the source section.
func (c Config) CSVOptions() []ingest.CSVOption {
	return []ingest.CSVOption{
		ingest.WithColumns(c.Source.Columns),
		ingest.WithStatus(c.StatusFilter()),
	}
}

// SQLConfig returns the SQL source settings of the source section.
func (c Config) SQLConfig() ingest.SQLConfig {
	return ingest.SQLConfig{
		Driver:  c.Source.Driver,
		Table:   c.Source.Table,
		Columns: c.Source.Columns,
		Status:  c.StatusFilter(),
	}
}

func ptr[T any](v T) *T {
	return &v
}
