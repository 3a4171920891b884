// Package config holds the explicit configuration of a scaling run.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/weiihann/scalebench/extract"
	"github.com/weiihann/scalebench/harness"
)

// Extractor modes.
const (
	ModeLine  = "line"
	ModeLabel = "label"
)

// Config describes one scaling run. Zero values are filled by Default.
type Config struct {
	Levels          []int           `yaml:"levels"`
	ContinueOnError bool            `yaml:"continue_on_error"`
	Build           BuildConfig     `yaml:"build"`
	Run             RunConfig       `yaml:"run"`
	Extractor       ExtractorConfig `yaml:"extractor"`
	Output          OutputConfig    `yaml:"output"`
}

// BuildConfig selects how the measured program is compiled.
type BuildConfig struct {
	Toolchain string   `yaml:"toolchain"`
	Source    string   `yaml:"source"`
	Binary    string   `yaml:"binary"`
	Flags     []string `yaml:"flags"`
	Skip      bool     `yaml:"skip"`
}

// RunConfig selects how each trial is launched.
type RunConfig struct {
	Launcher string        `yaml:"launcher"`
	Args     []string      `yaml:"args"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ExtractorConfig tells the extractor where the timings are.
type ExtractorConfig struct {
	Mode            string `yaml:"mode"`
	SequentialLine  int    `yaml:"sequential_line"`
	ParallelLine    int    `yaml:"parallel_line"`
	SequentialLabel string `yaml:"sequential_label"`
	ParallelLabel   string `yaml:"parallel_label"`
	Delimiter       string `yaml:"delimiter"`
}

// OutputConfig controls where reports and charts go.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	ChartFormat string `yaml:"chart_format"`
	JSON        bool   `yaml:"json"`
	NoCharts    bool   `yaml:"no_charts"`
}

// Default returns the configuration of the original trapezoid experiment:
// an MPI program run on 1 to 4 processes.
func Default() Config {
	return Config{
		Levels: []int{1, 2, 3, 4},
		Build: BuildConfig{
			Toolchain: harness.ToolchainMPICC,
		},
		Run: RunConfig{
			Launcher: harness.LauncherMPIRun,
			Timeout:  10 * time.Minute,
		},
		Extractor: ExtractorConfig{
			Mode:           ModeLine,
			SequentialLine: extract.DefaultSequentialLine,
			ParallelLine:   extract.DefaultParallelLine,
			Delimiter:      extract.DefaultDelimiter,
		},
		Output: OutputConfig{
			Dir:         "results",
			ChartFormat: "png",
		},
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c Config) Validate() error {
	var errs []error

	if len(c.Levels) == 0 {
		errs = append(errs, errors.New("levels: at least one parallelism level is required"))
	}

	for i, p := range c.Levels {
		if p < 1 {
			errs = append(errs, fmt.Errorf("levels[%d]: %d is not positive", i, p))
		}
	}

	if !c.Build.Skip && c.Build.Source == "" {
		errs = append(errs, errors.New("build.source: required unless build is skipped"))
	}

	if c.Build.Skip && c.Build.Binary == "" {
		errs = append(errs, errors.New("build.binary: required when build is skipped"))
	}

	if !c.Build.Skip && !slices.Contains(harness.KnownToolchains(), c.Build.Toolchain) {
		errs = append(errs, fmt.Errorf("build.toolchain: unknown %q", c.Build.Toolchain))
	}

	if !slices.Contains(harness.KnownLaunchers(), c.Run.Launcher) {
		errs = append(errs, fmt.Errorf("run.launcher: unknown %q", c.Run.Launcher))
	}

	if c.Run.Timeout < 0 {
		errs = append(errs, errors.New("run.timeout: must not be negative"))
	}

	switch c.Extractor.Mode {
	case ModeLine:
		if c.Extractor.SequentialLine < 0 || c.Extractor.ParallelLine < 0 {
			errs = append(errs, errors.New("extractor: line positions must not be negative"))
		}
	case ModeLabel:
		if c.Extractor.SequentialLabel == "" || c.Extractor.ParallelLabel == "" {
			errs = append(errs, errors.New("extractor: both labels are required in label mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("extractor.mode: unknown %q", c.Extractor.Mode))
	}

	return errors.Join(errs...)
}

// NewExtractor builds the extractor described by the configuration.
func (c ExtractorConfig) NewExtractor() (extract.Extractor, error) {
	delim := c.Delimiter
	if delim == "" {
		delim = extract.DefaultDelimiter
	}

	switch c.Mode {
	case ModeLine:
		return &extract.LineExtractor{
			SequentialLine: c.SequentialLine,
			ParallelLine:   c.ParallelLine,
			Delimiter:      delim,
		}, nil
	case ModeLabel:
		return &extract.LabelExtractor{
			SequentialLabel: c.SequentialLabel,
			ParallelLabel:   c.ParallelLabel,
			Delimiter:       delim,
		}, nil
	default:
		return nil, fmt.Errorf("unknown extractor mode %q", c.Mode)
	}
}
