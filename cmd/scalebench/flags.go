package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/weiihann/scalebench/config"
)

// configFlags mirrors config.Config on the command line. A flag only
// overrides the config file when it was set explicitly.
type configFlags struct {
	path string

	levels          []int
	continueOnError bool

	source    string
	toolchain string
	binary    string
	buildFlag []string
	skipBuild bool

	launcher string
	args     []string
	timeout  time.Duration

	mode      string
	seqLine   int
	parLine   int
	seqLabel  string
	parLabel  string
	delimiter string

	outputDir   string
	chartFormat string
	outputJSON  bool
	noCharts    bool
}

func (f *configFlags) registerConfig(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "",
		"Path to a YAML config file")
}

func (f *configFlags) registerBuild(cmd *cobra.Command) {
	def := config.Default()
	flags := cmd.Flags()

	flags.StringVar(&f.source, "source", "",
		"Source file or package of the measured program")
	flags.StringVar(&f.toolchain, "toolchain", def.Build.Toolchain,
		"Toolchain: mpicc, openmp, go")
	flags.StringVar(&f.binary, "binary", "",
		"Output (or existing, with --skip-build) binary path")
	flags.StringSliceVar(&f.buildFlag, "build-flag", nil,
		"Extra compiler flag (repeatable)")
}

func (f *configFlags) registerRun(cmd *cobra.Command) {
	def := config.Default()
	flags := cmd.Flags()

	flags.IntSliceVar(&f.levels, "levels", def.Levels,
		"Parallelism levels to test, in order")
	flags.BoolVar(&f.continueOnError, "continue-on-error", false,
		"Skip failed levels instead of aborting the run")
	flags.BoolVar(&f.skipBuild, "skip-build", false,
		"Use an existing binary instead of building")
	flags.StringVar(&f.launcher, "launcher", def.Run.Launcher,
		"Launcher: mpirun, omp, flag")
	flags.StringSliceVar(&f.args, "arg", nil,
		"Extra argument passed to the measured program (repeatable)")
	flags.DurationVar(&f.timeout, "timeout", def.Run.Timeout,
		"Per-trial timeout (0 disables)")
}

func (f *configFlags) registerExtractor(cmd *cobra.Command) {
	def := config.Default()
	flags := cmd.Flags()

	flags.StringVar(&f.mode, "extractor", def.Extractor.Mode,
		"Extractor mode: line, label")
	flags.IntVar(&f.seqLine, "seq-line", def.Extractor.SequentialLine,
		"0-indexed line holding the sequential time")
	flags.IntVar(&f.parLine, "par-line", def.Extractor.ParallelLine,
		"0-indexed line holding the parallel time")
	flags.StringVar(&f.seqLabel, "seq-label", "",
		"Label of the sequential time (label mode)")
	flags.StringVar(&f.parLabel, "par-label", "",
		"Label of the parallel time (label mode)")
	flags.StringVar(&f.delimiter, "delimiter", def.Extractor.Delimiter,
		"Separator between label and value")
}

func (f *configFlags) registerOutput(cmd *cobra.Command) {
	def := config.Default()
	flags := cmd.Flags()

	flags.StringVarP(&f.outputDir, "output-dir", "o", def.Output.Dir,
		"Directory for charts")
	flags.StringVar(&f.chartFormat, "chart-format", def.Output.ChartFormat,
		"Chart image format: png, svg, pdf")
	flags.BoolVar(&f.outputJSON, "json", false,
		"Output results as JSON instead of table")
	flags.BoolVar(&f.noCharts, "no-charts", false,
		"Skip chart rendering")
}

// resolve loads the config file, if any, and applies explicitly set flags.
func (f *configFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if f.path != "" {
		var err error

		cfg, err = config.Load(f.path)
		if err != nil {
			return cfg, err
		}
	}

	changed := cmd.Flags().Changed

	if changed("levels") {
		cfg.Levels = f.levels
	}
	if changed("continue-on-error") {
		cfg.ContinueOnError = f.continueOnError
	}
	if changed("source") {
		cfg.Build.Source = f.source
	}
	if changed("toolchain") {
		cfg.Build.Toolchain = f.toolchain
	}
	if changed("binary") {
		cfg.Build.Binary = f.binary
	}
	if changed("build-flag") {
		cfg.Build.Flags = f.buildFlag
	}
	if changed("skip-build") {
		cfg.Build.Skip = f.skipBuild
	}
	if changed("launcher") {
		cfg.Run.Launcher = f.launcher
	}
	if changed("arg") {
		cfg.Run.Args = f.args
	}
	if changed("timeout") {
		cfg.Run.Timeout = f.timeout
	}
	if changed("extractor") {
		cfg.Extractor.Mode = f.mode
	}
	if changed("seq-line") {
		cfg.Extractor.SequentialLine = f.seqLine
	}
	if changed("par-line") {
		cfg.Extractor.ParallelLine = f.parLine
	}
	if changed("seq-label") {
		cfg.Extractor.SequentialLabel = f.seqLabel
	}
	if changed("par-label") {
		cfg.Extractor.ParallelLabel = f.parLabel
	}
	if changed("delimiter") {
		cfg.Extractor.Delimiter = f.delimiter
	}
	if changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if changed("chart-format") {
		cfg.Output.ChartFormat = f.chartFormat
	}
	if changed("json") {
		cfg.Output.JSON = f.outputJSON
	}
	if changed("no-charts") {
		cfg.Output.NoCharts = f.noCharts
	}

	return cfg, nil
}
