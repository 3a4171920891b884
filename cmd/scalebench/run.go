package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/weiihann/scalebench/config"
	"github.com/weiihann/scalebench/driver"
	"github.com/weiihann/scalebench/harness"
	"github.com/weiihann/scalebench/report"
)

func newRunCmd(logger func() *slog.Logger) *cobra.Command {
	var f configFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the program and measure speedup across parallelism levels",
		Long: `Build the measured program once, run it at every parallelism level in
order, and report speedup and efficiency per level.`,
		Example: `  scalebench run --source trapIntegral-hw.c --levels 1,2,3,4
  scalebench run --toolchain go --source ./cmd/trapezoid --launcher flag
  scalebench run -c scalebench.yaml --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}

			return runScale(cmd.Context(), logger(), cfg, cmd.OutOrStdout())
		},
	}

	f.registerConfig(cmd)
	f.registerBuild(cmd)
	f.registerRun(cmd)
	f.registerExtractor(cmd)
	f.registerOutput(cmd)

	return cmd
}

func runScale(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	out io.Writer,
) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.InfoContext(ctx, "starting scaling run",
		slog.Any("levels", cfg.Levels),
		slog.String("toolchain", cfg.Build.Toolchain),
		slog.String("launcher", cfg.Run.Launcher),
		slog.String("extractor", cfg.Extractor.Mode),
	)

	// Step 1: Build the program once (unless skipped).
	binPath := cfg.Build.Binary
	if !cfg.Build.Skip {
		var err error

		binPath, err = harness.Build(ctx, logger, buildConfig(cfg))
		if err != nil {
			return err
		}
	}

	// Step 2: Run every level in order.
	x, err := cfg.Extractor.NewExtractor()
	if err != nil {
		return err
	}

	runner := harness.NewRunner(
		cfg.Run.Launcher, binPath, cfg.Run.Args, cfg.Run.Timeout, logger,
	)

	d := driver.New(runner, x, logger)
	d.ContinueOnError = cfg.ContinueOnError

	series, runErr := d.Run(ctx, cfg.Levels)
	if runErr != nil && (!cfg.ContinueOnError || len(series) == 0) {
		return runErr
	}

	// Step 3: Report whatever completed.
	if cfg.Output.JSON {
		err = report.GenerateJSON(out, d.RunID(), series)
	} else {
		err = report.Generate(out, series)
	}

	if err != nil {
		return errors.Join(runErr, fmt.Errorf("generate report: %w", err))
	}

	if !cfg.Output.NoCharts {
		paths, err := report.SaveCharts(cfg.Output.Dir, cfg.Output.ChartFormat, series)
		if err != nil {
			return errors.Join(runErr, fmt.Errorf("render charts: %w", err))
		}

		logger.InfoContext(ctx, "charts written", slog.Any("paths", paths))
	}

	if runErr != nil {
		return fmt.Errorf("run completed with failed trials: %w", runErr)
	}

	logger.InfoContext(ctx, "scaling run complete",
		slog.String("run_id", d.RunID()),
	)

	return nil
}

func buildConfig(cfg config.Config) harness.BuildConfig {
	return harness.BuildConfig{
		Toolchain:  cfg.Build.Toolchain,
		Source:     cfg.Build.Source,
		BinaryPath: cfg.Build.Binary,
		ExtraFlags: cfg.Build.Flags,
	}
}
