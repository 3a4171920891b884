// Package driver runs one trial per parallelism level and accumulates
// the derived metrics into an ordered series.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/weiihann/scalebench/extract"
	"github.com/weiihann/scalebench/harness"
	"github.com/weiihann/scalebench/metrics"
)

// Trial stages, used to tell where a trial failed.
const (
	StageRun     = "run"
	StageExtract = "extract"
	StageMetrics = "metrics"
)

// TrialRunner executes the measured program once and returns its stdout.
// *harness.Runner satisfies it.
type TrialRunner interface {
	Run(ctx context.Context, req harness.TrialRequest) (string, error)
}

// TrialError identifies the trial and stage a failure belongs to.
type TrialError struct {
	Parallelism int
	Stage       string
	Err         error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("trial p=%d stage=%s: %v", e.Parallelism, e.Stage, e.Err)
}

func (e *TrialError) Unwrap() error { return e.Err }

// Driver sequences trials. Trials never overlap, so they do not contend
// for the cores being measured.
type Driver struct {
	Runner    TrialRunner
	Extractor extract.Extractor
	Logger    *slog.Logger

	// ContinueOnError skips failed levels instead of aborting the run.
	ContinueOnError bool

	runID string
}

// New creates a Driver with a fresh run ID.
func New(runner TrialRunner, x extract.Extractor, logger *slog.Logger) *Driver {
	id := uuid.NewString()

	return &Driver{
		Runner:    runner,
		Extractor: x,
		Logger:    logger.With(slog.String("run_id", id)),
		runID:     id,
	}
}

// RunID returns the identifier attached to this driver's logs and reports.
func (d *Driver) RunID() string { return d.runID }

// Run executes one trial per level in the given order. On failure it
// returns the results gathered so far together with the error.
func (d *Driver) Run(ctx context.Context, levels []int) (harness.Series, error) {
	if err := ValidateLevels(levels); err != nil {
		return nil, err
	}

	series := make(harness.Series, 0, len(levels))

	var errs []error

	for _, p := range levels {
		if err := ctx.Err(); err != nil {
			return series, fmt.Errorf("run interrupted before parallelism %d: %w", p, err)
		}

		result, err := d.trial(ctx, harness.TrialRequest{Parallelism: p})
		if err != nil {
			if !d.ContinueOnError {
				return series, err
			}

			d.Logger.WarnContext(ctx, "trial failed, continuing",
				slog.Int("parallelism", p),
				slog.String("error", err.Error()),
			)

			errs = append(errs, err)

			continue
		}

		d.Logger.InfoContext(ctx, "trial complete",
			slog.Int("parallelism", p),
			slog.Float64("sequential", result.Measurement.Sequential),
			slog.Float64("parallel", result.Measurement.Parallel),
			slog.Float64("speedup", result.Speedup),
			slog.Float64("efficiency", result.Efficiency),
		)

		series = append(series, result)
	}

	return series, errors.Join(errs...)
}

func (d *Driver) trial(ctx context.Context, req harness.TrialRequest) (harness.TrialResult, error) {
	raw, err := d.Runner.Run(ctx, req)
	if err != nil {
		return harness.TrialResult{}, &TrialError{req.Parallelism, StageRun, err}
	}

	m, err := d.Extractor.Extract(raw)
	if err != nil {
		return harness.TrialResult{}, &TrialError{req.Parallelism, StageExtract, err}
	}

	result, err := metrics.Compute(req.Parallelism, m)
	if err != nil {
		return harness.TrialResult{}, &TrialError{req.Parallelism, StageMetrics, err}
	}

	return result, nil
}

// ValidateLevels rejects an empty level list or a non-positive level.
// Duplicates are allowed.
func ValidateLevels(levels []int) error {
	if len(levels) == 0 {
		return errors.New("at least one parallelism level is required")
	}

	for i, p := range levels {
		if p < 1 {
			return fmt.Errorf("parallelism level #%d is %d, must be positive", i, p)
		}
	}

	return nil
}
