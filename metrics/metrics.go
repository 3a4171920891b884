// Package metrics derives speedup and efficiency from a measurement.
package metrics

import (
	"fmt"
	"math"

	"github.com/weiihann/scalebench/harness"
)

// DivisionByZeroError is returned when the parallel duration is zero.
// Compute never returns an IEEE infinity in its place.
type DivisionByZeroError struct {
	Parallelism int
	Sequential  float64
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf(
		"speedup undefined at parallelism %d: parallel duration is zero (sequential %g)",
		e.Parallelism, e.Sequential,
	)
}

// InvalidInputError is returned for a non-positive parallelism level, a
// non-positive sequential duration, or a negative or non-finite duration.
type InvalidInputError struct {
	Parallelism int
	Measurement harness.Measurement
	Reason      string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid metrics input at parallelism %d (%+v): %s",
		e.Parallelism, e.Measurement, e.Reason)
}

// Compute returns the speedup sequential/parallel and the efficiency
// speedup/p as a percentage. The caller-provided p is trusted as is.
func Compute(p int, m harness.Measurement) (harness.TrialResult, error) {
	if p < 1 {
		return harness.TrialResult{}, &InvalidInputError{
			Parallelism: p,
			Measurement: m,
			Reason:      "parallelism must be positive",
		}
	}

	if !finite(m.Sequential) || !finite(m.Parallel) {
		return harness.TrialResult{}, &InvalidInputError{
			Parallelism: p,
			Measurement: m,
			Reason:      "durations must be finite",
		}
	}

	if m.Sequential <= 0 {
		return harness.TrialResult{}, &InvalidInputError{
			Parallelism: p,
			Measurement: m,
			Reason:      "sequential duration must be positive",
		}
	}

	if m.Parallel < 0 {
		return harness.TrialResult{}, &InvalidInputError{
			Parallelism: p,
			Measurement: m,
			Reason:      "parallel duration must not be negative",
		}
	}

	if m.Parallel == 0 {
		return harness.TrialResult{}, &DivisionByZeroError{
			Parallelism: p,
			Sequential:  m.Sequential,
		}
	}

	speedup := m.Sequential / m.Parallel

	return harness.TrialResult{
		Parallelism: p,
		Speedup:     speedup,
		Efficiency:  speedup / float64(p) * 100,
		Measurement: m,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
