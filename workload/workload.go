// Package workload implements the trapezoid-rule integration used as the
// reference measured program. It integrates f(x) = x² once sequentially and
// once split across workers, timing both passes.
package workload

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Config controls the integration.
type Config struct {
	Intervals int
	A, B      float64
}

// DefaultConfig integrates x² over [0, 1] with 20M intervals.
func DefaultConfig() Config {
	return Config{Intervals: 20_000_000, A: 0, B: 1}
}

// Result holds the areas and timings of both passes.
type Result struct {
	Intervals      int
	Workers        int
	SequentialArea float64
	ParallelArea   float64
	SequentialTime time.Duration
	ParallelTime   time.Duration
}

// Speedup returns SequentialTime / ParallelTime, or 0 if the parallel
// pass took no measurable time.
func (r Result) Speedup() float64 {
	if r.ParallelTime <= 0 {
		return 0
	}

	return r.SequentialTime.Seconds() / r.ParallelTime.Seconds()
}

// Efficiency returns the speedup per worker as a percentage.
func (r Result) Efficiency() float64 {
	if r.Workers < 1 {
		return 0
	}

	return r.Speedup() / float64(r.Workers) * 100
}

func f(x float64) float64 { return x * x }

// Trapezoid integrates f over [a, b] using n equal intervals.
func Trapezoid(a, b float64, n int) float64 {
	if n < 1 || b <= a {
		return 0
	}

	d := (b - a) / float64(n)

	var area float64
	for i := 0; i < n; i++ {
		x := a + float64(i)*d
		area += f(x) + f(x+d)
	}

	return area * d / 2
}

// ParallelTrapezoid splits [a, b] into one region per worker and
// integrates the regions concurrently. The intervals are divided as
// evenly as possible; the first n%workers regions get one extra.
func ParallelTrapezoid(a, b float64, n, workers int) float64 {
	if workers < 1 || n < 1 || b <= a {
		return 0
	}

	if workers > n {
		workers = n
	}

	d := (b - a) / float64(n)
	partial := make([]float64, workers)

	var wg sync.WaitGroup

	start := 0
	for w := 0; w < workers; w++ {
		count := n / workers
		if w < n%workers {
			count++
		}

		lo := a + float64(start)*d
		hi := a + float64(start+count)*d
		start += count

		wg.Add(1)

		go func(w, count int, lo, hi float64) {
			defer wg.Done()
			partial[w] = Trapezoid(lo, hi, count)
		}(w, count, lo, hi)
	}

	wg.Wait()

	var total float64
	for _, p := range partial {
		total += p
	}

	return total
}

// Run performs the sequential pass followed by the parallel pass.
func Run(cfg Config, workers int) (Result, error) {
	if cfg.Intervals < 1 {
		return Result{}, errors.New("intervals must be positive")
	}

	if workers < 1 {
		return Result{}, errors.New("workers must be positive")
	}

	if cfg.B <= cfg.A {
		return Result{}, fmt.Errorf("empty range [%g, %g]", cfg.A, cfg.B)
	}

	res := Result{Intervals: cfg.Intervals, Workers: workers}

	seqStart := time.Now()
	res.SequentialArea = Trapezoid(cfg.A, cfg.B, cfg.Intervals)
	res.SequentialTime = time.Since(seqStart)

	parStart := time.Now()
	res.ParallelArea = ParallelTrapezoid(cfg.A, cfg.B, cfg.Intervals, workers)
	res.ParallelTime = time.Since(parStart)

	return res, nil
}

// WriteReport prints res in the layout the harness extracts from: the
// sequential time on line 4 and the parallel time on line 8.
func WriteReport(w io.Writer, res Result) error {
	_, err := fmt.Fprintf(w, `The number of intervals is: %d

########Sequential Results########
The total area under the curve is: %f
The time took to complete the operation is: %.9f

########Parallel Results########
The total area under the curve is: %f
The time took to complete the operation is: %.9f

The speedup factor is %f
The efficiency is %f
`,
		res.Intervals,
		res.SequentialArea,
		res.SequentialTime.Seconds(),
		res.ParallelArea,
		res.ParallelTime.Seconds(),
		res.Speedup(),
		res.Efficiency(),
	)

	return err
}
