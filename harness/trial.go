// Package harness builds a parallel program and executes it at a given
// parallelism level, capturing its output for measurement.
package harness

// TrialRequest describes one execution of the measured program.
type TrialRequest struct {
	Parallelism int
}

// Measurement holds the two timings printed by the measured program,
// in the program's own time unit (seconds for the bundled programs).
type Measurement struct {
	Sequential float64 `json:"sequential"`
	Parallel   float64 `json:"parallel"`
}

// TrialResult holds the derived metrics for one parallelism level.
// Efficiency is a percentage and exceeds 100 under superlinear speedup.
type TrialResult struct {
	Parallelism int         `json:"parallelism"`
	Speedup     float64     `json:"speedup"`
	Efficiency  float64     `json:"efficiency"`
	Measurement Measurement `json:"measurement"`
}

// Series is the ordered list of trial results, one per requested level,
// in the order the levels were requested.
type Series []TrialResult

// Levels returns the parallelism level of every entry.
func (s Series) Levels() []int {
	levels := make([]int, len(s))
	for i, r := range s {
		levels[i] = r.Parallelism
	}

	return levels
}
