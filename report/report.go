// Package report renders a speedup/efficiency series as tables and charts.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/weiihann/scalebench/harness"
)

var errEmpty = errors.New("no results to report")

// Generate writes a markdown table for the given series.
func Generate(w io.Writer, series harness.Series) error {
	if len(series) == 0 {
		return errEmpty
	}

	fmt.Fprintln(w, "## Scaling Results")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Parallelism | Sequential | Parallel | Speedup | Efficiency |")
	fmt.Fprintln(w, "|-------------|------------|----------|---------|------------|")

	for _, r := range series {
		fmt.Fprintf(w, "| %d | %s | %s | %.2fx | %s |\n",
			r.Parallelism,
			formatSeconds(r.Measurement.Sequential),
			formatSeconds(r.Measurement.Parallel),
			r.Speedup,
			formatPercent(r.Efficiency),
		)
	}

	best := bestSpeedup(series)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Best speedup: **%.2fx** at parallelism %d\n",
		best.Speedup, best.Parallelism)

	return nil
}

// Document is the JSON form of a completed run.
type Document struct {
	RunID   string         `json:"run_id,omitempty"`
	Results harness.Series `json:"results"`
}

// GenerateJSON writes the series as JSON to w.
func GenerateJSON(w io.Writer, runID string, series harness.Series) error {
	if series == nil {
		series = harness.Series{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(Document{RunID: runID, Results: series})
}

func bestSpeedup(series harness.Series) harness.TrialResult {
	best := series[0]
	for _, r := range series[1:] {
		if r.Speedup > best.Speedup {
			best = r
		}
	}

	return best
}

func formatSeconds(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%.2fms", s*1000)
	}

	return fmt.Sprintf("%.3fs", s)
}

func formatPercent(p float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", p), ".0") + "%"
}
