// Package extract recovers timing measurements from the text a measured
// program prints to standard output.
package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/weiihann/scalebench/harness"
)

// Default layout of the measured program's output.
const (
	DefaultSequentialLine = 4
	DefaultParallelLine   = 8
	DefaultDelimiter      = ":"
)

// Extractor converts captured program output into a Measurement.
type Extractor interface {
	Extract(raw string) (harness.Measurement, error)
}

// MalformedOutputError reports output that does not match the expected
// layout. Line is the 0-indexed line that was inspected, or -1 when no
// line could be selected.
type MalformedOutputError struct {
	Line    int
	Content string
	Reason  string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	if e.Line < 0 {
		return "malformed output: " + e.Reason
	}

	msg := fmt.Sprintf("malformed output at line %d (%q): %s",
		e.Line, e.Content, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// LineExtractor reads the two timings from fixed line positions, each
// line holding a "label<Delimiter>value" pair.
type LineExtractor struct {
	SequentialLine int
	ParallelLine   int
	Delimiter      string
}

// NewLineExtractor returns a LineExtractor for the default layout.
func NewLineExtractor() *LineExtractor {
	return &LineExtractor{
		SequentialLine: DefaultSequentialLine,
		ParallelLine:   DefaultParallelLine,
		Delimiter:      DefaultDelimiter,
	}
}

// Extract implements Extractor.
func (x *LineExtractor) Extract(raw string) (harness.Measurement, error) {
	lines := splitLines(raw)

	seq, err := x.valueAt(lines, x.SequentialLine)
	if err != nil {
		return harness.Measurement{}, err
	}

	par, err := x.valueAt(lines, x.ParallelLine)
	if err != nil {
		return harness.Measurement{}, err
	}

	return harness.Measurement{Sequential: seq, Parallel: par}, nil
}

func (x *LineExtractor) valueAt(lines []string, idx int) (float64, error) {
	if idx < 0 || idx >= len(lines) {
		return 0, &MalformedOutputError{
			Line: -1,
			Reason: fmt.Sprintf("want line %d, output has %d lines",
				idx, len(lines)),
		}
	}

	return parseValue(idx, lines[idx], x.Delimiter)
}

// LabelExtractor locates the two timings by label instead of position.
// The first line whose label matches wins.
type LabelExtractor struct {
	SequentialLabel string
	ParallelLabel   string
	Delimiter       string
}

// Extract implements Extractor.
func (x *LabelExtractor) Extract(raw string) (harness.Measurement, error) {
	lines := splitLines(raw)

	seq, err := x.valueFor(lines, x.SequentialLabel)
	if err != nil {
		return harness.Measurement{}, err
	}

	par, err := x.valueFor(lines, x.ParallelLabel)
	if err != nil {
		return harness.Measurement{}, err
	}

	return harness.Measurement{Sequential: seq, Parallel: par}, nil
}

func (x *LabelExtractor) valueFor(lines []string, label string) (float64, error) {
	want := strings.TrimSpace(label)

	for i, line := range lines {
		l, _, ok := strings.Cut(line, x.delimiter())
		if ok && strings.TrimSpace(l) == want {
			return parseValue(i, line, x.delimiter())
		}
	}

	return 0, &MalformedOutputError{
		Line:   -1,
		Reason: fmt.Sprintf("no line labelled %q", want),
	}
}

func (x *LabelExtractor) delimiter() string {
	if x.Delimiter == "" {
		return DefaultDelimiter
	}

	return x.Delimiter
}

func splitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	return lines
}

func parseValue(idx int, line, delim string) (float64, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}

	_, value, ok := strings.Cut(line, delim)
	if !ok {
		return 0, &MalformedOutputError{
			Line:    idx,
			Content: line,
			Reason:  fmt.Sprintf("missing %q delimiter", delim),
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, &MalformedOutputError{
			Line:    idx,
			Content: line,
			Reason:  "value is not a number",
			Err:     err,
		}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &MalformedOutputError{
			Line:    idx,
			Content: line,
			Reason:  "value is not finite",
		}
	}

	return v, nil
}
