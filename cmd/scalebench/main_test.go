package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/scalebench/driver"
	"github.com/weiihann/scalebench/harness"
	"github.com/weiihann/scalebench/metrics"
	"github.com/weiihann/scalebench/report"
)

// fakeProgram prints a fixed sequential time of 8s and a parallel time
// of 8/p seconds, where p is the value after --workers.
const fakeProgram = `#!/bin/sh
case "$2" in
  1) par=8.0 ;;
  2) par=4.0 ;;
  4) par=2.0 ;;
  *) par=0.0 ;;
esac
echo "The number of intervals is: 100"
echo
echo "########Sequential Results########"
echo "The total area under the curve is: 0.333"
echo "The time took to complete the operation is: 8.0"
echo
echo "########Parallel Results########"
echo "The total area under the curve is: 0.333"
echo "The time took to complete the operation is: $par"
`

func writeFakeProgram(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	path := filepath.Join(t.TempDir(), "fake-program")
	require.NoError(t, os.WriteFile(path, []byte(fakeProgram), 0o755))

	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestRunCommandEndToEnd(t *testing.T) {
	bin := writeFakeProgram(t)
	outDir := filepath.Join(t.TempDir(), "results")

	out, err := execute(t, "", "run",
		"--skip-build", "--binary", bin,
		"--launcher", "flag",
		"--levels", "1,2,4",
		"--output-dir", outDir,
		"--chart-format", "svg",
		"--json",
	)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.NotEmpty(t, doc.RunID)
	assert.Equal(t, []int{1, 2, 4}, doc.Results.Levels())
	assert.InDelta(t, 4.0, doc.Results[2].Speedup, 1e-12)
	assert.InDelta(t, 100.0, doc.Results[2].Efficiency, 1e-12)

	assert.FileExists(t, filepath.Join(outDir, "speedup.svg"))
	assert.FileExists(t, filepath.Join(outDir, "efficiency.svg"))
}

func TestRunCommandAbortsOnZeroParallelTime(t *testing.T) {
	bin := writeFakeProgram(t)

	_, err := execute(t, "", "run",
		"--skip-build", "--binary", bin,
		"--launcher", "flag",
		"--levels", "1,3,4",
		"--no-charts",
	)

	var trialErr *driver.TrialError
	require.ErrorAs(t, err, &trialErr)
	assert.Equal(t, 3, trialErr.Parallelism)
	assert.Equal(t, driver.StageMetrics, trialErr.Stage)
}

func TestRunCommandContinueOnError(t *testing.T) {
	bin := writeFakeProgram(t)

	out, err := execute(t, "", "run",
		"--skip-build", "--binary", bin,
		"--launcher", "flag",
		"--levels", "1,3,4",
		"--continue-on-error",
		"--no-charts",
	)
	require.Error(t, err)

	assert.Contains(t, out, "| 1 |")
	assert.Contains(t, out, "| 4 |")
	assert.NotContains(t, out, "| 3 |")
}

func TestRunCommandBuildFailure(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go not available")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(src, []byte("package main\n\nfunc main() {\n"), 0o644))

	outDir := filepath.Join(dir, "results")

	out, err := execute(t, "", "run",
		"--toolchain", "go",
		"--source", src,
		"--binary", filepath.Join(dir, "bad"),
		"--launcher", "flag",
		"--levels", "1,2",
		"--output-dir", outDir,
	)

	var buildErr *harness.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.NotEmpty(t, strings.TrimSpace(buildErr.Output))

	// No trial ran, so neither the report nor the charts exist.
	assert.Empty(t, out)
	assert.NoDirExists(t, outDir)
}

func TestRunCommandInvalidConfig(t *testing.T) {
	_, err := execute(t, "", "run", "--levels", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestExtractCommand(t *testing.T) {
	input := "a\nb\nc\nd\nSequential time: 8.0\nf\ng\nh\nParallel time: 2.0\n"

	out, err := execute(t, input, "extract", "--parallelism", "4")
	require.NoError(t, err)

	assert.Contains(t, out, "| 4 | 8.000s | 2.000s | 4.00x | 100% |")
}

func TestExtractCommandMalformed(t *testing.T) {
	_, err := execute(t, "only\nthree\nlines\n", "extract", "-p", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed output")
}

func TestExtractCommandZeroParallelTime(t *testing.T) {
	input := "a\nb\nc\nd\nSequential time: 8.0\nf\ng\nh\nParallel time: 0.0\n"

	_, err := execute(t, input, "extract", "--parallelism", "3")

	var divErr *metrics.DivisionByZeroError
	require.ErrorAs(t, err, &divErr)
	assert.Equal(t, 3, divErr.Parallelism)
	assert.Contains(t, err.Error(), "metrics at parallelism 3")
}

func TestExtractCommandLabelMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path,
		[]byte("mm: 4.0\nmm_omp: 1.0\nmmT: 3.0\nmmT_omp: 0.8\n"), 0o644))

	out, err := execute(t, "", "extract",
		"--file", path, "-p", "4",
		"--extractor", "label", "--seq-label", "mm", "--par-label", "mm_omp",
		"--json",
	)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Results, 1)
	assert.InDelta(t, 100.0, doc.Results[0].Efficiency, 1e-12)
}

func TestResolveFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scalebench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
levels: [1, 2]
build:
  source: trap.c
run:
  timeout: 1m
`), 0o644))

	var f configFlags

	cmd := &cobra.Command{Use: "run"}
	f.registerConfig(cmd)
	f.registerBuild(cmd)
	f.registerRun(cmd)
	f.registerExtractor(cmd)
	f.registerOutput(cmd)

	require.NoError(t, cmd.ParseFlags([]string{
		"-c", path, "--levels", "1,2,4,8", "--toolchain", "openmp",
	}))

	cfg, err := f.resolve(cmd)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 4, 8}, cfg.Levels)
	assert.Equal(t, "openmp", cfg.Build.Toolchain)
	assert.Equal(t, "trap.c", cfg.Build.Source)
	assert.Equal(t, time.Minute, cfg.Run.Timeout)
	assert.Equal(t, "mpirun", cfg.Run.Launcher)
}
