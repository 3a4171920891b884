package harness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireShell(t *testing.T) string {
	t.Helper()

	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	return sh
}

func TestWrapCommand(t *testing.T) {
	tests := []struct {
		launcher string
		wantBin  string
		wantArgs string
		wantEnv  string
	}{
		{LauncherMPIRun, "mpirun", "-np 3 ./out", ""},
		{LauncherOMP, "./out", "", "OMP_NUM_THREADS=3"},
		{LauncherFlag, "./out", "--workers 3", ""},
	}

	for _, tt := range tests {
		cfg, err := WrapCommand(tt.launcher, "./out", 3, nil)
		if err != nil {
			t.Fatalf("WrapCommand(%s) failed: %v", tt.launcher, err)
		}

		if cfg.Binary != tt.wantBin {
			t.Errorf("%s: binary = %q, want %q", tt.launcher, cfg.Binary, tt.wantBin)
		}
		if got := strings.Join(cfg.Args, " "); got != tt.wantArgs {
			t.Errorf("%s: args = %q, want %q", tt.launcher, got, tt.wantArgs)
		}
		if got := strings.Join(cfg.Env, " "); got != tt.wantEnv {
			t.Errorf("%s: env = %q, want %q", tt.launcher, got, tt.wantEnv)
		}
	}
}

func TestWrapCommandExtraArgs(t *testing.T) {
	cfg, err := WrapCommand(LauncherMPIRun, "./out", 2, []string{"-n", "100"})
	if err != nil {
		t.Fatalf("WrapCommand failed: %v", err)
	}

	if got := strings.Join(cfg.Args, " "); got != "-np 2 ./out -n 100" {
		t.Errorf("args = %q", got)
	}
}

func TestWrapCommandUnknownLauncher(t *testing.T) {
	if _, err := WrapCommand("slurm", "./out", 1, nil); err == nil {
		t.Error("expected error for unknown launcher")
	}
}

func TestRunnerCapturesStdout(t *testing.T) {
	sh := requireShell(t)

	runner := NewRunner(LauncherOMP, sh,
		[]string{"-c", "echo threads: $OMP_NUM_THREADS"}, 0, discardLogger())

	out, err := runner.Run(context.Background(), TrialRequest{Parallelism: 3})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if strings.TrimSpace(out) != "threads: 3" {
		t.Errorf("stdout = %q, want %q", out, "threads: 3")
	}
}

func TestRunnerNonZeroExit(t *testing.T) {
	sh := requireShell(t)

	runner := NewRunner(LauncherOMP, sh,
		[]string{"-c", "echo boom >&2; exit 3"}, 0, discardLogger())

	_, err := runner.Run(context.Background(), TrialRequest{Parallelism: 2})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("error %T is not *RunError", err)
	}
	if runErr.Parallelism != 2 {
		t.Errorf("parallelism = %d, want 2", runErr.Parallelism)
	}
	if !strings.Contains(runErr.Stderr, "boom") {
		t.Errorf("stderr = %q, want it to contain boom", runErr.Stderr)
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Error("expected wrapped *exec.ExitError")
	}
}

func TestRunnerTimeout(t *testing.T) {
	sh := requireShell(t)

	runner := NewRunner(LauncherOMP, sh,
		[]string{"-c", "exec sleep 5"}, 50*time.Millisecond, discardLogger())

	_, err := runner.Run(context.Background(), TrialRequest{Parallelism: 1})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestRunnerMissingBinary(t *testing.T) {
	runner := NewRunner(LauncherFlag, "/nonexistent/scalebench-bin",
		nil, 0, discardLogger())

	_, err := runner.Run(context.Background(), TrialRequest{Parallelism: 1})

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("err = %v, want *RunError", err)
	}
}

func TestRunnerRejectsNonPositiveParallelism(t *testing.T) {
	runner := NewRunner(LauncherFlag, "./out", nil, 0, discardLogger())

	if _, err := runner.Run(context.Background(), TrialRequest{}); err == nil {
		t.Error("expected error for parallelism 0")
	}
}
