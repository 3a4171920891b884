package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Supported launchers.
const (
	LauncherMPIRun = "mpirun"
	LauncherOMP    = "omp"
	LauncherFlag   = "flag"
)

// KnownLaunchers returns the list of supported launcher names.
func KnownLaunchers() []string {
	return []string{LauncherMPIRun, LauncherOMP, LauncherFlag}
}

// RunError reports a trial whose process could not be launched or
// exited with a non-zero status.
type RunError struct {
	Parallelism int
	Stderr      string
	Err         error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("run at parallelism %d: %v", e.Parallelism, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\nstderr: " + s
	}

	return msg
}

func (e *RunError) Unwrap() error { return e.Err }

// CommandConfig holds the resolved command, arguments, and extra
// environment needed to run the binary at one parallelism level.
type CommandConfig struct {
	Binary string
	Args   []string
	Env    []string
}

// WrapCommand returns the exec configuration needed to run binPath
// with p cooperating workers under the given launcher.
func WrapCommand(launcher, binPath string, p int, extraArgs []string) (CommandConfig, error) {
	n := strconv.Itoa(p)

	switch launcher {
	case LauncherMPIRun:
		args := []string{"-np", n, binPath}

		return CommandConfig{
			Binary: "mpirun",
			Args:   append(args, extraArgs...),
		}, nil

	case LauncherOMP:
		return CommandConfig{
			Binary: binPath,
			Args:   append([]string(nil), extraArgs...),
			Env:    []string{"OMP_NUM_THREADS=" + n},
		}, nil

	case LauncherFlag:
		args := []string{"--workers", n}

		return CommandConfig{
			Binary: binPath,
			Args:   append(args, extraArgs...),
		}, nil

	default:
		return CommandConfig{}, fmt.Errorf("unknown launcher %q", launcher)
	}
}

// Runner launches the measured binary once per trial.
type Runner struct {
	Launcher   string
	BinaryPath string
	ExtraArgs  []string
	Timeout    time.Duration
	Logger     *slog.Logger
}

// NewRunner creates a Runner for binaryPath under the named launcher.
func NewRunner(
	launcher, binaryPath string,
	extraArgs []string,
	timeout time.Duration,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Launcher:   launcher,
		BinaryPath: binaryPath,
		ExtraArgs:  extraArgs,
		Timeout:    timeout,
		Logger:     logger.With(slog.String("launcher", launcher)),
	}
}

// Run executes one trial and returns the captured standard output.
func (r *Runner) Run(ctx context.Context, req TrialRequest) (string, error) {
	if req.Parallelism < 1 {
		return "", &RunError{
			Parallelism: req.Parallelism,
			Err:         errors.New("parallelism must be positive"),
		}
	}

	cmdCfg, err := WrapCommand(r.Launcher, r.BinaryPath, req.Parallelism, r.ExtraArgs)
	if err != nil {
		return "", &RunError{Parallelism: req.Parallelism, Err: err}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cmdCfg.Binary, cmdCfg.Args...)
	// Children that inherit stdout must not keep Wait blocked after a kill.
	cmd.WaitDelay = time.Second

	if len(cmdCfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cmdCfg.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.InfoContext(ctx, "starting trial",
		slog.Int("parallelism", req.Parallelism),
		slog.String("binary", cmdCfg.Binary),
		slog.Any("args", cmdCfg.Args),
	)

	wallStart := time.Now()

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}

		return "", &RunError{
			Parallelism: req.Parallelism,
			Stderr:      stderr.String(),
			Err:         err,
		}
	}

	r.Logger.InfoContext(ctx, "trial finished",
		slog.Int("parallelism", req.Parallelism),
		slog.Duration("wall_time", time.Since(wallStart)),
	)

	return stdout.String(), nil
}
