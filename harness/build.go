package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Supported toolchains.
const (
	ToolchainMPICC  = "mpicc"
	ToolchainOpenMP = "openmp"
	ToolchainGo     = "go"
)

// KnownToolchains returns the list of supported toolchain names.
func KnownToolchains() []string {
	return []string{ToolchainMPICC, ToolchainOpenMP, ToolchainGo}
}

// BuildConfig describes how to compile the measured program.
type BuildConfig struct {
	Toolchain  string
	Source     string
	BinaryPath string
	ExtraFlags []string
}

// BuildError reports a failed compilation. It aborts the whole run.
type BuildError struct {
	Toolchain string
	Source    string
	Output    string
	Err       error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("build %s with %s: %v", e.Source, e.Toolchain, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}

	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// ResolveBinary returns the binary path for cfg, deriving it from the
// source name when BinaryPath is empty.
func ResolveBinary(cfg BuildConfig) string {
	if cfg.BinaryPath != "" {
		return cfg.BinaryPath
	}

	base := filepath.Base(cfg.Source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "out"
	}

	return filepath.Join(filepath.Dir(cfg.Source), base+".bin")
}

// BuildCommand returns the compiler invocation for cfg without running it.
func BuildCommand(ctx context.Context, cfg BuildConfig) (*exec.Cmd, error) {
	binPath := ResolveBinary(cfg)

	var args []string

	switch cfg.Toolchain {
	case ToolchainMPICC:
		args = append(args, cfg.ExtraFlags...)
		args = append(args, cfg.Source, "-o", binPath)

		return exec.CommandContext(ctx, "mpicc", args...), nil

	case ToolchainOpenMP:
		args = append(args, "-fopenmp")
		args = append(args, cfg.ExtraFlags...)
		args = append(args, cfg.Source, "-o", binPath)

		return exec.CommandContext(ctx, "gcc", args...), nil

	case ToolchainGo:
		args = append(args, "build", "-o", binPath)
		args = append(args, cfg.ExtraFlags...)
		args = append(args, cfg.Source)

		return exec.CommandContext(ctx, "go", args...), nil

	default:
		return nil, fmt.Errorf("unknown toolchain %q", cfg.Toolchain)
	}
}

// Build compiles the measured program and returns the binary path.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	cfg BuildConfig,
) (string, error) {
	binPath := ResolveBinary(cfg)

	cmd, err := BuildCommand(ctx, cfg)
	if err != nil {
		return "", &BuildError{
			Toolchain: cfg.Toolchain,
			Source:    cfg.Source,
			Err:       err,
		}
	}

	logger.InfoContext(ctx, "building program",
		slog.String("toolchain", cfg.Toolchain),
		slog.String("source", cfg.Source),
		slog.String("binary", binPath),
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &BuildError{
			Toolchain: cfg.Toolchain,
			Source:    cfg.Source,
			Output:    string(out),
			Err:       err,
		}
	}

	if _, err := os.Stat(binPath); err != nil {
		return "", &BuildError{
			Toolchain: cfg.Toolchain,
			Source:    cfg.Source,
			Err:       fmt.Errorf("binary not found at %s: %w", binPath, err),
		}
	}

	logger.InfoContext(ctx, "program built",
		slog.String("binary", binPath),
	)

	return binPath, nil
}
