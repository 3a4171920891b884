// Package main provides the CLI entry point for scalebench, a harness that
// measures how a parallel program scales with its degree of parallelism.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// newLogger writes human-readable logs to a terminal and JSON otherwise.
func newLogger(verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func newRootCmd() *cobra.Command {
	var verbose bool

	logger := func() *slog.Logger { return newLogger(verbose) }

	root := &cobra.Command{
		Use:   "scalebench",
		Short: "Speedup and efficiency harness for parallel programs",
		Long: `Scalebench builds a parallel program, runs it once per parallelism level,
extracts the sequential and parallel timings it prints, and reports the
resulting speedup and efficiency as a table and two charts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(
		newRunCmd(logger),
		newBuildCmd(logger),
		newExtractCmd(),
	)

	return root
}
