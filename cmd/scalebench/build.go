package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/weiihann/scalebench/harness"
)

func newBuildCmd(logger func() *slog.Logger) *cobra.Command {
	var f configFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the measured program and print the binary path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}

			if cfg.Build.Source == "" {
				return errors.New("--source is required")
			}

			binPath, err := harness.Build(cmd.Context(), logger(), buildConfig(cfg))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), binPath)

			return nil
		},
	}

	f.registerConfig(cmd)
	f.registerBuild(cmd)

	return cmd
}
