package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/weiihann/scalebench/harness"
	"github.com/weiihann/scalebench/metrics"
	"github.com/weiihann/scalebench/report"
)

// newExtractCmd parses a saved program output, which helps diagnose a
// layout mismatch without rerunning the program.
func newExtractCmd() *cobra.Command {
	var (
		f           configFlags
		file        string
		parallelism int
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Compute speedup and efficiency from a saved program output",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}

			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			x, err := cfg.Extractor.NewExtractor()
			if err != nil {
				return err
			}

			m, err := x.Extract(raw)
			if err != nil {
				return fmt.Errorf("extract %s: %w", file, err)
			}

			result, err := metrics.Compute(parallelism, m)
			if err != nil {
				return fmt.Errorf("metrics at parallelism %d: %w", parallelism, err)
			}

			series := harness.Series{result}
			if cfg.Output.JSON {
				return report.GenerateJSON(cmd.OutOrStdout(), "", series)
			}

			return report.Generate(cmd.OutOrStdout(), series)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-",
		"Captured output to parse (- for stdin)")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", 1,
		"Parallelism level the output was produced with")

	f.registerConfig(cmd)
	f.registerExtractor(cmd)
	cmd.Flags().BoolVar(&f.outputJSON, "json", false,
		"Output results as JSON instead of table")

	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), nil
}
