package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"testsmith/internal/pipeline/coverage"
)

func (a *app) coverageCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "coverage [threshold]",
		Short: "Run pytest with coverage and exit 1 when below threshold",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold := coverage.DefaultThreshold
			if len(args) == 1 {
				t, err := strconv.ParseFloat(args[0], 64)
				if err != nil || t < 0 {
					return fmt.Errorf("invalid threshold %q", args[0])
				}
				threshold = t
			}
			if !cmd.Flags().Changed("source") {
				source = a.cfg.CoverageSource
			}

			c := &coverage.Checker{Source: source, Threshold: threshold, Logger: a.logger}
			v, err := c.Check(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Current coverage: %.1f%%\n", v.Percent)
			fmt.Fprintf(a.stdout, "Threshold: %.1f%%\n", v.Threshold)
			if v.Sufficient {
				fmt.Fprintf(a.stdout, "Coverage is sufficient (%.1f%% >= %.1f%%)\n", v.Percent, v.Threshold)
				fmt.Fprintln(a.stdout, "Skipping test generation.")
				return nil
			}
			fmt.Fprintf(a.stdout, "Coverage below threshold (%.1f%% < %.1f%%)\n", v.Percent, v.Threshold)
			fmt.Fprintln(a.stdout, "Test generation needed.")
			return &exitError{code: 1}
		},
	}
	cmd.Flags().StringVar(&source, "source", "src", "package passed to --cov")
	return cmd
}
