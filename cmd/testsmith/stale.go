package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"testsmith/internal/emit"
	"testsmith/internal/pipeline/stale"
)

func (a *app) staleCmd() *cobra.Command {
	var (
		reportFile string
		workers    int
		maxDepth   int
	)
	cmd := &cobra.Command{
		Use:   "stale [root]",
		Short: "Report dead code in every Python file of a repository",
		Long: `Asks the model to flag unused functions, dead imports and unreachable
code in each .py file under root (default $GITHUB_WORKSPACE, then the working
directory), prints a markdown report and saves it. Exits 1 when anything is
found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			root := repoRoot(args)
			if cmd.Flags().Changed("workers") {
				a.cfg.Workers = workers
			}
			if cmd.Flags().Changed("max-depth") {
				a.cfg.StaleMaxDepth = maxDepth
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			s := &stale.Scanner{
				Generator: a.generator(client),
				Progress:  a.progress,
				Logger:    a.logger,
				Workers:   a.cfg.Workers,
				MaxDepth:  a.cfg.StaleMaxDepth,
			}
			res, err := s.Scan(ctx, root)
			if err != nil {
				return err
			}

			md := stale.FormatMarkdown(res.Findings)
			fmt.Fprintln(a.stdout, md)

			em, err := emit.New(".")
			if err != nil {
				return err
			}
			path, err := em.Emit(filepath.Dir(reportFile), filepath.Base(reportFile), md)
			if err != nil {
				return err
			}
			a.progress.Wrote(path)
			a.logger.Info("stale report written",
				zap.String("path", path),
				zap.Int("files", len(res.Files)),
				zap.Int("skipped", res.Skipped),
				zap.Int("findings", len(res.Findings)))

			if len(res.Findings) > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reportFile, "report", stale.ReportFile, "where to save the markdown report")
	cmd.Flags().IntVar(&workers, "workers", 1, "files analysed concurrently")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "deepest path level scanned below root (0 = unlimited)")
	return cmd
}

func repoRoot(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	if ws := os.Getenv("GITHUB_WORKSPACE"); ws != "" {
		return ws
	}
	return "."
}
