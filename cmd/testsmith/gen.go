package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"testsmith/internal/emit"
	"testsmith/internal/pipeline/testgen"
	"testsmith/internal/prompt"
	"testsmith/internal/pyast"
)

func (a *app) genCmd() *cobra.Command {
	var (
		dryRun         bool
		stripFences    bool
		skipUnreadable bool
		workers        int
		outputDir      string
		outputFile     string
	)
	cmd := &cobra.Command{
		Use:   "gen [files...]",
		Short: "Generate pytest cases for the public functions of Python files",
		Long: `Extracts every public module-level function from the given files,
sends them to the model as one batch and writes the answer to
tests/test_generated.py. Files outside the source extension or under the
test directory are ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			if cmd.Flags().Changed("strip-fences") {
				cfg.StripFences = stripFences
			}
			if cmd.Flags().Changed("skip-unreadable") {
				cfg.SkipUnreadable = skipUnreadable
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.Output.Dir = outputDir
			}
			if cmd.Flags().Changed("output-file") {
				cfg.Output.File = outputFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			runner := &testgen.Runner{
				Extractor: pyast.NewExtractor(
					pyast.WithCacheSize(cfg.ParseCache),
					pyast.WithMaxFileSize(cfg.MaxFileSize),
				),
				Progress:  a.progress,
				Logger:    a.logger,
				Options: testgen.Options{
					Root:           ".",
					SourceExt:      cfg.Output.SourceExt,
					TestDir:        cfg.Output.TestDir,
					OutputDir:      cfg.Output.Dir,
					OutputFile:     cfg.Output.File,
					StripFences:    cfg.StripFences,
					Workers:        cfg.Workers,
					SkipUnreadable: cfg.SkipUnreadable,
				},
			}

			if dryRun {
				res, err := runner.Collect(ctx, args)
				if err != nil || res.Nothing {
					return err
				}
				fmt.Fprint(a.stdout, prompt.BuildTestPrompt(res.Batch))
				return nil
			}

			// Credential first: no source is read without one.
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			emitter, err := emit.New(".")
			if err != nil {
				return err
			}
			runner.Generator = a.generator(client)
			runner.Emitter = emitter
			_, err = runner.Run(ctx, args)
			return err
		},
	}
	f := cmd.Flags()
	f.BoolVar(&dryRun, "dry-run", false, "print the prompt instead of calling the model")
	f.BoolVar(&stripFences, "strip-fences", false, "remove a markdown code fence around the answer")
	f.BoolVar(&skipUnreadable, "skip-unreadable", false, "warn and continue when a file cannot be read or parsed")
	f.IntVar(&workers, "workers", 1, "files parsed concurrently")
	f.StringVar(&outputDir, "output-dir", "tests", "directory for the generated file")
	f.StringVar(&outputFile, "output-file", "test_generated.py", "name of the generated file")
	return cmd
}
