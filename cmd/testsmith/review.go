package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"testsmith/internal/pipeline/review"
)

func (a *app) reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review [diff-file]",
		Short: "Review a unified diff for security, logic and performance issues",
		Long:  "Reads a unified diff from the named file, or from stdin when no file is given, and prints the model's review.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			var raw []byte
			if len(args) == 1 {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(a.stdin)
			}
			if err != nil {
				return fmt.Errorf("read diff: %w", err)
			}

			r := &review.Reviewer{Generator: a.generator(client), Logger: a.logger}
			text, err := r.Review(ctx, string(raw))
			if errors.Is(err, review.ErrEmptyDiff) {
				a.progress.Nothing("No changes to review.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, text)
			if !strings.HasSuffix(text, "\n") {
				fmt.Fprintln(a.stdout)
			}
			return nil
		},
	}
}
