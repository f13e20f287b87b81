package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	llmclient "testsmith/internal/llmClient"
)

func (a *app) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models visible to the configured credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			lister, ok := client.(llmclient.ModelLister)
			if !ok {
				return fmt.Errorf("%s cannot list models", client.Name())
			}
			models, err := lister.ListModels(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Available models (%s):\n", a.cfg.Provider)
			for _, m := range models {
				fmt.Fprintf(a.stdout, "  - %s\n", m.Name)
				if len(m.Methods) > 0 {
					fmt.Fprintf(a.stdout, "    Methods: %s\n", strings.Join(m.Methods, ", "))
				}
			}
			return nil
		},
	}
}
