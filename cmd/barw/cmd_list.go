package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/store"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			repo, err := env.openRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			summaries, err := repo.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list collections: %w", err)
			}
			if summaries == nil {
				summaries = []store.Summary{}
			}

			if env.jsonOut {
				return writeJSON(cmd, map[string]any{
					"collections": summaries,
					"count":       len(summaries),
				})
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No collections saved. Run 'barw run --name <name>' to create one.")
				return nil
			}
			fmt.Fprintf(out, "%-24s %8s %10s  %s\n", "NAME", "SAMPLES", "WALKERS", "CREATED")
			for _, s := range summaries {
				fmt.Fprintf(out, "%-24s %8d %10d  %s\n", s.Name, s.Samples, s.Walkers, s.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
