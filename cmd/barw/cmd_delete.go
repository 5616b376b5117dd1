package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved collection",
		Args:  cobra.ExactArgs(1),
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

			if err := repo.Delete(ctx, args[0]); err != nil {
				return err
			}
			env.logger.Info("collection deleted", "name", args[0])

			if env.jsonOut {
				return writeJSON(cmd, map[string]string{"status": "deleted", "name": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %s\n", args[0])
			return nil
		},
	}
}
