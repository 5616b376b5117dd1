package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/config"
	"github.com/jhsa24/randomwalk/internal/constants"
	"github.com/jhsa24/randomwalk/internal/store"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .barw directory with a default config",
		Long: `Create the barw data directory and write a default config.yaml.

By default the directory is <root>/.barw; with --global it is ~/.barw.
An existing config.yaml is left alone unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			global, _ := cmd.Flags().GetBool("global")
			force, _ := cmd.Flags().GetBool("force")

			scope := constants.ScopeLocal
			if global {
				scope = constants.ScopeGlobal
			}
			dir, err := store.DataDir(scope, root)
			if err != nil {
				return err
			}
			if err := store.EnsureDir(dir); err != nil {
				return err
			}

			path := filepath.Join(dir, config.FileName)
			status := "initialized"
			if _, err := os.Stat(path); err == nil && !force {
				status = "exists"
			} else {
				if err := config.Default().SaveToFile(path); err != nil {
					return err
				}
			}

			if jsonOut {
				return writeJSON(cmd, map[string]string{
					"status": status,
					"path":   dir,
					"scope":  scope.String(),
				})
			}
			out := cmd.OutOrStdout()
			if status == "exists" {
				fmt.Fprintf(out, "Already initialized: %s (use --force to rewrite config.yaml)\n", dir)
				return nil
			}
			fmt.Fprintf(out, "Initialized %s\n", dir)
			fmt.Fprintf(out, "  Config: %s\n", path)
			return nil
		},
	}

	cmd.Flags().Bool("global", false, "Initialize ~/.barw instead of <root>/.barw")
	cmd.Flags().Bool("force", false, "Overwrite an existing config.yaml with defaults")
	return cmd
}
