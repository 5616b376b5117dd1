package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/backup"
	"github.com/jhsa24/randomwalk/internal/pathutil"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a collection from an archive",
		Long: `Restore a collection from an archive written by 'barw backup'.

The archive checksum and every sample's lineage are verified before
anything is saved. The file must live in ~/.barw/backups or
<root>/.barw/backups.

Examples:
  barw import .barw/backups/baseline-20260206-120000.barw.gz
  barw import .barw/backups/baseline-20260206-120000.barw.gz --name baseline-copy
  barw import .barw/backups/baseline-20260206-120000.barw.gz --replace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			inputPath := args[0]
			name, _ := cmd.Flags().GetString("name")
			replace, _ := cmd.Flags().GetBool("replace")

			allowedDirs, err := pathutil.ArchiveDirs(env.root)
			if err != nil {
				return fmt.Errorf("failed to determine archive directories: %w", err)
			}
			if err := pathutil.ValidatePath(inputPath, allowedDirs); err != nil {
				return fmt.Errorf("archive path rejected: %w", err)
			}
			if name != "" {
				if err := pathutil.ValidateName(name); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			repo, err := env.openRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			c, err := backup.Restore(ctx, repo, inputPath, backup.RestoreOptions{Name: name, Replace: replace})
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			env.logger.Info("collection imported", "name", c.Name, "path", pathutil.RedactPath(inputPath))

			if env.jsonOut {
				return writeJSON(cmd, map[string]any{
					"status":  "imported",
					"name":    c.Name,
					"samples": len(c.Samples),
					"walkers": c.Walkers(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d samples, %d walkers\n", c.Name, len(c.Samples), c.Walkers())
			return nil
		},
	}

	cmd.Flags().String("name", "", "Save under this name instead of the archived one")
	cmd.Flags().Bool("replace", false, "Replace an existing collection with the same name")
	return cmd
}
