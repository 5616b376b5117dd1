package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/backup"
	"github.com/jhsa24/randomwalk/internal/pathutil"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup <name>",
		Short: "Write a collection to a checksummed archive file",
		Long: `Archive a saved collection to a compressed, checksummed file.

Default location: <data dir>/backups/<name>-YYYYMMDD-HHMMSS.barw.gz
Archives in that directory are pruned according to the backup retention
settings (default: keep the last 10).

Examples:
  barw backup baseline                          # Archive to the default location
  barw backup baseline --out .barw/backups/b.barw.gz
  barw backup list                              # List archives
  barw backup verify <file>                     # Verify archive integrity`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			name := args[0]
			outputPath, _ := cmd.Flags().GetString("out")

			if outputPath == "" {
				dir, err := env.archiveDir()
				if err != nil {
					return fmt.Errorf("failed to get archive directory: %w", err)
				}
				outputPath = backup.GeneratePath(dir, name)
			} else {
				allowedDirs, err := pathutil.ArchiveDirs(env.root)
				if err != nil {
					return fmt.Errorf("failed to determine archive directories: %w", err)
				}
				if err := pathutil.ValidatePath(outputPath, allowedDirs); err != nil {
					return fmt.Errorf("archive path rejected: %w", err)
				}
			}

			ctx := cmd.Context()
			repo, err := env.openRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			header, err := backup.Backup(ctx, repo, name, outputPath)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			var deleted []string
			policy, err := env.cfg.Backup.Policy()
			if err != nil {
				return err
			}
			if policy != nil {
				deleted, err = backup.ApplyRetention(filepath.Dir(outputPath), policy)
				if err != nil {
					env.logger.Warn("failed to apply retention", "error", err)
				}
			}
			env.logger.Info("collection archived", "name", name, "path", pathutil.RedactPath(outputPath))

			if env.jsonOut {
				var sizeBytes int64
				if info, err := os.Stat(outputPath); err == nil {
					sizeBytes = info.Size()
				}
				return writeJSON(cmd, map[string]any{
					"path":       outputPath,
					"name":       header.Name,
					"samples":    header.Samples,
					"walkers":    header.Walkers,
					"checksum":   header.Checksum,
					"size_bytes": sizeBytes,
					"pruned":     len(deleted),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Archived %s: %d samples, %d walkers\n", header.Name, header.Samples, header.Walkers)
			fmt.Fprintf(out, "  Path: %s\n", outputPath)
			if len(deleted) > 0 {
				fmt.Fprintf(out, "  Pruned %d old archive(s)\n", len(deleted))
			}
			return nil
		},
	}

	cmd.Flags().String("out", "", "Output file path (default: auto-generated in the archive directory)")

	cmd.AddCommand(
		newBackupListCmd(),
		newBackupVerifyCmd(),
	)
	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archives with metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			dir, err := env.archiveDir()
			if err != nil {
				return fmt.Errorf("failed to get archive directory: %w", err)
			}

			archives, err := backup.ListArchives(dir)
			if err != nil {
				return fmt.Errorf("failed to list archives: %w", err)
			}
			if archives == nil {
				archives = []backup.ArchiveInfo{}
			}

			if env.jsonOut {
				return writeJSON(cmd, map[string]any{
					"archives":    archives,
					"total_count": len(archives),
					"directory":   dir,
				})
			}

			out := cmd.OutOrStdout()
			if len(archives) == 0 {
				fmt.Fprintf(out, "No archives found in %s\n", dir)
				return nil
			}
			fmt.Fprintf(out, "Archives in %s:\n", dir)
			var totalSize int64
			for _, a := range archives {
				totalSize += a.Size
				fmt.Fprintf(out, "  %-40s %-20s %10d bytes  %s\n",
					filepath.Base(a.Path), a.Name, a.Size, a.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(out, "Total: %d archive(s), %d bytes\n", len(archives), totalSize)
			return nil
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify archive integrity",
		Long: `Verify the integrity of an archive by checking its SHA-256 checksum.

Examples:
  barw backup verify .barw/backups/baseline-20260206-120000.barw.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")

			verr := backup.Verify(filePath)
			if jsonOut {
				result := map[string]any{
					"file":  filePath,
					"valid": verr == nil,
				}
				if verr != nil {
					result["error"] = verr.Error()
				}
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
				return verr
			}
			if verr != nil {
				return fmt.Errorf("verification failed: %w", verr)
			}

			header, err := backup.ReadHeader(filePath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Archive OK: %s\n", filePath)
			fmt.Fprintf(out, "  Collection: %s (%d samples, %d walkers)\n", header.Name, header.Samples, header.Walkers)
			fmt.Fprintf(out, "  Checksum:   %s\n", header.Checksum)
			return nil
		},
	}
}
