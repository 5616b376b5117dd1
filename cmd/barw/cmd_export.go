package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/timeline"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Export a collection's flattened timeline as an Arrow IPC stream",
		Long: `Write one row per recorded position (x, y, iteration, angle, walker_id,
parent_id, sample_id) in the Arrow IPC stream format, readable by pyarrow,
polars, DuckDB and other Arrow tools.

Examples:
  barw export baseline --out baseline.arrow
  barw export baseline --sample 0 --out first.arrow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			sample, _ := cmd.Flags().GetInt("sample")

			c, err := env.loadCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tl, err := timeline.Build(c.Samples)
			if err != nil {
				return err
			}
			if sample >= 0 {
				tl = tl.Samples(sample)
			}
			if err := writeArrowFile(out, tl); err != nil {
				return err
			}
			env.logger.Info("timeline exported", "name", c.Name, "rows", tl.Len(), "path", out)

			if env.jsonOut {
				return writeJSON(cmd, map[string]any{
					"name": c.Name,
					"path": out,
					"rows": tl.Len(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", tl.Len(), out)
			return nil
		},
	}

	cmd.Flags().String("out", "", "Output file (required)")
	cmd.Flags().Int("sample", -1, "Export only one sample (default: all)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
