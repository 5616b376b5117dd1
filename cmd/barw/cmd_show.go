package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/timeline"
)

// sampleStats summarizes one sample's lineage.
type sampleStats struct {
	Sample    int `json:"sample"`
	Walkers   int `json:"walkers"`
	Alive     int `json:"alive"`
	Roots     int `json:"roots"`
	Branches  int `json:"branches"`
	LastIter  int `json:"last_iteration"`
	Positions int `json:"positions"`
}

func statsFor(i int, s *lineage.Store) (sampleStats, error) {
	st := sampleStats{Sample: i, Walkers: s.Len(), Alive: s.Alive(), Roots: len(s.Roots())}
	st.Branches = (st.Walkers - st.Roots) / 2

	starts, err := timeline.StartTimes(s)
	if err != nil {
		return st, fmt.Errorf("sample %d: %w", i, err)
	}
	for id, w := range s.Walkers() {
		st.Positions += len(w.Positions)
		st.LastIter = max(st.LastIter, starts[id]+w.Length())
	}
	return st, nil
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show per-sample statistics of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			withSnapshot, _ := cmd.Flags().GetBool("snapshot")

			c, err := env.loadCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			stats := make([]sampleStats, len(c.Samples))
			for i, s := range c.Samples {
				if stats[i], err = statsFor(i, s); err != nil {
					return err
				}
			}

			if env.jsonOut {
				result := map[string]any{
					"id":         c.ID,
					"name":       c.Name,
					"created_at": c.CreatedAt,
					"samples":    stats,
				}
				if withSnapshot {
					result["config"] = c.Config
				}
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Collection %s (%s)\n", c.Name, c.ID)
			fmt.Fprintf(out, "  Created: %s\n\n", c.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "%6s %8s %6s %6s %9s %10s\n", "SAMPLE", "WALKERS", "ALIVE", "ROOTS", "BRANCHES", "LAST ITER")
			for _, st := range stats {
				fmt.Fprintf(out, "%6d %8d %6d %6d %9d %10d\n",
					st.Sample, st.Walkers, st.Alive, st.Roots, st.Branches, st.LastIter)
			}
			if withSnapshot && c.Config != "" {
				fmt.Fprintf(out, "\nConfiguration:\n%s", c.Config)
			}
			return nil
		},
	}

	cmd.Flags().Bool("snapshot", false, "Include the configuration the collection was run with")
	return cmd
}
