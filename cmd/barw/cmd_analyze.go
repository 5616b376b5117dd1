package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/constants"
	"github.com/jhsa24/randomwalk/internal/particle"
	"github.com/jhsa24/randomwalk/internal/timeline"
)

// Analyses understood by `barw analyze`.
const (
	analysisMSD     = "msd"
	analysisWalkers = "walkers"
	analysisAngles  = "angles"
	analysisLengths = "lengths"
	analysisSomas   = "somas"
	analysisAt      = "walkers-at"
)

var analyses = []string{analysisMSD, analysisWalkers, analysisAngles, analysisLengths, analysisSomas, analysisAt}

// walkersAt is the snapshot of one sample at one global iteration, with the
// bounding box of the sample's whole history for plotting on fixed axes.
type walkersAt struct {
	Sample    int              `json:"sample"`
	Iteration int              `json:"iteration"`
	Positions []particle.Point `json:"positions"`
	Min       particle.Point   `json:"min"`
	Max       particle.Point   `json:"max"`
}

func snapshotAt(tl *timeline.Timeline, sample, iteration int) (walkersAt, error) {
	st := tl.Samples(sample)
	if st.Len() == 0 {
		return walkersAt{}, fmt.Errorf("sample %d has no rows in the selected window", sample)
	}
	if iteration < 0 {
		iteration = st.MaxIteration()
	}
	lo, hi := st.Extent()
	positions := st.PositionsByIteration(sample)[iteration]
	if positions == nil {
		positions = []particle.Point{}
	}
	return walkersAt{Sample: sample, Iteration: iteration, Positions: positions, Min: lo, Max: hi}, nil
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <name> <" + strings.Join(analyses, "|") + ">",
		Short: "Compute a reduction over a saved collection",
		Long: `Reconstruct the timeline of a collection and reduce it:

  msd      mean squared distance from the origin per global iteration
  walkers  mean number of distinct active positions per iteration
  angles   density histogram of recorded headings over [0, 2π)
  lengths  recorded positions per walker
  somas    root birth points of one sample (default 0)
  walkers-at
           positions of one sample (default 0) at --iteration (default
           last), with the bounding box of its whole history

Examples:
  barw analyze baseline msd
  barw analyze baseline angles --bins 72
  barw analyze baseline walkers --sample 2 --from 0 --to 100
  barw analyze baseline walkers-at --sample 1 --iteration 40`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: analyses,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			name, kind := args[0], args[1]
			sample, _ := cmd.Flags().GetInt("sample")
			bins, _ := cmd.Flags().GetInt("bins")
			from, _ := cmd.Flags().GetInt("from")
			to, _ := cmd.Flags().GetInt("to")
			iteration, _ := cmd.Flags().GetInt("iteration")

			if bins < 1 {
				return fmt.Errorf("--bins must be positive, got %d", bins)
			}

			c, err := env.loadCollection(cmd.Context(), name)
			if err != nil {
				return err
			}
			tl, err := timeline.Build(c.Samples)
			if err != nil {
				return err
			}
			if sample >= 0 {
				if sample >= len(c.Samples) {
					return fmt.Errorf("sample %d out of range (collection has %d)", sample, len(c.Samples))
				}
				tl = tl.Samples(sample)
			}
			if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") {
				if to < 0 {
					to = tl.MaxIteration()
				}
				tl = tl.Window(from, to)
			}

			var result any
			switch kind {
			case analysisMSD:
				result = tl.MeanSquaredDistance()
			case analysisWalkers:
				result = tl.ActiveWalkers()
			case analysisAngles:
				result = tl.AngleHistogram(bins)
			case analysisLengths:
				result = tl.BranchLengths()
			case analysisSomas:
				result = tl.Somas(max(sample, 0))
			case analysisAt:
				if result, err = snapshotAt(tl, max(sample, 0), iteration); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown analysis %q (valid: %s)", kind, strings.Join(analyses, ", "))
			}

			if env.jsonOut {
				return writeJSON(cmd, map[string]any{
					"name":     name,
					"analysis": kind,
					"result":   result,
				})
			}
			printAnalysis(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().Int("sample", -1, "Restrict to one sample (default: all)")
	cmd.Flags().Int("bins", constants.DefaultAngleHistogram, "Histogram bins for angles")
	cmd.Flags().Int("from", 0, "First global iteration to include")
	cmd.Flags().Int("to", -1, "Last global iteration to include (default: last)")
	cmd.Flags().Int("iteration", -1, "Global iteration for walkers-at (default: last)")
	return cmd
}

func printAnalysis(out io.Writer, result any) {
	switch r := result.(type) {
	case timeline.Series:
		fmt.Fprintf(out, "%10s %14s\n", "ITERATION", "VALUE")
		for i, it := range r.Iterations {
			fmt.Fprintf(out, "%10d %14.6f\n", it, r.Values[i])
		}
	case timeline.Histogram:
		fmt.Fprintf(out, "%10s %10s %12s\n", "FROM", "TO", "DENSITY")
		for i, d := range r.Density {
			fmt.Fprintf(out, "%10.4f %10.4f %12.6f\n", r.Edges[i], r.Edges[i+1], d)
		}
	case []int:
		fmt.Fprintf(out, "%8s %10s\n", "INDEX", "POSITIONS")
		for i, n := range r {
			fmt.Fprintf(out, "%8d %10d\n", i, n)
		}
	case walkersAt:
		fmt.Fprintf(out, "Sample %d, iteration %d: %d walkers\n", r.Sample, r.Iteration, len(r.Positions))
		fmt.Fprintf(out, "Extent: (%.3f, %.3f) to (%.3f, %.3f)\n\n", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
		fmt.Fprintf(out, "%12s %12s\n", "X", "Y")
		for _, p := range r.Positions {
			fmt.Fprintf(out, "%12.4f %12.4f\n", p.X, p.Y)
		}
	default:
		fmt.Fprintf(out, "%v\n", r)
	}
}
