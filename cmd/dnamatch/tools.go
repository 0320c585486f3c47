package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/orneryd/dnamatch/pkg/dnarange"
	"github.com/orneryd/dnamatch/pkg/kinship"
)

func newRangesCmd() *cobra.Command {
	rangesCmd := &cobra.Command{
		Use:   "ranges",
		Short: "Print the expected shared-cM range of each relationship",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, _ := cmd.Flags().GetInt("cm")
			table := dnarange.Default()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "RELATIONSHIP\tMIN\tAVERAGE\tMAX\t")
			for _, label := range table.Labels() {
				r, _ := table.Lookup(label)
				if cm > 0 && !r.Contains(cm) {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t\n", label, r.Min, r.Average, r.Max)
			}
			return w.Flush()
		},
	}
	rangesCmd.Flags().Int("cm", 0, "Only relationships whose range contains this value")
	return rangesCmd
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <generations-me> <generations-them>",
		Short: "Name the relationship for a pair of generation distances",
		Long: `Name the relationship between two people from their generation distances
to the closest shared ancestor family, e.g. "classify 2 2" prints 1C.

Negative distances must follow "--" so they are not read as flags:
  dnamatch classify -- -1 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("generations-me: %w", err)
			}
			them, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("generations-them: %w", err)
			}

			label := kinship.Classify(me, them)
			out := cmd.OutOrStdout()
			if rule := kinship.Rule(me, them); rule != "" {
				fmt.Fprintf(out, "%s\t(%s)\n", label, rule)
				return nil
			}
			fmt.Fprintln(out, label)
			return nil
		},
	}
}
