package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mimesis/internal/model"
	"mimesis/pkg/mimesis"
)

func newRunCmd() *cobra.Command {
	var (
		seed   int64
		series bool
	)
	cmd := &cobra.Command{
		Use:   "run <experiment.yaml>",
		Short: "Run a single trial of an experiment file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.RunTrial(cmd.Context(), mimesis.TrialRequest{
				ConfigPath:   args[0],
				Seed:         seed,
				RecordSeries: series,
			})
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(summary)
			}

			fmt.Printf("outcome: %s after %d steps\n", summary.Outcome, summary.Steps)
			fmt.Printf("final:   %d adaptive / %d legacy\n",
				summary.FinalCounts[model.Adaptive], summary.FinalCounts[model.Legacy])
			if series {
				for _, census := range summary.Series {
					fmt.Printf("  step %4d: %d adaptive\n", census.Step, census.Counts[model.Adaptive])
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override the experiment seed")
	cmd.Flags().BoolVar(&series, "series", false, "Print the per-step census")
	return cmd
}
