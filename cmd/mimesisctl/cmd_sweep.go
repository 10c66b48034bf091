package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mimesis/pkg/mimesis"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run and inspect parameter sweeps",
		Long: `A sweep expands the experiment file's grid into every parameter
combination, runs the configured number of replicates per combination, and
checkpoints each finished replicate. An interrupted sweep resumes with
"sweep continue" and the original sweep id.`,
	}
	cmd.AddCommand(
		newSweepStartCmd(),
		newSweepContinueCmd(),
		newSweepShowCmd(),
		newSweepListCmd(),
		newSweepSummarizeCmd(),
	)
	return cmd
}

func newSweepStartCmd() *cobra.Command {
	var (
		id      string
		notes   string
		seed    int64
		workers int
	)
	cmd := &cobra.Command{
		Use:   "start <experiment.yaml>",
		Short: "Start a sweep over the experiment's parameter grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, args[0], id, notes, seed, workers)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Sweep id (generated when empty)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes stored in the manifest")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override the experiment seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override the worker count")
	return cmd
}

func newSweepContinueCmd() *cobra.Command {
	var (
		seed    int64
		workers int
	)
	cmd := &cobra.Command{
		Use:   "continue <experiment.yaml> <sweep-id>",
		Short: "Resume an interrupted sweep",
		Long: `Resume requires the same experiment file and seed as the original
run; finished replicates are skipped, everything else is recomputed with
its original per-replicate seed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, args[0], args[1], "", seed, workers)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override the experiment seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override the worker count")
	return cmd
}

func runSweep(cmd *cobra.Command, configPath, id, notes string, seed int64, workers int) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.RunSweep(cmd.Context(), mimesis.SweepRequest{
		ConfigPath: configPath,
		SweepID:    id,
		Notes:      notes,
		Seed:       seed,
		Workers:    workers,
	})
	if err != nil {
		if summary.SweepID != "" {
			fmt.Fprintf(os.Stderr, "sweep %s stopped; resume with: mimesisctl sweep continue %s %s\n",
				summary.SweepID, configPath, summary.SweepID)
		}
		return err
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}
	fmt.Printf("sweep %s: %d records (%d resumed), %d successes, %d failures\n",
		summary.SweepID, summary.Records, summary.Resumed, summary.Successes, summary.Failures)
	return nil
}

func newSweepShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <sweep-id>",
		Short: "Show a sweep's manifest and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			manifest, ok, err := client.Sweep(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no sweep named %q", args[0])
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(manifest)
			}
			fmt.Printf("sweep:    %s\n", manifest.ID)
			fmt.Printf("progress: %s (%d/%d runs)\n", manifest.ProgressFlag, manifest.RunIndex, manifest.TotalRuns)
			fmt.Printf("seed:     %d\n", manifest.Seed)
			if manifest.Notes != "" {
				fmt.Printf("notes:    %s\n", manifest.Notes)
			}
			if len(manifest.ParamNames) > 0 {
				fmt.Printf("params:   %s\n", strings.Join(manifest.ParamNames, ", "))
			}
			if manifest.StartedAtUTC != "" {
				fmt.Printf("started:  %s\n", manifest.StartedAtUTC)
			}
			if manifest.CompletedAtUTC != "" {
				fmt.Printf("done:     %s\n", manifest.CompletedAtUTC)
			}
			for _, note := range manifest.Interruptions {
				fmt.Printf("  interruption: %s\n", note)
			}
			return nil
		},
	}
}

func newSweepListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known sweeps, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			manifests, err := client.Sweeps()
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(manifests)
			}
			if len(manifests) == 0 {
				fmt.Println("no sweeps recorded")
				return nil
			}
			for _, manifest := range manifests {
				fmt.Printf("%-36s  %-11s  %d/%d runs  %s\n",
					manifest.ID, manifest.ProgressFlag, manifest.RunIndex, manifest.TotalRuns, manifest.StartedAtUTC)
			}
			return nil
		},
	}
}

func newSweepSummarizeCmd() *cobra.Command {
	var groupBy []string
	cmd := &cobra.Command{
		Use:   "summarize <sweep-id>",
		Short: "Aggregate a sweep's records per parameter combination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			rows, err := client.Summarize(cmd.Context(), mimesis.SummarizeRequest{
				SweepID: args[0],
				GroupBy: groupBy,
			})
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(rows)
			}
			if len(rows) == 0 {
				fmt.Println("no records for this sweep")
				return nil
			}
			for _, row := range rows {
				fmt.Printf("%s\n", row.Key)
				fmt.Printf("  replicates: %d  success_rate: %.3f  mean_fixation: %.1f (sd %.1f)",
					row.Replicates, row.SuccessRate, row.MeanTimeToFixation, row.StdTimeToFixation)
				if row.TimedOut > 0 || row.Failures > 0 {
					fmt.Printf("  timed_out: %d  failed: %d", row.TimedOut, row.Failures)
				}
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&groupBy, "group-by", nil, "Group by these parameters instead of the full combination")
	return cmd
}
