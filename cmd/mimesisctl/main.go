package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mimesis/pkg/mimesis"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mimesisctl",
		Short: "Behavior diffusion experiments on social networks",
		Long: `mimesisctl runs stochastic agent-based trials of behavior diffusion:
a population on a network, a payoff model scoring behaviors, and a social
learning rule deciding who adopts what.

Experiments are defined in YAML. Single trials run with "run"; parameter
sweeps run with "sweep start" and survive interruption through the
checkpoint store.`,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("store", "sqlite", "Checkpoint backend: memory or sqlite")
	rootCmd.PersistentFlags().String("db", "mimesis.db", "SQLite checkpoint path")
	rootCmd.PersistentFlags().String("data-dir", ".", "Directory for sweep manifests")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newStrategiesCmd(),
		newPayoffsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mimesisctl version %s\n", version)
		},
	}
}

// newClient builds the shared engine client from the root flags.
func newClient(cmd *cobra.Command) (*mimesis.Client, error) {
	storeKind, _ := cmd.Flags().GetString("store")
	dbPath, _ := cmd.Flags().GetString("db")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return mimesis.New(mimesis.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		SweepsDir: dataDir,
		Logger:    newLogger(cmd),
	})
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
