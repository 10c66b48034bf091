// Package mimesis is the embedding surface of the diffusion engine. It
// wraps the internal packages behind a Client so host programs and the CLI
// share one code path for trials, sweeps, and summaries.
package mimesis

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"mimesis/internal/checkpoint"
	"mimesis/internal/config"
	"mimesis/internal/model"
	"mimesis/internal/payoff"
	"mimesis/internal/stats"
	"mimesis/internal/strategy"
	"mimesis/internal/sweep"
	"mimesis/internal/trial"
)

const (
	defaultDBPath    = "mimesis.db"
	defaultSweepsDir = "."
)

type Options struct {
	// StoreKind selects the checkpoint backend: "memory" (default) or
	// "sqlite".
	StoreKind string
	DBPath    string
	// SweepsDir is where sweep manifests live.
	SweepsDir string
	Logger    *slog.Logger
}

type Client struct {
	store     checkpoint.Store
	sweepsDir string
	logger    *slog.Logger
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	sweepsDir := opts.SweepsDir
	if sweepsDir == "" {
		sweepsDir = defaultSweepsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store, err := checkpoint.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, sweepsDir: sweepsDir, logger: logger}, nil
}

func (c *Client) Close() error {
	return checkpoint.CloseIfSupported(c.store)
}

type TrialRequest struct {
	ConfigPath string
	// Seed overrides the experiment file's seed when non-zero.
	Seed int64
	// RecordSeries forces the per-step census on, regardless of the file.
	RecordSeries bool
}

type TrialSummary struct {
	Outcome     model.Outcome
	Steps       int
	FinalCounts map[model.Behavior]int
	Series      []model.StepCensus
}

// RunTrial runs the experiment file once and returns its terminal state.
func (c *Client) RunTrial(ctx context.Context, req TrialRequest) (TrialSummary, error) {
	exp, err := config.Load(req.ConfigPath)
	if err != nil {
		return TrialSummary{}, err
	}
	seed := exp.Seed
	if req.Seed != 0 {
		seed = req.Seed
	}
	rng := rand.New(rand.NewSource(seed))
	m, opts, err := exp.BuildModel(rng)
	if err != nil {
		return TrialSummary{}, err
	}
	if req.RecordSeries {
		opts.RecordSeries = true
	}
	record, err := trial.Run(ctx, m, opts)
	if err != nil {
		return TrialSummary{}, err
	}
	c.logger.Info("trial finished", "outcome", record.Outcome, "steps", record.Steps)
	return TrialSummary{
		Outcome:     record.Outcome,
		Steps:       record.Steps,
		FinalCounts: m.Counts(),
		Series:      record.Series,
	}, nil
}

type SweepRequest struct {
	ConfigPath string
	// SweepID resumes an existing sweep when set; empty starts a fresh one.
	SweepID string
	Notes   string
	// Seed and Workers override the experiment file when non-zero.
	Seed    int64
	Workers int
}

type SweepSummary struct {
	SweepID   string
	Records   int
	Resumed   int
	Successes int
	Failures  int
}

// RunSweep expands the experiment's grid and runs every replicate not yet
// checkpointed under the sweep id.
func (c *Client) RunSweep(ctx context.Context, req SweepRequest) (SweepSummary, error) {
	exp, err := config.Load(req.ConfigPath)
	if err != nil {
		return SweepSummary{}, err
	}
	seed := exp.Seed
	if req.Seed != 0 {
		seed = req.Seed
	}
	workers := exp.Workers
	if req.Workers > 0 {
		workers = req.Workers
	}
	runner, err := sweep.NewRunner(sweep.Config{
		SweepID:    req.SweepID,
		Notes:      req.Notes,
		Grid:       exp.Grid,
		Replicates: exp.Replicates,
		Seed:       seed,
		Workers:    workers,
		Build:      exp.BuildFn(),
		Store:      c.store,
		BaseDir:    c.sweepsDir,
		Logger:     c.logger,
	})
	if err != nil {
		return SweepSummary{}, err
	}
	result, err := runner.Run(ctx)
	if err != nil {
		return SweepSummary{SweepID: runner.SweepID()}, err
	}
	summary := SweepSummary{SweepID: result.SweepID, Records: len(result.Records), Resumed: result.Resumed}
	for _, record := range result.Records {
		if record.Success {
			summary.Successes++
		}
		if record.Outcome == model.OutcomeFailed {
			summary.Failures++
		}
	}
	return summary, nil
}

type SummarizeRequest struct {
	SweepID string
	GroupBy []string
}

// Summarize aggregates the sweep's checkpointed records into one row per
// parameter grouping.
func (c *Client) Summarize(ctx context.Context, req SummarizeRequest) ([]stats.SummaryRow, error) {
	if req.SweepID == "" {
		return nil, fmt.Errorf("sweep id is required")
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	records, err := c.store.Records(ctx, req.SweepID)
	if err != nil {
		return nil, err
	}
	return stats.Summarize(records, req.GroupBy), nil
}

// Records returns the raw checkpointed rows of one sweep.
func (c *Client) Records(ctx context.Context, sweepID string) ([]model.ExperimentRecord, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	return c.store.Records(ctx, sweepID)
}

// Sweeps lists known sweep manifests, newest first.
func (c *Client) Sweeps() ([]stats.SweepManifest, error) {
	return stats.ListSweepManifests(c.sweepsDir)
}

// Sweep fetches one sweep's manifest.
func (c *Client) Sweep(id string) (stats.SweepManifest, bool, error) {
	return stats.ReadSweepManifest(c.sweepsDir, id)
}

// Strategies lists the registered learning strategies.
func (c *Client) Strategies() []string {
	return strategy.List()
}

// Payoffs lists the registered payoff models.
func (c *Client) Payoffs() []string {
	return payoff.List()
}
