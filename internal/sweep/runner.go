package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"mimesis/internal/abm"
	"mimesis/internal/checkpoint"
	"mimesis/internal/model"
	"mimesis/internal/stats"
	"mimesis/internal/trial"
)

var ErrInvalidSweep = errors.New("invalid sweep configuration")

// BuildFn constructs the model and trial bounds for one parameter
// combination. The rng is the replicate's private source; every stochastic
// choice in the trial must come from it.
type BuildFn func(params map[string]any, rng *rand.Rand) (*abm.Model, trial.Options, error)

// Config describes one sweep. SweepID may be left empty for a fresh sweep;
// resuming requires the original ID and the identical grid, replicate
// count, and seed, otherwise combination indices would no longer mean the
// same thing.
type Config struct {
	SweepID    string
	Notes      string
	Grid       Grid
	Replicates int
	Seed       int64
	Workers    int
	Build      BuildFn
	Store      checkpoint.Store
	// BaseDir is where the sweep manifest lives. Empty disables manifests.
	BaseDir string
	// ManifestEvery is how many finished replicates pass between manifest
	// rewrites. Zero means every completion.
	ManifestEvery int
	Logger        *slog.Logger
}

// Result is the finished sweep: every replicate record, including ones
// recovered from the checkpoint store on resume.
type Result struct {
	SweepID string
	Records []model.ExperimentRecord
	Resumed int
}

type Runner struct {
	cfg    Config
	logger *slog.Logger
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Build == nil {
		return nil, fmt.Errorf("%w: build function is required", ErrInvalidSweep)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: checkpoint store is required", ErrInvalidSweep)
	}
	if cfg.Replicates <= 0 {
		return nil, fmt.Errorf("%w: replicates must be > 0, got %d", ErrInvalidSweep, cfg.Replicates)
	}
	if err := cfg.Grid.validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SweepID == "" {
		cfg.SweepID = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("sweep_id", cfg.SweepID)
	return &Runner{cfg: cfg, logger: logger}, nil
}

// SweepID returns the identifier the runner persists under.
func (r *Runner) SweepID() string {
	return r.cfg.SweepID
}

type job struct {
	combo     int
	replicate int
	params    map[string]any
}

// Run executes every (combination, replicate) pair not already present in
// the checkpoint store. Finished replicates are persisted as they arrive;
// a canceled context stops dispatch and returns after in-flight trials
// drain, leaving the manifest at in_progress for the next resume.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	combos, err := r.cfg.Grid.Combos()
	if err != nil {
		return Result{}, err
	}
	if err := r.cfg.Store.Init(ctx); err != nil {
		return Result{}, err
	}

	done, err := r.cfg.Store.CompletedKeys(ctx, r.cfg.SweepID)
	if err != nil {
		return Result{}, err
	}
	totalRuns := len(combos) * r.cfg.Replicates
	pending := make([]job, 0, totalRuns)
	for comboIdx, params := range combos {
		for rep := 0; rep < r.cfg.Replicates; rep++ {
			key := checkpoint.Key{SweepID: r.cfg.SweepID, ComboIndex: comboIdx, Replicate: rep}
			if _, ok := done[key]; ok {
				continue
			}
			pending = append(pending, job{combo: comboIdx, replicate: rep, params: params})
		}
	}

	manifest, err := r.openManifest(totalRuns, len(done))
	if err != nil {
		return Result{}, err
	}

	r.logger.Info("sweep starting",
		"combinations", len(combos),
		"replicates", r.cfg.Replicates,
		"pending", len(pending),
		"resumed", len(done),
		"workers", r.cfg.Workers)

	workerCount := r.cfg.Workers
	if workerCount > len(pending) && len(pending) > 0 {
		workerCount = len(pending)
	}

	jobs := make(chan job)
	results := make(chan model.ExperimentRecord)

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- r.runOne(ctx, j)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, j := range pending {
			select {
			case jobs <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single writer: workers never touch the store or the manifest.
	completed := len(done)
	var saveErr error
	for record := range results {
		if err := r.cfg.Store.SaveRecord(ctx, record); err != nil && saveErr == nil {
			saveErr = err
		}
		completed++
		manifest.RunIndex = completed
		if r.cfg.BaseDir != "" && (r.cfg.ManifestEvery <= 0 || completed%r.cfg.ManifestEvery == 0) {
			if err := stats.WriteSweepManifest(r.cfg.BaseDir, manifest); err != nil && saveErr == nil {
				saveErr = err
			}
		}
	}
	if saveErr != nil {
		return Result{SweepID: r.cfg.SweepID}, saveErr
	}
	if err := ctx.Err(); err != nil {
		r.logger.Warn("sweep interrupted", "completed", completed, "total", totalRuns)
		return Result{SweepID: r.cfg.SweepID}, err
	}

	records, err := r.cfg.Store.Records(ctx, r.cfg.SweepID)
	if err != nil {
		return Result{}, err
	}

	manifest.ProgressFlag = stats.ProgressCompleted
	manifest.RunIndex = len(records)
	manifest.CompletedAtUTC = time.Now().UTC().Format(time.RFC3339)
	if r.cfg.BaseDir != "" {
		if err := stats.WriteSweepManifest(r.cfg.BaseDir, manifest); err != nil {
			return Result{}, err
		}
	}

	r.logger.Info("sweep completed", "records", len(records))
	return Result{SweepID: r.cfg.SweepID, Records: records, Resumed: len(done)}, nil
}

func (r *Runner) runOne(ctx context.Context, j job) model.ExperimentRecord {
	record := model.ExperimentRecord{
		SweepID:    r.cfg.SweepID,
		ComboIndex: j.combo,
		Replicate:  j.replicate,
		Params:     j.params,
	}

	rng := rand.New(rand.NewSource(trialSeed(r.cfg.Seed, j.combo, j.replicate)))
	m, opts, err := r.cfg.Build(j.params, rng)
	if err != nil {
		r.logger.Error("replicate build failed",
			"combo", j.combo, "replicate", j.replicate, "error", err)
		record.Outcome = model.OutcomeFailed
		record.Failure = err.Error()
		return record
	}

	trialRecord, err := trial.Run(ctx, m, opts)
	record.Outcome = trialRecord.Outcome
	record.Steps = trialRecord.Steps
	if err != nil {
		r.logger.Error("replicate failed",
			"combo", j.combo, "replicate", j.replicate, "error", err)
		record.Outcome = model.OutcomeFailed
		record.Failure = err.Error()
		return record
	}
	record.Success = trialRecord.Outcome == model.OutcomeFixatedAdaptive
	return record
}

func (r *Runner) openManifest(totalRuns, completed int) (stats.SweepManifest, error) {
	manifest := stats.SweepManifest{
		ID:           r.cfg.SweepID,
		Notes:        r.cfg.Notes,
		ProgressFlag: stats.ProgressInProgress,
		RunIndex:     completed,
		TotalRuns:    totalRuns,
		Seed:         r.cfg.Seed,
		Workers:      r.cfg.Workers,
		StartedAtUTC: time.Now().UTC().Format(time.RFC3339),
		ParamNames:   r.cfg.Grid.ParamNames(),
	}
	if r.cfg.BaseDir == "" {
		return manifest, nil
	}
	existing, ok, err := stats.ReadSweepManifest(r.cfg.BaseDir, r.cfg.SweepID)
	if err != nil {
		return stats.SweepManifest{}, err
	}
	if ok {
		existing.Interruptions = append(existing.Interruptions,
			fmt.Sprintf("resumed at %s with %d/%d runs recorded",
				time.Now().UTC().Format(time.RFC3339), completed, totalRuns))
		existing.ProgressFlag = stats.ProgressInProgress
		existing.RunIndex = completed
		existing.TotalRuns = totalRuns
		manifest = existing
	}
	if err := stats.WriteSweepManifest(r.cfg.BaseDir, manifest); err != nil {
		return stats.SweepManifest{}, err
	}
	return manifest, nil
}

// trialSeed derives the replicate's seed from the sweep seed and the
// replicate's position in the grid. The same triple always yields the same
// seed, so any replicate can be reproduced in isolation.
func trialSeed(global int64, combo, replicate int) int64 {
	h := uint64(global)
	h ^= (uint64(combo) + 1) * 0x9E3779B97F4A7C15
	h ^= (uint64(replicate) + 1) * 0xBF58476D1CE4E5B9
	h ^= h >> 31
	h *= 0x94D049BB133111EB
	h ^= h >> 29
	return int64(h)
}
