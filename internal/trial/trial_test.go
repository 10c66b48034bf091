package trial

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"mimesis/internal/abm"
	"mimesis/internal/model"
	"mimesis/internal/network"
	"mimesis/internal/payoff"
	"mimesis/internal/strategy"
)

func buildModel(t *testing.T, n int, alpha, drop float64, adopters []int, seed int64) *abm.Model {
	t.Helper()
	net, err := network.NewComplete(n)
	if err != nil {
		t.Fatalf("NewComplete: %v", err)
	}
	rule, err := strategy.NewContagion(strategy.Rates{Base: alpha})
	if err != nil {
		t.Fatalf("NewContagion: %v", err)
	}
	table, err := payoff.NewTable("flat", map[model.Behavior]float64{
		model.Legacy:   1,
		model.Adaptive: 1,
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	params := abm.Params{Strategy: rule, Payoff: table, AdoptionRate: alpha, DropRate: drop}
	m, err := abm.New(net, params, adopters, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("abm.New: %v", err)
	}
	return m
}

func TestRunRejectsNonPositiveStepLimit(t *testing.T) {
	m := buildModel(t, 4, 1, 0, []int{0}, 1)
	record, err := Run(context.Background(), m, Options{MaxSteps: 0})
	if !errors.Is(err, ErrInvalidTrial) {
		t.Fatalf("expected ErrInvalidTrial, got %v", err)
	}
	if record.Outcome != model.OutcomeFailed {
		t.Fatalf("outcome = %q, want failed", record.Outcome)
	}
}

func TestAlreadyFixatedReturnsWithoutStepping(t *testing.T) {
	m := buildModel(t, 4, 1, 0, nil, 1)
	record, err := Run(context.Background(), m, Options{MaxSteps: 100})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.Outcome != model.OutcomeFixatedLegacy {
		t.Fatalf("outcome = %q, want fixated_legacy", record.Outcome)
	}
	if record.Steps != 0 {
		t.Fatalf("steps = %d, want 0", record.Steps)
	}
}

// On a two-agent graph the legacy agent's single neighbor is the adopter,
// so contagion with α=1 gives adoption probability α·|m|/|n| = 1 and the
// trial fixates adaptive in exactly one step.
func TestCertainContagionFixatesAdaptiveInOneStep(t *testing.T) {
	m := buildModel(t, 2, 1, 0, []int{0}, 1)
	record, err := Run(context.Background(), m, Options{MaxSteps: 100, RecordSeries: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.Outcome != model.OutcomeFixatedAdaptive {
		t.Fatalf("outcome = %q, want fixated_adaptive", record.Outcome)
	}
	if record.Steps != 1 {
		t.Fatalf("steps = %d, want 1", record.Steps)
	}
	if len(record.Series) != 1 || record.Series[0].Counts[model.Adaptive] != 2 {
		t.Fatalf("unexpected series %+v", record.Series)
	}
}

// With more neighbors the per-step probability is only |m|/|n|, so fixation
// takes several steps; adaptive is absorbing with no drop, so it still
// arrives well inside the bound.
func TestContagionEventuallyFixatesAdaptive(t *testing.T) {
	m := buildModel(t, 8, 1, 0, []int{0}, 1)
	record, err := Run(context.Background(), m, Options{MaxSteps: 1000, RecordSeries: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.Outcome != model.OutcomeFixatedAdaptive {
		t.Fatalf("outcome = %q, want fixated_adaptive", record.Outcome)
	}
	if record.Steps < 1 || record.Steps != len(record.Series) {
		t.Fatalf("steps = %d with %d series entries", record.Steps, len(record.Series))
	}
	final := record.Series[len(record.Series)-1]
	if final.Counts[model.Adaptive] != 8 {
		t.Fatalf("final census %+v, want 8 adaptive", final.Counts)
	}
}

// Certain drop reverts the seed immediately, fixating on legacy.
func TestCertainDropFixatesLegacy(t *testing.T) {
	m := buildModel(t, 8, 0, 1, []int{0}, 1)
	record, err := Run(context.Background(), m, Options{MaxSteps: 100})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.Outcome != model.OutcomeFixatedLegacy {
		t.Fatalf("outcome = %q, want fixated_legacy", record.Outcome)
	}
}

// With adoption and drop both impossible the mixed state persists until the
// step limit.
func TestStepLimitTimesOut(t *testing.T) {
	m := buildModel(t, 8, 0, 0, []int{0}, 1)
	record, err := Run(context.Background(), m, Options{MaxSteps: 25})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.Outcome != model.OutcomeTimedOut {
		t.Fatalf("outcome = %q, want timed_out", record.Outcome)
	}
	if record.Steps != 25 {
		t.Fatalf("steps = %d, want 25", record.Steps)
	}
}

func TestCanceledContextFailsTrial(t *testing.T) {
	m := buildModel(t, 8, 0, 0, []int{0}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	record, err := Run(ctx, m, Options{MaxSteps: 100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if record.Outcome != model.OutcomeFailed {
		t.Fatalf("outcome = %q, want failed", record.Outcome)
	}
}

func TestStopPredicateEndsTrialEarly(t *testing.T) {
	m := buildModel(t, 8, 0, 0, []int{0}, 1)
	stop := func(census model.StepCensus) bool { return census.Step >= 3 }
	record, err := Run(context.Background(), m, Options{MaxSteps: 100, Stop: stop})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.Outcome != model.OutcomeTimedOut {
		t.Fatalf("outcome = %q, want timed_out", record.Outcome)
	}
	if record.Steps != 3 {
		t.Fatalf("steps = %d, want 3", record.Steps)
	}
}

func TestModelErrorBecomesFailedOutcome(t *testing.T) {
	// An isolated agent under a dyad-dependent payoff aborts the trial.
	net, err := network.NewFromEdges(3, [][2]int{{0, 1}})
	if err != nil {
		t.Fatalf("NewFromEdges: %v", err)
	}
	rule, err := strategy.NewContagion(strategy.Rates{Base: 1})
	if err != nil {
		t.Fatalf("NewContagion: %v", err)
	}
	game, err := payoff.NewCorrelative("game", model.Adaptive, model.Legacy, 5, 3, 1, 0)
	if err != nil {
		t.Fatalf("NewCorrelative: %v", err)
	}
	m, err := abm.New(net, abm.Params{Strategy: rule, Payoff: game, AdoptionRate: 1}, []int{0}, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("abm.New: %v", err)
	}
	record, err := Run(context.Background(), m, Options{MaxSteps: 10})
	if !errors.Is(err, abm.ErrIsolatedAgent) {
		t.Fatalf("expected ErrIsolatedAgent, got %v", err)
	}
	if record.Outcome != model.OutcomeFailed {
		t.Fatalf("outcome = %q, want failed", record.Outcome)
	}
}
