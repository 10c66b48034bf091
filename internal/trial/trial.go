// Package trial drives one model instance from its initial state to a
// terminal outcome: fixation on either behavior, a step-limit timeout, or a
// failure surfaced by the model itself.
package trial

import (
	"context"
	"errors"
	"fmt"

	"mimesis/internal/abm"
	"mimesis/internal/model"
)

var ErrInvalidTrial = errors.New("invalid trial configuration")

// Options bound a single trial run.
type Options struct {
	// MaxSteps is the hard step limit; reaching it without fixation yields
	// a timed-out record. Must be positive.
	MaxSteps int
	// RecordSeries keeps the per-step behavior census on the record.
	RecordSeries bool
	// Stop, when set, is consulted after every step and ends the trial
	// early with a timed-out record. Used by callers that watch a
	// statistic rather than fixation.
	Stop func(model.StepCensus) bool
}

// Run advances the model until it reaches a terminal state. The returned
// record is also populated on failure, so callers can persist partial
// progress; the error says why the trial could not finish.
func Run(ctx context.Context, m *abm.Model, opts Options) (model.TrialRecord, error) {
	record := model.TrialRecord{Outcome: model.OutcomeRunning}
	if m == nil {
		record.Outcome = model.OutcomeFailed
		return record, fmt.Errorf("%w: model is required", ErrInvalidTrial)
	}
	if opts.MaxSteps <= 0 {
		record.Outcome = model.OutcomeFailed
		return record, fmt.Errorf("%w: max steps must be > 0, got %d", ErrInvalidTrial, opts.MaxSteps)
	}

	if outcome, done := fixationOutcome(m); done {
		record.Outcome = outcome
		return record, nil
	}

	for step := 0; step < opts.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			record.Outcome = model.OutcomeFailed
			record.Steps = m.Step()
			return record, err
		}
		census, err := m.AdvanceOneStep()
		if err != nil {
			record.Outcome = model.OutcomeFailed
			record.Steps = m.Step()
			return record, err
		}
		if opts.RecordSeries {
			record.Series = append(record.Series, census)
		}
		if outcome, done := fixationOutcome(m); done {
			record.Outcome = outcome
			record.Steps = m.Step()
			return record, nil
		}
		if opts.Stop != nil && opts.Stop(census) {
			record.Outcome = model.OutcomeTimedOut
			record.Steps = m.Step()
			return record, nil
		}
	}

	record.Outcome = model.OutcomeTimedOut
	record.Steps = m.Step()
	return record, nil
}

func fixationOutcome(m *abm.Model) (model.Outcome, bool) {
	behavior, fixated := m.Fixated()
	if !fixated {
		return model.OutcomeRunning, false
	}
	if behavior == model.Adaptive {
		return model.OutcomeFixatedAdaptive, true
	}
	return model.OutcomeFixatedLegacy, true
}
