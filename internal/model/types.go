package model

import (
	"fmt"
	"sort"
	"strconv"
)

// Behavior identifies one discrete behavior an agent can perform. The engine
// ships the two-state legacy/adaptive abstraction; role-based payoff models
// may introduce additional behaviors.
type Behavior string

const (
	Legacy   Behavior = "legacy"
	Adaptive Behavior = "adaptive"
)

// Outcome is the terminal state of a trial.
type Outcome string

const (
	OutcomeRunning         Outcome = "running"
	OutcomeFixatedAdaptive Outcome = "fixated_adaptive"
	OutcomeFixatedLegacy   Outcome = "fixated_legacy"
	OutcomeTimedOut        Outcome = "timed_out"
	// OutcomeFailed marks a replicate whose trial aborted with a runtime
	// error; the sweep records it instead of discarding the replicate.
	OutcomeFailed Outcome = "failed"
)

// Terminal reports whether the outcome has no outgoing transitions.
func (o Outcome) Terminal() bool {
	switch o {
	case OutcomeFixatedAdaptive, OutcomeFixatedLegacy, OutcomeTimedOut, OutcomeFailed:
		return true
	default:
		return false
	}
}

// StepCensus is the per-behavior population count after one step.
type StepCensus struct {
	Step   int              `json:"step"`
	Counts map[Behavior]int `json:"counts"`
}

// TrialRecord is the full output of one trial: the ordered per-step series
// plus the terminal state and terminating step index.
type TrialRecord struct {
	Outcome Outcome      `json:"outcome"`
	Steps   int          `json:"steps"`
	Series  []StepCensus `json:"series"`
}

// ExperimentRecord is one sweep row per (parameter combination, replicate).
type ExperimentRecord struct {
	SweepID    string         `json:"sweep_id"`
	ComboIndex int            `json:"combo_index"`
	Replicate  int            `json:"replicate"`
	Params     map[string]any `json:"params"`
	Outcome    Outcome        `json:"outcome"`
	Steps      int            `json:"steps"`
	Success    bool           `json:"success"`
	Failure    string         `json:"failure,omitempty"`
}

// ParamKey renders parameter values as a canonical sorted key so that grouped
// aggregation and checkpoint lookups stay stable across JSON round trips.
// When names is empty every parameter participates, in sorted order.
func ParamKey(params map[string]any, names []string) string {
	keys := names
	if len(keys) == 0 {
		keys = make([]string, 0, len(params))
		for name := range params {
			keys = append(keys, name)
		}
		sort.Strings(keys)
	}
	out := ""
	for i, name := range keys {
		if i > 0 {
			out += "|"
		}
		out += name + "=" + formatParamValue(params[name])
	}
	return out
}

func formatParamValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'g', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
