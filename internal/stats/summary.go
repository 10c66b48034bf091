package stats

import (
	"math"
	"sort"

	"mimesis/internal/model"
)

// SummaryRow aggregates every replicate sharing one parameter grouping.
// SuccessRate is the fraction of replicates that fixated on the adaptive
// behavior; the fixation-time moments are taken over fixated replicates
// only, so timeouts and failures cannot skew them.
type SummaryRow struct {
	Key                string         `json:"key"`
	Params             map[string]any `json:"params"`
	Replicates         int            `json:"replicates"`
	Successes          int            `json:"successes"`
	SuccessRate        float64        `json:"success_rate"`
	MeanTimeToFixation float64        `json:"mean_time_to_fixation"`
	StdTimeToFixation  float64        `json:"std_time_to_fixation"`
	TimedOut           int            `json:"timed_out"`
	Failures           int            `json:"failures"`
}

// Summarize groups records by the named parameters and computes one row per
// group. With no names every parameter participates, which reproduces the
// per-combination grouping of a full grid. Rows come back sorted by key.
func Summarize(records []model.ExperimentRecord, groupBy []string) []SummaryRow {
	groups := make(map[string][]model.ExperimentRecord)
	order := make([]string, 0)
	for _, record := range records {
		key := model.ParamKey(record.Params, groupBy)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}
	sort.Strings(order)

	rows := make([]SummaryRow, 0, len(groups))
	for _, key := range order {
		group := groups[key]
		row := SummaryRow{
			Key:        key,
			Params:     groupParams(group[0].Params, groupBy),
			Replicates: len(group),
		}
		fixationSteps := make([]float64, 0, len(group))
		for _, record := range group {
			switch record.Outcome {
			case model.OutcomeFixatedAdaptive:
				row.Successes++
				fixationSteps = append(fixationSteps, float64(record.Steps))
			case model.OutcomeFixatedLegacy:
				fixationSteps = append(fixationSteps, float64(record.Steps))
			case model.OutcomeTimedOut:
				row.TimedOut++
			case model.OutcomeFailed:
				row.Failures++
			}
		}
		row.SuccessRate = float64(row.Successes) / float64(row.Replicates)
		row.MeanTimeToFixation, row.StdTimeToFixation = moments(fixationSteps)
		rows = append(rows, row)
	}
	return rows
}

func groupParams(params map[string]any, groupBy []string) map[string]any {
	if len(groupBy) == 0 {
		out := make(map[string]any, len(params))
		for name, value := range params {
			out[name] = value
		}
		return out
	}
	out := make(map[string]any, len(groupBy))
	for _, name := range groupBy {
		if value, ok := params[name]; ok {
			out[name] = value
		}
	}
	return out
}

func moments(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(values)-1))
}
