// Package strategy implements the pluggable social-learning rules. A
// strategy answers two questions for a focal agent: the exact probability of
// adopting the target behavior this step, and a stochastic teacher draw from
// the neighborhood. Both are computed from an immutable start-of-step view.
package strategy

import (
	"errors"
	"fmt"
	"math/rand"

	"mimesis/internal/model"
)

var (
	ErrUnknown          = errors.New("learning strategy not found")
	ErrInvalidParameter = errors.New("invalid strategy parameter")
)

// Dyad keys a (focal, teacher) pair for per-pair adoption rate overrides.
type Dyad struct {
	Focal   int
	Teacher int
}

// Neighbor is one entry of a focal agent's neighborhood snapshot.
type Neighbor struct {
	ID       int
	Behavior model.Behavior
	Fitness  float64
}

// View is the immutable snapshot a strategy evaluates for one focal agent.
type View struct {
	Focal         int
	FocalBehavior model.Behavior
	FocalFitness  float64
	Target        model.Behavior
	Neighbors     []Neighbor
}

// Strategy computes adoption probability and teacher selection for a focal
// agent given its neighbor set.
type Strategy interface {
	Name() string
	// AdoptionProbability is exact, not sampled: with teacher weights w and
	// per-dyad rates r, p = Σ_{j performing target} r(focal,j)·w_j / Σ_k w_k.
	// An isolated focal agent has probability 0.
	AdoptionProbability(view View) (float64, error)
	// SelectTeacher draws one neighbor with probability w_j / Σ_k w_k.
	// ok is false when no teacher is realized: the focal agent has no
	// neighbors, or the draw landed on the focal agent's own demonstration.
	SelectTeacher(view View, rng *rand.Rand) (Neighbor, bool, error)
}

// Rates carries the adoption-rate multiplier applied after the base
// probability, plus optional per-dyad overrides.
type Rates struct {
	Base float64
	Dyad map[Dyad]float64
}

// UniformRates is the identity multiplier.
func UniformRates() Rates {
	return Rates{Base: 1}
}

func (r Rates) validate() error {
	if r.Base < 0 || r.Base > 1 {
		return fmt.Errorf("%w: adoption rate %g outside [0,1]", ErrInvalidParameter, r.Base)
	}
	for dyad, rate := range r.Dyad {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%w: dyadic rate %g for (%d,%d) outside [0,1]", ErrInvalidParameter, rate, dyad.Focal, dyad.Teacher)
		}
	}
	return nil
}

func (r Rates) rate(focal, teacher int) float64 {
	if override, ok := r.Dyad[Dyad{Focal: focal, Teacher: teacher}]; ok {
		return override
	}
	return r.Base
}

// SuccessBiased selects teachers proportionally to fitness: teacher j is
// drawn with probability f_j / Σ_k f_k, falling back to uniform selection
// when the whole demonstrator pool has zero fitness. With IncludeSelf the
// focal agent's own fitness joins the pool, so retaining the current
// behavior competes against every neighbor's demonstration.
type SuccessBiased struct {
	Rates       Rates
	IncludeSelf bool
}

// NewSuccessBiased validates the rates and returns the strategy with the
// focal agent included in the demonstrator pool.
func NewSuccessBiased(rates Rates) (SuccessBiased, error) {
	if err := rates.validate(); err != nil {
		return SuccessBiased{}, err
	}
	return SuccessBiased{Rates: rates, IncludeSelf: true}, nil
}

// NewSuccessBiasedNeighborsOnly returns the variant whose demonstrator pool
// is the neighbor set alone; with equal fitness values it reduces exactly to
// the frequency-biased probability.
func NewSuccessBiasedNeighborsOnly(rates Rates) (SuccessBiased, error) {
	if err := rates.validate(); err != nil {
		return SuccessBiased{}, err
	}
	return SuccessBiased{Rates: rates}, nil
}

func (SuccessBiased) Name() string { return "success_biased" }

func (s SuccessBiased) AdoptionProbability(view View) (float64, error) {
	weights, selfMass := s.pool(view)
	return weightedAdoptionProbability(view, s.Rates, weights, selfMass)
}

func (s SuccessBiased) SelectTeacher(view View, rng *rand.Rand) (Neighbor, bool, error) {
	weights, selfMass := s.pool(view)
	return drawTeacher(view, rng, weights, selfMass)
}

func (s SuccessBiased) pool(view View) ([]float64, float64) {
	weights := make([]float64, len(view.Neighbors))
	total := 0.0
	for i, neighbor := range view.Neighbors {
		weights[i] = neighbor.Fitness
		total += neighbor.Fitness
	}
	selfMass := 0.0
	if s.IncludeSelf {
		selfMass = view.FocalFitness
	}
	if total+selfMass == 0 {
		// Zero-fitness pool: uniform fallback instead of 0/0.
		for i := range weights {
			weights[i] = 1
		}
		if s.IncludeSelf {
			selfMass = 1
		}
	}
	return weights, selfMass
}

// FrequencyBiased adopts in proportion to the share of neighbors performing
// the target behavior: p = |m| / |n|, defined as 0 for isolated agents.
type FrequencyBiased struct {
	Rates Rates
}

func NewFrequencyBiased(rates Rates) (FrequencyBiased, error) {
	if err := rates.validate(); err != nil {
		return FrequencyBiased{}, err
	}
	return FrequencyBiased{Rates: rates}, nil
}

func (FrequencyBiased) Name() string { return "frequency_biased" }

func (f FrequencyBiased) AdoptionProbability(view View) (float64, error) {
	return weightedAdoptionProbability(view, f.Rates, uniformWeights(view), 0)
}

func (f FrequencyBiased) SelectTeacher(view View, rng *rand.Rand) (Neighbor, bool, error) {
	return drawTeacher(view, rng, uniformWeights(view), 0)
}

// Contagion draws a teacher uniformly; when the teacher performs the target
// behavior the focal agent adopts with probability α, so the exact adoption
// probability is α·|m|/|n|.
type Contagion struct {
	Rates Rates
}

func NewContagion(rates Rates) (Contagion, error) {
	if err := rates.validate(); err != nil {
		return Contagion{}, err
	}
	return Contagion{Rates: rates}, nil
}

func (Contagion) Name() string { return "contagion" }

func (c Contagion) AdoptionProbability(view View) (float64, error) {
	return weightedAdoptionProbability(view, c.Rates, uniformWeights(view), 0)
}

func (c Contagion) SelectTeacher(view View, rng *rand.Rand) (Neighbor, bool, error) {
	return drawTeacher(view, rng, uniformWeights(view), 0)
}

func uniformWeights(view View) []float64 {
	weights := make([]float64, len(view.Neighbors))
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

// weightedAdoptionProbability computes Σ_{j∈m} r(i,j)·w_j / (selfMass + Σ w)
// where m is the subset of neighbors performing the target behavior and
// selfMass is the focal agent's own inert demonstration weight.
func weightedAdoptionProbability(view View, rates Rates, weights []float64, selfMass float64) (float64, error) {
	if len(view.Neighbors) == 0 {
		return 0, nil
	}
	if len(weights) != len(view.Neighbors) {
		return 0, fmt.Errorf("%w: weight count %d does not match neighborhood size %d", ErrInvalidParameter, len(weights), len(view.Neighbors))
	}
	if selfMass < 0 {
		return 0, fmt.Errorf("%w: negative self weight %g", ErrInvalidParameter, selfMass)
	}
	total := selfMass
	adopting := 0.0
	for i, neighbor := range view.Neighbors {
		if weights[i] < 0 {
			return 0, fmt.Errorf("%w: negative teacher weight %g", ErrInvalidParameter, weights[i])
		}
		total += weights[i]
		if neighbor.Behavior == view.Target {
			adopting += rates.rate(view.Focal, neighbor.ID) * weights[i]
		}
	}
	if total == 0 {
		return 0, nil
	}
	p := adopting / total
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: adoption probability %g outside [0,1]", ErrInvalidParameter, p)
	}
	return p, nil
}

func drawTeacher(view View, rng *rand.Rand, weights []float64, selfMass float64) (Neighbor, bool, error) {
	if len(view.Neighbors) == 0 {
		return Neighbor{}, false, nil
	}
	if rng == nil {
		return Neighbor{}, false, fmt.Errorf("%w: random source is required", ErrInvalidParameter)
	}
	total := selfMass
	for _, weight := range weights {
		if weight < 0 {
			return Neighbor{}, false, fmt.Errorf("%w: negative teacher weight %g", ErrInvalidParameter, weight)
		}
		total += weight
	}
	if total == 0 {
		return view.Neighbors[rng.Intn(len(view.Neighbors))], true, nil
	}
	pick := rng.Float64() * total
	if pick < selfMass {
		return Neighbor{}, false, nil
	}
	acc := selfMass
	for i, weight := range weights {
		acc += weight
		if pick <= acc {
			return view.Neighbors[i], true, nil
		}
	}
	return view.Neighbors[len(view.Neighbors)-1], true, nil
}
