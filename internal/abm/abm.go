// Package abm owns the per-trial simulation state: the network, the agent
// arena, and the model parameters. One call to AdvanceOneStep performs the
// payoff, adoption, and drop phases for every agent against the
// start-of-step snapshot, so no decision within a step can observe another
// decision made in the same step.
package abm

import (
	"errors"
	"fmt"
	"math/rand"

	"mimesis/internal/model"
	"mimesis/internal/network"
	"mimesis/internal/payoff"
	"mimesis/internal/strategy"
)

var (
	ErrEmptyPopulation = errors.New("empty population")
	ErrInvalidParams   = errors.New("invalid model parameters")
	// ErrIsolatedAgent marks a dyad-dependent payoff evaluation for an
	// agent that has no neighbors to interact with.
	ErrIsolatedAgent = errors.New("isolated agent requires an interaction partner")
)

// Params is the immutable configuration bundle for one model instance.
// Re-running with different parameters requires a new model.
type Params struct {
	Strategy strategy.Strategy
	Payoff   payoff.Model
	// AdoptionRate and DropRate are α and δ. The strategy already carries
	// α internally; it is kept here so records expose the full bundle.
	AdoptionRate float64
	DropRate     float64
	// Target is the behavior that spreads; Baseline is what dropped agents
	// revert to. They default to Adaptive and Legacy.
	Target   model.Behavior
	Baseline model.Behavior
}

func (p Params) withDefaults() Params {
	if p.Target == "" {
		p.Target = model.Adaptive
	}
	if p.Baseline == "" {
		p.Baseline = model.Legacy
	}
	return p
}

func (p Params) validate() error {
	if p.Strategy == nil {
		return fmt.Errorf("%w: learning strategy is required", ErrInvalidParams)
	}
	if p.Payoff == nil {
		return fmt.Errorf("%w: payoff model is required", ErrInvalidParams)
	}
	if p.AdoptionRate < 0 || p.AdoptionRate > 1 {
		return fmt.Errorf("%w: adoption rate %g outside [0,1]", ErrInvalidParams, p.AdoptionRate)
	}
	if p.DropRate < 0 || p.DropRate > 1 {
		return fmt.Errorf("%w: drop rate %g outside [0,1]", ErrInvalidParams, p.DropRate)
	}
	if p.Target == p.Baseline {
		return fmt.Errorf("%w: target and baseline behavior must differ", ErrInvalidParams)
	}
	return nil
}

// Model is one agent-based model instance. Agents live in index-addressed
// arenas owned exclusively by the model; neighbor references are index
// lookups into the network.
type Model struct {
	net    *network.Graph
	params Params
	rng    *rand.Rand

	step      int
	behaviors []model.Behavior
	fitness   []float64
}

// New builds a model with every agent on the baseline behavior except the
// listed initial adopters. The payoff model must cover both behaviors, and
// adopter indices must reference existing agents.
func New(net *network.Graph, params Params, initialAdopters []int, rng *rand.Rand) (*Model, error) {
	if net == nil || net.Size() == 0 {
		return nil, ErrEmptyPopulation
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidParams)
	}
	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	if err := params.Payoff.Covers([]model.Behavior{params.Baseline, params.Target}); err != nil {
		return nil, err
	}

	behaviors := make([]model.Behavior, net.Size())
	for i := range behaviors {
		behaviors[i] = params.Baseline
	}
	for _, id := range initialAdopters {
		if id < 0 || id >= net.Size() {
			return nil, fmt.Errorf("%w: initial adopter %d references an unknown agent", ErrInvalidParams, id)
		}
		behaviors[id] = params.Target
	}

	return &Model{
		net:       net,
		params:    params,
		rng:       rng,
		behaviors: behaviors,
		fitness:   make([]float64, net.Size()),
	}, nil
}

// Step returns the number of completed steps.
func (m *Model) Step() int {
	return m.step
}

// Size returns the population size.
func (m *Model) Size() int {
	return m.net.Size()
}

// Behaviors returns a copy of the current behavior arena.
func (m *Model) Behaviors() []model.Behavior {
	out := make([]model.Behavior, len(m.behaviors))
	copy(out, m.behaviors)
	return out
}

// Fitness returns the cached fitness of agent i as of the last step.
func (m *Model) Fitness(i int) float64 {
	return m.fitness[i]
}

// Counts is the census of the current behavior arena. The target and
// baseline behaviors are always present, even at zero.
func (m *Model) Counts() map[model.Behavior]int {
	counts := map[model.Behavior]int{
		m.params.Baseline: 0,
		m.params.Target:   0,
	}
	for _, behavior := range m.behaviors {
		counts[behavior]++
	}
	return counts
}

// Fixated reports whether every agent shares one behavior, and which.
func (m *Model) Fixated() (model.Behavior, bool) {
	first := m.behaviors[0]
	for _, behavior := range m.behaviors[1:] {
		if behavior != first {
			return "", false
		}
	}
	return first, true
}

// AdvanceOneStep runs the payoff, adoption, and drop phases against the
// start-of-step snapshot and returns the census after the step.
func (m *Model) AdvanceOneStep() (model.StepCensus, error) {
	snapshot := m.Behaviors()

	if err := m.recomputeFitness(snapshot); err != nil {
		return model.StepCensus{}, err
	}

	next := make([]model.Behavior, len(snapshot))
	copy(next, snapshot)
	for i, behavior := range snapshot {
		if behavior == m.params.Target {
			continue
		}
		p, err := m.params.Strategy.AdoptionProbability(m.view(i, snapshot))
		if err != nil {
			return model.StepCensus{}, err
		}
		if m.rng.Float64() < p {
			next[i] = m.params.Target
		}
	}

	// Drop phase: every agent performing the target behavior at the end of
	// the step reverts with probability δ, independent of neighbor state.
	for i, behavior := range next {
		if behavior != m.params.Target {
			continue
		}
		if m.rng.Float64() < m.params.DropRate {
			next[i] = m.params.Baseline
		}
	}

	m.behaviors = next
	m.step++
	return model.StepCensus{Step: m.step, Counts: m.Counts()}, nil
}

// recomputeFitness re-derives every agent's cached fitness from the
// snapshot behaviors. Dyad-dependent models realize one interaction partner
// per agent, drawn uniformly from the neighborhood.
func (m *Model) recomputeFitness(snapshot []model.Behavior) error {
	dyadic := m.params.Payoff.DyadDependent()
	for i := range snapshot {
		partner := snapshot[i]
		if dyadic {
			degree := m.net.Degree(i)
			if degree == 0 {
				return fmt.Errorf("%w: agent %d under payoff %s", ErrIsolatedAgent, i, m.params.Payoff.Name())
			}
			neighbors := m.net.Neighbors(i)
			partner = snapshot[neighbors[m.rng.Intn(degree)]]
		}
		value, err := m.params.Payoff.Payoff(snapshot[i], partner)
		if err != nil {
			return err
		}
		if value < 0 {
			return fmt.Errorf("%w: negative fitness %g for agent %d", ErrInvalidParams, value, i)
		}
		m.fitness[i] = value
	}
	return nil
}

func (m *Model) view(i int, snapshot []model.Behavior) strategy.View {
	ids := m.net.Neighbors(i)
	neighbors := make([]strategy.Neighbor, 0, len(ids))
	for _, j := range ids {
		neighbors = append(neighbors, strategy.Neighbor{
			ID:       j,
			Behavior: snapshot[j],
			Fitness:  m.fitness[j],
		})
	}
	return strategy.View{
		Focal:         i,
		FocalBehavior: snapshot[i],
		FocalFitness:  m.fitness[i],
		Target:        m.params.Target,
		Neighbors:     neighbors,
	}
}
