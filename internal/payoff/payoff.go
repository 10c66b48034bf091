// Package payoff computes agent fitness from behavior. Models are pure:
// the caller writes the result into the agent's cached fitness field.
package payoff

import (
	"errors"
	"fmt"

	"mimesis/internal/model"
)

var (
	ErrInvalidSpec = errors.New("invalid payoff spec")
	ErrUnknown     = errors.New("payoff model not found")
)

// Model is polymorphic over the two payoff families. Dyad-independent models
// ignore the partner argument; DyadDependent tells the engine whether an
// interaction partner must be realized before evaluation.
type Model interface {
	Name() string
	DyadDependent() bool
	Payoff(own, partner model.Behavior) (float64, error)
	// Covers fails with ErrInvalidSpec when the model does not define a
	// payoff for every behavior combination present in the simulation.
	Covers(behaviors []model.Behavior) error
}

// Table is a dyad-independent payoff: fitness depends only on the agent's
// own behavior.
type Table struct {
	name   string
	values map[model.Behavior]float64
}

func NewTable(name string, values map[model.Behavior]float64) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrInvalidSpec)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: table %s has no entries", ErrInvalidSpec, name)
	}
	for behavior, value := range values {
		if value < 0 {
			return nil, fmt.Errorf("%w: table %s has negative payoff %g for %s", ErrInvalidSpec, name, value, behavior)
		}
	}
	copied := make(map[model.Behavior]float64, len(values))
	for behavior, value := range values {
		copied[behavior] = value
	}
	return &Table{name: name, values: copied}, nil
}

func (t *Table) Name() string        { return t.name }
func (t *Table) DyadDependent() bool { return false }

func (t *Table) Payoff(own, _ model.Behavior) (float64, error) {
	value, ok := t.values[own]
	if !ok {
		return 0, fmt.Errorf("%w: table %s has no payoff for behavior %s", ErrInvalidSpec, t.name, own)
	}
	return value, nil
}

func (t *Table) Covers(behaviors []model.Behavior) error {
	for _, behavior := range behaviors {
		if _, ok := t.values[behavior]; !ok {
			return fmt.Errorf("%w: table %s does not cover behavior %s", ErrInvalidSpec, t.name, behavior)
		}
	}
	return nil
}

// Correlative is the cooperation-style 2x2 coordination table with the
// classic dilemma ordering Temptation > Reward > Punishment > Sucker.
// The cooperate behavior plays the adaptive role by convention but both
// behaviors are configurable.
type Correlative struct {
	name       string
	cooperate  model.Behavior
	defect     model.Behavior
	temptation float64
	reward     float64
	punishment float64
	sucker     float64
}

func NewCorrelative(name string, cooperate, defect model.Behavior, temptation, reward, punishment, sucker float64) (*Correlative, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: correlative name is required", ErrInvalidSpec)
	}
	if cooperate == defect {
		return nil, fmt.Errorf("%w: correlative %s needs two distinct behaviors", ErrInvalidSpec, name)
	}
	if !(temptation > reward && reward > punishment && punishment > sucker) {
		return nil, fmt.Errorf("%w: correlative %s violates T > R > P > S: T=%g R=%g P=%g S=%g",
			ErrInvalidSpec, name, temptation, reward, punishment, sucker)
	}
	if sucker < 0 {
		return nil, fmt.Errorf("%w: correlative %s has negative sucker payoff %g", ErrInvalidSpec, name, sucker)
	}
	return &Correlative{
		name:       name,
		cooperate:  cooperate,
		defect:     defect,
		temptation: temptation,
		reward:     reward,
		punishment: punishment,
		sucker:     sucker,
	}, nil
}

func (c *Correlative) Name() string        { return c.name }
func (c *Correlative) DyadDependent() bool { return true }

func (c *Correlative) Payoff(own, partner model.Behavior) (float64, error) {
	switch {
	case own == c.cooperate && partner == c.cooperate:
		return c.reward, nil
	case own == c.cooperate && partner == c.defect:
		return c.sucker, nil
	case own == c.defect && partner == c.cooperate:
		return c.temptation, nil
	case own == c.defect && partner == c.defect:
		return c.punishment, nil
	default:
		return 0, fmt.Errorf("%w: correlative %s has no payoff for (%s,%s)", ErrInvalidSpec, c.name, own, partner)
	}
}

func (c *Correlative) Covers(behaviors []model.Behavior) error {
	for _, behavior := range behaviors {
		if behavior != c.cooperate && behavior != c.defect {
			return fmt.Errorf("%w: correlative %s does not cover behavior %s", ErrInvalidSpec, c.name, behavior)
		}
	}
	return nil
}

// Complementary is a coordination table over a finite role set where the
// payoff comes from an explicit role-compatibility matrix; matching a
// partner's role typically pays low, complementing it pays high.
type Complementary struct {
	name   string
	matrix map[model.Behavior]map[model.Behavior]float64
}

func NewComplementary(name string, matrix map[model.Behavior]map[model.Behavior]float64) (*Complementary, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: complementary name is required", ErrInvalidSpec)
	}
	if len(matrix) == 0 {
		return nil, fmt.Errorf("%w: complementary %s has an empty matrix", ErrInvalidSpec, name)
	}
	copied := make(map[model.Behavior]map[model.Behavior]float64, len(matrix))
	for own, row := range matrix {
		copied[own] = make(map[model.Behavior]float64, len(row))
		for partner, value := range row {
			if value < 0 {
				return nil, fmt.Errorf("%w: complementary %s has negative payoff %g for (%s,%s)",
					ErrInvalidSpec, name, value, own, partner)
			}
			copied[own][partner] = value
		}
	}
	// Every role pair over the declared role set must be defined.
	for own := range copied {
		for partner := range copied {
			if _, ok := copied[own][partner]; !ok {
				return nil, fmt.Errorf("%w: complementary %s misses pair (%s,%s)", ErrInvalidSpec, name, own, partner)
			}
		}
	}
	return &Complementary{name: name, matrix: copied}, nil
}

func (c *Complementary) Name() string        { return c.name }
func (c *Complementary) DyadDependent() bool { return true }

func (c *Complementary) Payoff(own, partner model.Behavior) (float64, error) {
	row, ok := c.matrix[own]
	if !ok {
		return 0, fmt.Errorf("%w: complementary %s has no row for %s", ErrInvalidSpec, c.name, own)
	}
	value, ok := row[partner]
	if !ok {
		return 0, fmt.Errorf("%w: complementary %s has no payoff for (%s,%s)", ErrInvalidSpec, c.name, own, partner)
	}
	return value, nil
}

func (c *Complementary) Covers(behaviors []model.Behavior) error {
	for _, behavior := range behaviors {
		if _, ok := c.matrix[behavior]; !ok {
			return fmt.Errorf("%w: complementary %s does not cover behavior %s", ErrInvalidSpec, c.name, behavior)
		}
	}
	return nil
}
