// Package config loads experiment definitions from YAML and turns them into
// runnable models. A single file describes the population, the payoff model,
// the learning rule, the trial bounds, and optionally a sweep grid; swept
// parameters override the base definition per combination.
package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"mimesis/internal/abm"
	"mimesis/internal/model"
	"mimesis/internal/network"
	"mimesis/internal/payoff"
	"mimesis/internal/strategy"
	"mimesis/internal/sweep"
	"mimesis/internal/trial"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Experiment is the full YAML document.
type Experiment struct {
	Network  NetworkConfig  `yaml:"network"`
	Strategy StrategyConfig `yaml:"strategy"`
	Payoff   PayoffConfig   `yaml:"payoff"`

	// DropRate is δ, the per-step probability that an adaptive agent
	// reverts to the legacy behavior.
	DropRate        float64 `yaml:"drop_rate"`
	InitialAdopters []int   `yaml:"initial_adopters"`
	MaxSteps        int     `yaml:"max_steps"`
	RecordSeries    bool    `yaml:"record_series"`

	Seed       int64      `yaml:"seed"`
	Replicates int        `yaml:"replicates"`
	Workers    int        `yaml:"workers"`
	Grid       sweep.Grid `yaml:"grid"`
}

// NetworkConfig selects a population structure. Kind is one of "complete",
// "ring", "star", "random", or "edges".
type NetworkConfig struct {
	Kind string `yaml:"kind"`
	Size int    `yaml:"size"`
	// K is the per-side neighbor count for ring lattices.
	K int `yaml:"k,omitempty"`
	// P is the edge probability for random graphs.
	P     float64  `yaml:"p,omitempty"`
	Edges [][2]int `yaml:"edges,omitempty"`
}

// StrategyConfig selects a registered learning rule by name.
type StrategyConfig struct {
	Name         string  `yaml:"name"`
	AdoptionRate float64 `yaml:"adoption_rate"`
	// Gated applies the adoption rate as a multiplier on biased rules.
	Gated bool `yaml:"gated,omitempty"`
	// DyadRates override the adoption rate for specific (focal, teacher)
	// pairs.
	DyadRates []DyadRate `yaml:"dyad_rates,omitempty"`
}

// DyadRate is one per-pair adoption rate override.
type DyadRate struct {
	Focal   int     `yaml:"focal"`
	Teacher int     `yaml:"teacher"`
	Rate    float64 `yaml:"rate"`
}

// PayoffConfig selects a payoff model. Kind is "table", "correlative",
// "complementary", or "registered" (looked up by name in the payoff
// registry).
type PayoffConfig struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name,omitempty"`

	// Table values, keyed by behavior.
	Values map[string]float64 `yaml:"values,omitempty"`

	// Correlative game parameters.
	Temptation float64 `yaml:"temptation,omitempty"`
	Reward     float64 `yaml:"reward,omitempty"`
	Punishment float64 `yaml:"punishment,omitempty"`
	Sucker     float64 `yaml:"sucker,omitempty"`

	// Complementary role-compatibility matrix.
	Matrix map[string]map[string]float64 `yaml:"matrix,omitempty"`
}

// Load reads and validates one experiment file.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}
	return Parse(data)
}

// Parse decodes and validates an experiment document.
func Parse(data []byte) (*Experiment, error) {
	exp := &Experiment{}
	if err := yaml.Unmarshal(data, exp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	exp.applyDefaults()
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	return exp, nil
}

func (e *Experiment) applyDefaults() {
	if e.Network.Kind == "" {
		e.Network.Kind = "complete"
	}
	if e.Payoff.Kind == "" {
		e.Payoff.Kind = "registered"
		if e.Payoff.Name == "" {
			e.Payoff.Name = "flat"
		}
	}
	if e.MaxSteps == 0 {
		e.MaxSteps = 1000
	}
	if e.Replicates == 0 {
		e.Replicates = 1
	}
	if e.Workers == 0 {
		e.Workers = 1
	}
}

// Validate checks everything that can fail without building a model.
func (e *Experiment) Validate() error {
	switch e.Network.Kind {
	case "complete", "star":
	case "ring":
		if e.Network.K < 1 {
			return fmt.Errorf("%w: ring network needs k >= 1", ErrInvalidConfig)
		}
	case "random":
		if e.Network.P < 0 || e.Network.P > 1 {
			return fmt.Errorf("%w: random network needs p in [0,1], got %g", ErrInvalidConfig, e.Network.P)
		}
	case "edges":
		if len(e.Network.Edges) == 0 {
			return fmt.Errorf("%w: edge network needs an edge list", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown network kind %q", ErrInvalidConfig, e.Network.Kind)
	}
	if e.Network.Size <= 0 {
		return fmt.Errorf("%w: network size must be > 0, got %d", ErrInvalidConfig, e.Network.Size)
	}
	if e.Strategy.Name == "" {
		return fmt.Errorf("%w: strategy name is required", ErrInvalidConfig)
	}
	if e.Strategy.AdoptionRate < 0 || e.Strategy.AdoptionRate > 1 {
		return fmt.Errorf("%w: adoption rate %g outside [0,1]", ErrInvalidConfig, e.Strategy.AdoptionRate)
	}
	if e.DropRate < 0 || e.DropRate > 1 {
		return fmt.Errorf("%w: drop rate %g outside [0,1]", ErrInvalidConfig, e.DropRate)
	}
	if e.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be > 0, got %d", ErrInvalidConfig, e.MaxSteps)
	}
	if e.Replicates <= 0 {
		return fmt.Errorf("%w: replicates must be > 0, got %d", ErrInvalidConfig, e.Replicates)
	}
	for _, id := range e.InitialAdopters {
		if id < 0 || id >= e.Network.Size {
			return fmt.Errorf("%w: initial adopter %d outside population of %d", ErrInvalidConfig, id, e.Network.Size)
		}
	}
	return nil
}

// BuildNetwork materializes the configured population structure. Random
// graphs draw from rng so the structure is part of the replicate's seed.
func (e *Experiment) BuildNetwork(rng *rand.Rand) (*network.Graph, error) {
	switch e.Network.Kind {
	case "complete":
		return network.NewComplete(e.Network.Size)
	case "star":
		return network.NewStar(e.Network.Size)
	case "ring":
		return network.NewRing(e.Network.Size, e.Network.K)
	case "random":
		return network.NewRandom(e.Network.Size, e.Network.P, rng)
	case "edges":
		return network.NewFromEdges(e.Network.Size, e.Network.Edges)
	default:
		return nil, fmt.Errorf("%w: unknown network kind %q", ErrInvalidConfig, e.Network.Kind)
	}
}

// BuildStrategy resolves the learning rule from the strategy registry.
func (e *Experiment) BuildStrategy() (strategy.Strategy, error) {
	cfg := strategy.Config{
		AdoptionRate: e.Strategy.AdoptionRate,
		Gated:        e.Strategy.Gated,
	}
	if len(e.Strategy.DyadRates) > 0 {
		cfg.DyadRates = make(map[strategy.Dyad]float64, len(e.Strategy.DyadRates))
		for _, dr := range e.Strategy.DyadRates {
			cfg.DyadRates[strategy.Dyad{Focal: dr.Focal, Teacher: dr.Teacher}] = dr.Rate
		}
	}
	return strategy.New(e.Strategy.Name, cfg)
}

// BuildPayoff materializes the configured payoff model.
func (e *Experiment) BuildPayoff() (payoff.Model, error) {
	switch e.Payoff.Kind {
	case "registered":
		return payoff.Resolve(e.Payoff.Name)
	case "table":
		values := make(map[model.Behavior]float64, len(e.Payoff.Values))
		for behavior, value := range e.Payoff.Values {
			values[model.Behavior(behavior)] = value
		}
		return payoff.NewTable(nameOr(e.Payoff.Name, "table"), values)
	case "correlative":
		return payoff.NewCorrelative(nameOr(e.Payoff.Name, "correlative"),
			model.Adaptive, model.Legacy,
			e.Payoff.Temptation, e.Payoff.Reward, e.Payoff.Punishment, e.Payoff.Sucker)
	case "complementary":
		matrix := make(map[model.Behavior]map[model.Behavior]float64, len(e.Payoff.Matrix))
		for own, row := range e.Payoff.Matrix {
			inner := make(map[model.Behavior]float64, len(row))
			for partner, value := range row {
				inner[model.Behavior(partner)] = value
			}
			matrix[model.Behavior(own)] = inner
		}
		return payoff.NewComplementary(nameOr(e.Payoff.Name, "complementary"), matrix)
	default:
		return nil, fmt.Errorf("%w: unknown payoff kind %q", ErrInvalidConfig, e.Payoff.Kind)
	}
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// BuildModel assembles a model from the experiment definition.
func (e *Experiment) BuildModel(rng *rand.Rand) (*abm.Model, trial.Options, error) {
	net, err := e.BuildNetwork(rng)
	if err != nil {
		return nil, trial.Options{}, err
	}
	rule, err := e.BuildStrategy()
	if err != nil {
		return nil, trial.Options{}, err
	}
	game, err := e.BuildPayoff()
	if err != nil {
		return nil, trial.Options{}, err
	}
	m, err := abm.New(net, abm.Params{
		Strategy:     rule,
		Payoff:       game,
		AdoptionRate: e.Strategy.AdoptionRate,
		DropRate:     e.DropRate,
	}, e.InitialAdopters, rng)
	if err != nil {
		return nil, trial.Options{}, err
	}
	return m, trial.Options{MaxSteps: e.MaxSteps, RecordSeries: e.RecordSeries}, nil
}

// BuildFn returns a sweep builder that overlays each combination's
// parameters on this experiment before building the replicate's model.
func (e *Experiment) BuildFn() sweep.BuildFn {
	return func(params map[string]any, rng *rand.Rand) (*abm.Model, trial.Options, error) {
		overlaid, err := e.Override(params)
		if err != nil {
			return nil, trial.Options{}, err
		}
		return overlaid.BuildModel(rng)
	}
}

// Override returns a copy of the experiment with the named parameters
// replaced. Unknown names are rejected so a typo in a grid axis fails the
// sweep up front instead of silently sweeping nothing.
func (e *Experiment) Override(params map[string]any) (*Experiment, error) {
	overlaid := *e
	for name, value := range params {
		switch name {
		case "adoption_rate":
			rate, err := asFloat(name, value)
			if err != nil {
				return nil, err
			}
			overlaid.Strategy.AdoptionRate = rate
		case "drop_rate":
			rate, err := asFloat(name, value)
			if err != nil {
				return nil, err
			}
			overlaid.DropRate = rate
		case "strategy":
			text, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: parameter %q needs a string, got %T", ErrInvalidConfig, name, value)
			}
			overlaid.Strategy.Name = text
		case "network":
			text, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: parameter %q needs a string, got %T", ErrInvalidConfig, name, value)
			}
			overlaid.Network.Kind = text
		case "network_size":
			size, err := asInt(name, value)
			if err != nil {
				return nil, err
			}
			overlaid.Network.Size = size
		case "network_p":
			p, err := asFloat(name, value)
			if err != nil {
				return nil, err
			}
			overlaid.Network.P = p
		case "network_k":
			k, err := asInt(name, value)
			if err != nil {
				return nil, err
			}
			overlaid.Network.K = k
		case "max_steps":
			steps, err := asInt(name, value)
			if err != nil {
				return nil, err
			}
			overlaid.MaxSteps = steps
		default:
			return nil, fmt.Errorf("%w: unknown sweep parameter %q", ErrInvalidConfig, name)
		}
	}
	if err := overlaid.Validate(); err != nil {
		return nil, err
	}
	return &overlaid, nil
}

func asFloat(name string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: parameter %q needs a number, got %T", ErrInvalidConfig, name, value)
	}
}

func asInt(name string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: parameter %q needs an integer, got %T", ErrInvalidConfig, name, value)
	}
}
