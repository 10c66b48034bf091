package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Config parameterizes strategy construction. AdoptionRate is α: contagion
// always applies it, while success- and frequency-biased strategies apply it
// as a post multiplier only when Gated is set (the stochastic "actually
// learns" gate).
type Config struct {
	AdoptionRate float64
	Gated        bool
	DyadRates    map[Dyad]float64
}

// Builder constructs a strategy from a config.
type Builder func(cfg Config) (Strategy, error)

var registry = struct {
	mu sync.RWMutex
	m  map[string]Builder
}{
	m: make(map[string]Builder),
}

// Register makes a strategy identifier resolvable via New.
func Register(name string, builder Builder) error {
	if name == "" {
		return fmt.Errorf("%w: strategy name is required", ErrInvalidParameter)
	}
	if builder == nil {
		return fmt.Errorf("%w: strategy builder is required", ErrInvalidParameter)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.m[name]; exists {
		return fmt.Errorf("%w: strategy already registered: %s", ErrInvalidParameter, name)
	}
	registry.m[name] = builder
	return nil
}

// New builds the named strategy, failing with ErrUnknown for unregistered
// identifiers.
func New(name string, cfg Config) (Strategy, error) {
	registry.mu.RLock()
	builder, ok := registry.m[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return builder(cfg)
}

// List returns registered strategy names in sorted order.
func List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetRegistryForTests() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.m = make(map[string]Builder)
}

func init() {
	initializeBuiltInStrategies()
}

func initializeBuiltInStrategies() {
	mustRegister := func(name string, builder Builder) {
		if err := Register(name, builder); err != nil {
			panic(err)
		}
	}
	mustRegister("success_biased", func(cfg Config) (Strategy, error) {
		return NewSuccessBiased(gatedRates(cfg))
	})
	mustRegister("frequency_biased", func(cfg Config) (Strategy, error) {
		return NewFrequencyBiased(gatedRates(cfg))
	})
	mustRegister("contagion", func(cfg Config) (Strategy, error) {
		return NewContagion(Rates{Base: cfg.AdoptionRate, Dyad: cfg.DyadRates})
	})
}

func gatedRates(cfg Config) Rates {
	if cfg.Gated {
		return Rates{Base: cfg.AdoptionRate, Dyad: cfg.DyadRates}
	}
	return Rates{Base: 1, Dyad: cfg.DyadRates}
}
