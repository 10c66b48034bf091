package payoff

import (
	"fmt"
	"sort"
	"sync"

	"mimesis/internal/model"
)

var registry = struct {
	mu sync.RWMutex
	m  map[string]Model
}{
	m: make(map[string]Model),
}

// Register makes a payoff model resolvable by name. Registering the same
// name twice fails so a sweep cannot silently swap tables mid-run.
func Register(m Model) error {
	if m == nil {
		return fmt.Errorf("%w: model is nil", ErrInvalidSpec)
	}
	if m.Name() == "" {
		return fmt.Errorf("%w: model name is required", ErrInvalidSpec)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.m[m.Name()]; exists {
		return fmt.Errorf("%w: payoff model already registered: %s", ErrInvalidSpec, m.Name())
	}
	registry.m[m.Name()] = m
	return nil
}

// Resolve returns the registered model for name.
func Resolve(name string) (Model, error) {
	registry.mu.RLock()
	m, ok := registry.m[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return m, nil
}

// List returns registered model names in sorted order.
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
	registry.m = make(map[string]Model)
}

func init() {
	initializeDefaultModels()
}

func initializeDefaultModels() {
	flat, err := NewTable("flat", map[model.Behavior]float64{
		model.Legacy:   1,
		model.Adaptive: 1,
	})
	if err != nil {
		panic(err)
	}
	if err := Register(flat); err != nil {
		panic(err)
	}
}
