// Package sweep expands a parameter grid into trial runs, executes them on
// a worker pool with per-trial deterministic seeding, and checkpoints every
// finished replicate so an interrupted sweep resumes where it stopped.
package sweep

import (
	"errors"
	"fmt"
)

var ErrInvalidGrid = errors.New("invalid sweep grid")

// Axis is one swept parameter and its values, in sweep order.
type Axis struct {
	Name   string `json:"name" yaml:"name"`
	Values []any  `json:"values" yaml:"values"`
}

// Grid is the Cartesian product of its axes. An empty grid has exactly one
// combination: the empty parameter map.
type Grid struct {
	Axes []Axis `json:"axes" yaml:"axes"`
}

func (g Grid) validate() error {
	seen := make(map[string]struct{}, len(g.Axes))
	for _, axis := range g.Axes {
		if axis.Name == "" {
			return fmt.Errorf("%w: axis name is required", ErrInvalidGrid)
		}
		if _, dup := seen[axis.Name]; dup {
			return fmt.Errorf("%w: duplicate axis %q", ErrInvalidGrid, axis.Name)
		}
		seen[axis.Name] = struct{}{}
		if len(axis.Values) == 0 {
			return fmt.Errorf("%w: axis %q has no values", ErrInvalidGrid, axis.Name)
		}
	}
	return nil
}

// Size returns the combination count.
func (g Grid) Size() int {
	size := 1
	for _, axis := range g.Axes {
		size *= len(axis.Values)
	}
	return size
}

// ParamNames returns the axis names in declaration order.
func (g Grid) ParamNames() []string {
	names := make([]string, 0, len(g.Axes))
	for _, axis := range g.Axes {
		names = append(names, axis.Name)
	}
	return names
}

// Combos enumerates every parameter combination. Enumeration order is
// fixed: the last axis varies fastest, so combination indices are stable
// across runs and safe to use as checkpoint keys.
func (g Grid) Combos() ([]map[string]any, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	combos := make([]map[string]any, 0, g.Size())
	indices := make([]int, len(g.Axes))
	for {
		combo := make(map[string]any, len(g.Axes))
		for i, axis := range g.Axes {
			combo[axis.Name] = axis.Values[indices[i]]
		}
		combos = append(combos, combo)

		i := len(indices) - 1
		for ; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(g.Axes[i].Values) {
				break
			}
			indices[i] = 0
		}
		if i < 0 {
			return combos, nil
		}
	}
}
