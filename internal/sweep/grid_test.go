package sweep

import (
	"errors"
	"testing"
)

func TestCombosEnumeratesCartesianProduct(t *testing.T) {
	grid := Grid{Axes: []Axis{
		{Name: "adoption_rate", Values: []any{0.1, 0.5}},
		{Name: "network", Values: []any{"complete", "ring", "star"}},
	}}
	if grid.Size() != 6 {
		t.Fatalf("Size() = %d, want 6", grid.Size())
	}
	combos, err := grid.Combos()
	if err != nil {
		t.Fatalf("Combos: %v", err)
	}
	if len(combos) != 6 {
		t.Fatalf("got %d combos, want 6", len(combos))
	}
	// Last axis varies fastest.
	if combos[0]["adoption_rate"] != 0.1 || combos[0]["network"] != "complete" {
		t.Fatalf("combo 0 = %v", combos[0])
	}
	if combos[1]["network"] != "ring" {
		t.Fatalf("combo 1 = %v", combos[1])
	}
	if combos[3]["adoption_rate"] != 0.5 || combos[3]["network"] != "complete" {
		t.Fatalf("combo 3 = %v", combos[3])
	}
}

func TestCombosStableAcrossCalls(t *testing.T) {
	grid := Grid{Axes: []Axis{
		{Name: "a", Values: []any{1, 2, 3}},
		{Name: "b", Values: []any{"x", "y"}},
	}}
	first, err := grid.Combos()
	if err != nil {
		t.Fatalf("Combos: %v", err)
	}
	second, err := grid.Combos()
	if err != nil {
		t.Fatalf("Combos: %v", err)
	}
	for i := range first {
		if first[i]["a"] != second[i]["a"] || first[i]["b"] != second[i]["b"] {
			t.Fatalf("combo %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestEmptyGridHasOneCombo(t *testing.T) {
	combos, err := Grid{}.Combos()
	if err != nil {
		t.Fatalf("Combos: %v", err)
	}
	if len(combos) != 1 || len(combos[0]) != 0 {
		t.Fatalf("got %v, want one empty combo", combos)
	}
}

func TestGridValidation(t *testing.T) {
	cases := []struct {
		name string
		grid Grid
	}{
		{"unnamed axis", Grid{Axes: []Axis{{Values: []any{1}}}}},
		{"duplicate axis", Grid{Axes: []Axis{
			{Name: "a", Values: []any{1}},
			{Name: "a", Values: []any{2}},
		}}},
		{"empty axis", Grid{Axes: []Axis{{Name: "a"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.grid.Combos(); !errors.Is(err, ErrInvalidGrid) {
				t.Fatalf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}
