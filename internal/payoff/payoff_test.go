package payoff

import (
	"errors"
	"testing"

	"mimesis/internal/model"
)

func TestTablePayoff(t *testing.T) {
	table, err := NewTable("adoption", map[model.Behavior]float64{
		model.Legacy:   1,
		model.Adaptive: 4,
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	if table.DyadDependent() {
		t.Fatal("table payoff should be dyad independent")
	}
	got, err := table.Payoff(model.Adaptive, model.Legacy)
	if err != nil {
		t.Fatalf("payoff: %v", err)
	}
	if got != 4 {
		t.Fatalf("expected payoff 4, got %g", got)
	}
}

func TestTableRejectsNegativePayoff(t *testing.T) {
	_, err := NewTable("bad", map[model.Behavior]float64{model.Legacy: -1})
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
}

func TestTableCovers(t *testing.T) {
	table, err := NewTable("partial", map[model.Behavior]float64{model.Legacy: 1})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	if err := table.Covers([]model.Behavior{model.Legacy, model.Adaptive}); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec for uncovered behavior, got %v", err)
	}
}

func TestCorrelativeOrdering(t *testing.T) {
	_, err := NewCorrelative("pd", model.Adaptive, model.Legacy, 3, 5, 1, 0)
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec for R > T, got %v", err)
	}
}

func TestCorrelativePayoffQuadrants(t *testing.T) {
	pd, err := NewCorrelative("pd", model.Adaptive, model.Legacy, 5, 3, 1, 0)
	if err != nil {
		t.Fatalf("build correlative: %v", err)
	}
	cases := []struct {
		own, partner model.Behavior
		want         float64
	}{
		{model.Adaptive, model.Adaptive, 3},
		{model.Adaptive, model.Legacy, 0},
		{model.Legacy, model.Adaptive, 5},
		{model.Legacy, model.Legacy, 1},
	}
	for _, c := range cases {
		got, err := pd.Payoff(c.own, c.partner)
		if err != nil {
			t.Fatalf("payoff(%s,%s): %v", c.own, c.partner, err)
		}
		if got != c.want {
			t.Fatalf("payoff(%s,%s) = %g, want %g", c.own, c.partner, got, c.want)
		}
	}
}

func TestComplementaryRequiresFullMatrix(t *testing.T) {
	_, err := NewComplementary("roles", map[model.Behavior]map[model.Behavior]float64{
		"lead":   {"lead": 0},
		"follow": {"lead": 2, "follow": 0},
	})
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec for missing pair, got %v", err)
	}
}

func TestComplementaryRewardsOppositeRoles(t *testing.T) {
	roles, err := NewComplementary("roles", map[model.Behavior]map[model.Behavior]float64{
		"lead":   {"lead": 0, "follow": 2},
		"follow": {"lead": 2, "follow": 0},
	})
	if err != nil {
		t.Fatalf("build complementary: %v", err)
	}
	match, err := roles.Payoff("lead", "lead")
	if err != nil {
		t.Fatalf("payoff: %v", err)
	}
	complement, err := roles.Payoff("lead", "follow")
	if err != nil {
		t.Fatalf("payoff: %v", err)
	}
	if complement <= match {
		t.Fatalf("expected complementary roles to pay more: match=%g complement=%g", match, complement)
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	resetRegistryForTests()
	defer initializeDefaultModels()

	if _, err := Resolve("missing"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	resetRegistryForTests()
	defer func() {
		resetRegistryForTests()
		initializeDefaultModels()
	}()

	table, err := NewTable("dup", map[model.Behavior]float64{model.Legacy: 1})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	if err := Register(table); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(table); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec for duplicate, got %v", err)
	}
}

func TestDefaultModelsRegistered(t *testing.T) {
	found := false
	for _, name := range List() {
		if name == "flat" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected built-in flat table to be registered")
	}
}
