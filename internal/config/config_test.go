package config

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mimesis/internal/model"
)

const sampleYAML = `
network:
  kind: ring
  size: 20
  k: 2
strategy:
  name: success_biased
  adoption_rate: 0.5
  gated: true
payoff:
  kind: table
  values:
    legacy: 1
    adaptive: 4
drop_rate: 0.05
initial_adopters: [0, 10]
max_steps: 500
seed: 42
replicates: 10
workers: 4
grid:
  axes:
    - name: adoption_rate
      values: [0.1, 0.5, 0.9]
    - name: drop_rate
      values: [0.0, 0.05]
`

func TestParseFullDocument(t *testing.T) {
	exp, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "ring", exp.Network.Kind)
	assert.Equal(t, 20, exp.Network.Size)
	assert.Equal(t, "success_biased", exp.Strategy.Name)
	assert.True(t, exp.Strategy.Gated)
	assert.Equal(t, 0.05, exp.DropRate)
	assert.Equal(t, []int{0, 10}, exp.InitialAdopters)
	assert.Equal(t, int64(42), exp.Seed)
	assert.Equal(t, 10, exp.Replicates)
	assert.Equal(t, 6, exp.Grid.Size())
}

func TestParseAppliesDefaults(t *testing.T) {
	exp, err := Parse([]byte(`
network:
  size: 5
strategy:
  name: contagion
  adoption_rate: 0.3
`))
	require.NoError(t, err)
	assert.Equal(t, "complete", exp.Network.Kind)
	assert.Equal(t, 1000, exp.MaxSteps)
	assert.Equal(t, 1, exp.Replicates)
	assert.Equal(t, 1, exp.Workers)
	assert.Equal(t, "registered", exp.Payoff.Kind)
	assert.Equal(t, "flat", exp.Payoff.Name)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown network", `
network: {kind: torus, size: 5}
strategy: {name: contagion, adoption_rate: 0.5}
`},
		{"zero size", `
network: {kind: complete, size: 0}
strategy: {name: contagion, adoption_rate: 0.5}
`},
		{"missing strategy", `
network: {kind: complete, size: 5}
`},
		{"adoption rate above one", `
network: {kind: complete, size: 5}
strategy: {name: contagion, adoption_rate: 1.5}
`},
		{"drop rate below zero", `
network: {kind: complete, size: 5}
strategy: {name: contagion, adoption_rate: 0.5}
drop_rate: -0.1
`},
		{"adopter out of range", `
network: {kind: complete, size: 5}
strategy: {name: contagion, adoption_rate: 0.5}
initial_adopters: [5]
`},
		{"ring without k", `
network: {kind: ring, size: 10}
strategy: {name: contagion, adoption_rate: 0.5}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestBuildModelRunsOneStep(t *testing.T) {
	exp, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	m, opts, err := exp.BuildModel(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 20, m.Size())
	assert.Equal(t, 500, opts.MaxSteps)
	assert.Equal(t, 2, m.Counts()[model.Adaptive])

	census, err := m.AdvanceOneStep()
	require.NoError(t, err)
	assert.Equal(t, 1, census.Step)
}

func TestOverrideReplacesParameters(t *testing.T) {
	exp, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	overlaid, err := exp.Override(map[string]any{
		"adoption_rate": 0.9,
		"drop_rate":     0.0,
		"strategy":      "frequency_biased",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.9, overlaid.Strategy.AdoptionRate)
	assert.Equal(t, 0.0, overlaid.DropRate)
	assert.Equal(t, "frequency_biased", overlaid.Strategy.Name)

	// The base experiment is untouched.
	assert.Equal(t, 0.5, exp.Strategy.AdoptionRate)
	assert.Equal(t, "success_biased", exp.Strategy.Name)
}

func TestOverrideRejectsUnknownParameter(t *testing.T) {
	exp, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	_, err = exp.Override(map[string]any{"adoptoin_rate": 0.9})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestOverrideRevalidates(t *testing.T) {
	exp, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	_, err = exp.Override(map[string]any{"adoption_rate": 2.0})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildFnProducesIndependentModels(t *testing.T) {
	exp, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	build := exp.BuildFn()
	first, _, err := build(map[string]any{"adoption_rate": 0.1}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	second, _, err := build(map[string]any{"adoption_rate": 0.9}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	if _, err := first.AdvanceOneStep(); err != nil {
		t.Fatalf("AdvanceOneStep: %v", err)
	}
	assert.Equal(t, 0, second.Step(), "stepping one model advanced another")
}
