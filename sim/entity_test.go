package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntity_NoisyDist_ZeroSigma_IsExact(t *testing.T) {
	// GIVEN two entities at a known separation
	a := NewEntity([]float64{0, 0}, Anchor)
	b := NewEntity([]float64{3, 4}, Agent)
	rng := rand.New(rand.NewSource(1))

	// WHEN measuring with sigma = 0, repeatedly
	// THEN every measurement equals the noiseless distance exactly
	for i := 0; i < 10; i++ {
		if got := a.noisyDist(b, 0, rng); got != 5 {
			t.Fatalf("noisyDist with sigma=0: got %v, want 5", got)
		}
	}
}

func TestEntity_NoisyDist_IsNeverNegative(t *testing.T) {
	// GIVEN a huge noise level that would flip the sign without clamping
	a := NewEntity([]float64{0}, Anchor)
	b := NewEntity([]float64{1}, Agent)
	rng := rand.New(rand.NewSource(7))

	// WHEN measuring many times
	// THEN the multiplicative factor |1+N(0,sigma)| keeps distances non-negative
	for i := 0; i < 1000; i++ {
		if got := a.noisyDist(b, 50, rng); got < 0 {
			t.Fatalf("noisyDist returned negative distance %v", got)
		}
	}
}

func TestEntity_Coords_Agent_Panics(t *testing.T) {
	// GIVEN an agent
	agent := NewEntity([]float64{1, 2}, Agent)

	// WHEN algorithm code reads its coordinates THEN it panics
	assert.Panics(t, func() { agent.Coords() })
}

func TestEntity_Coords_Anchor_ReturnsCopy(t *testing.T) {
	anchor := NewEntity([]float64{1, 2}, Anchor)

	got := anchor.Coords()
	require.Equal(t, []float64{1, 2}, got)

	// Mutating the returned slice must not affect the entity.
	got[0] = 99
	assert.Equal(t, []float64{1, 2}, anchor.Coords())
}

func TestEntity_Dist_GuardsAgents(t *testing.T) {
	anchor := NewEntity([]float64{0, 0}, Anchor)
	agent := NewEntity([]float64{1, 1}, Agent)

	assert.Panics(t, func() { anchor.Dist(agent) })
	assert.Panics(t, func() { agent.SquaredDist(anchor) })
	assert.InDelta(t, math.Sqrt2, anchor.Dist(NewEntity([]float64{1, 1}, Anchor)), 1e-12)
}

func TestSpans_CoversAllEntities(t *testing.T) {
	entities := []Entity{
		NewEntity([]float64{0, 5}, Anchor),
		NewEntity([]float64{-2, 1}, Agent),
		NewEntity([]float64{3, 2}, Agent),
	}

	spans := Spans(entities)
	require.Len(t, spans, 2)
	assert.Equal(t, [2]float64{-2, 3}, spans[0])
	assert.Equal(t, [2]float64{1, 5}, spans[1])
}
