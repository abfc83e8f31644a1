package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopsim/coopsim/sim"
)

// triangle is a well-posed zero-noise 2-D scenario: three anchors and one
// agent inside their hull. trianglePos[i] is entity i's true position.
var trianglePos = [][]float64{
	{0, 0},
	{1, 0},
	{0.5, 1},
	{0.5, 0.4},
}

func triangleEntities() []sim.Entity {
	return []sim.Entity{
		sim.NewEntity(trianglePos[0], sim.Anchor),
		sim.NewEntity(trianglePos[1], sim.Anchor),
		sim.NewEntity(trianglePos[2], sim.Anchor),
		sim.NewEntity(trianglePos[3], sim.Agent),
	}
}

func distance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

func TestSolve_UnknownAlgorithm(t *testing.T) {
	_, err := Solve("no-such-algorithm", triangleEntities(), sim.DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown algorithm")
}

func TestNames_ListsAllRegisteredSolvers(t *testing.T) {
	names := Names()
	assert.Equal(t, []string{
		"admm", "convex", "convex-async", "hybrid", "leastsquares", "lsangle",
	}, names)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { Register("admm", nil) })
}

func TestSolve_PropagatesTopologyErrors(t *testing.T) {
	// GIVEN a disconnected layout
	entities := []sim.Entity{
		sim.NewEntity([]float64{0, 0}, sim.Anchor),
		sim.NewEntity([]float64{100, 0}, sim.Agent),
	}
	cfg := sim.DefaultConfig()
	cfg.Visibility = 1
	cfg.Iterations = 1

	for _, name := range Names() {
		_, err := Solve(name, entities, cfg)
		assert.Error(t, err, "solver %q", name)
	}
}
