package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopsim/coopsim/sim"
)

func runADMM(t *testing.T, rounds int) [][]float64 {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Iterations = rounds
	out, err := Solve("admm", triangleEntities(), cfg)
	require.NoError(t, err)
	return out
}

func TestADMM_AnchorsEchoTheirPosition(t *testing.T) {
	out := runADMM(t, 5)
	for i := 0; i < 3; i++ {
		assert.Equal(t, trianglePos[i], out[i], "anchor %d", i)
	}
}

func TestADMM_ErrorShrinksWithMoreRounds(t *testing.T) {
	// GIVEN the same zero-noise problem run short and long
	early := distance(runADMM(t, 5)[3], trianglePos[3])
	late := distance(runADMM(t, 60)[3], trianglePos[3])

	// THEN more rounds bring the agent closer to its true position
	assert.Less(t, late, early)
	assert.Less(t, late, 0.25)
}

func TestADMM_Deterministic(t *testing.T) {
	assert.Equal(t, runADMM(t, 10), runADMM(t, 10))
}

func TestADMM_BootstrapSendsBeforeFirstSolve(t *testing.T) {
	// GIVEN a two-node network with fresh ADMM state
	entities := []sim.Entity{
		sim.NewEntity([]float64{0, 0}, sim.Anchor),
		sim.NewEntity([]float64{1, 0}, sim.Agent),
	}
	net, err := sim.NewNetwork(entities, sim.DefaultConfig())
	require.NoError(t, err)

	nodes := net.Nodes()
	a0 := newADMMNode(nodes[0], nil)
	a1 := newADMMNode(nodes[1], nil)

	// WHEN running only the bootstrap phases by hand
	a0.BeginBootstrap()
	a1.BeginBootstrap()
	nodes[0].DrainMailbox()
	nodes[1].DrainMailbox()
	a0.EndBootstrap()
	a1.EndBootstrap()

	// THEN the midpoints exist on every edge and the penalty has taken its
	// first escalation step
	for _, n := range nodes {
		for _, e := range n.EdgesInOrder() {
			assert.True(t, e.Has("z1"))
			assert.True(t, e.Has("z2"))
		}
	}
	assert.InDelta(t, admmInitC*admmDeltaC, a1.c, 1e-12)
}
