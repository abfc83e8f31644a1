package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopsim/coopsim/sim"
)

func TestConvex_AnchorsEchoTheirPosition(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 20
	out, err := Solve("convex", triangleEntities(), cfg)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, trianglePos[i], out[i], "anchor %d", i)
	}
}

func TestConvex_ConvergesOnTriangle(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 300
	out, err := Solve("convex", triangleEntities(), cfg)
	require.NoError(t, err)

	assert.Less(t, distance(out[3], trianglePos[3]), 0.1)
}

func TestConvex_TruePositionsAreAFixedPoint(t *testing.T) {
	// GIVEN every node initialized at its true position with zero noise,
	// so each neighbor separation equals the measured distance exactly
	net, err := sim.NewNetwork(triangleEntities(), sim.DefaultConfig())
	require.NoError(t, err)
	nodes := net.Nodes()

	lipschitz := lipschitzConstant(nodes)
	crs := make([]*crNode, len(nodes))
	programs := make([]sim.NodeProgram, len(nodes))
	for i, n := range nodes {
		c := &crNode{node: n, dim: n.Dim(), lipschitz: lipschitz}
		c.x = clone(trianglePos[i])
		c.prev = clone(c.x)
		n.SetOnMessage(c.onMessage)
		crs[i] = c
		programs[i] = c
	}

	// WHEN running a few rounds
	sim.NewDriver(net, programs, false).Run(3)

	// THEN every projection lands on its ball's boundary and the gradient
	// vanishes, so nobody moves: the step must not leak any bias term
	for i, c := range crs {
		for d := range c.x {
			assert.InDelta(t, trianglePos[i][d], c.x[d], 1e-12, "node %d coord %d", i, d)
		}
	}
}

func TestConvex_Deterministic(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 50

	a, err := Solve("convex", triangleEntities(), cfg)
	require.NoError(t, err)
	b, err := Solve("convex", triangleEntities(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestConvex_SeedChangesInitialization(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 1

	a, err := Solve("convex", triangleEntities(), cfg)
	require.NoError(t, err)

	cfg.Seed = 7
	b, err := Solve("convex", triangleEntities(), cfg)
	require.NoError(t, err)

	// One round retains most of the random start, so the agent estimates
	// differ while the anchors still agree.
	assert.Equal(t, a[0], b[0])
	assert.NotEqual(t, a[3], b[3])
}

func TestLipschitzConstant(t *testing.T) {
	net, err := sim.NewNetwork(triangleEntities(), sim.DefaultConfig())
	require.NoError(t, err)

	// Complete graph on 4 nodes: max degree 3; the agent sees 3 anchors.
	assert.Equal(t, float64(2*3+3), lipschitzConstant(net.Nodes()))
}

func TestConvexAsync_AnchorsEchoTheirPosition(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 30
	out, err := Solve("convex-async", triangleEntities(), cfg)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, trianglePos[i], out[i], "anchor %d", i)
	}
}

func TestConvexAsync_ConvergesOnTriangle(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 60
	out, err := Solve("convex-async", triangleEntities(), cfg)
	require.NoError(t, err)

	assert.Less(t, distance(out[3], trianglePos[3]), 0.1)
}

func TestConvexAsync_Deterministic(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 25

	a, err := Solve("convex-async", triangleEntities(), cfg)
	require.NoError(t, err)
	b, err := Solve("convex-async", triangleEntities(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
