package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopsim/coopsim/sim"
	"github.com/coopsim/coopsim/sim/minimize"
)

// runHybridInstrumented rebuilds the hybrid run with direct access to the
// per-node state, recording each node's switched flag after every round.
func runHybridInstrumented(t *testing.T, rounds int) (hybrids []*hybridNode, switchTrace [][]bool) {
	t.Helper()
	net, err := sim.NewNetwork(triangleEntities(), sim.DefaultConfig())
	require.NoError(t, err)

	nodes := net.Nodes()
	hybrids = make([]*hybridNode, len(nodes))
	programs := make([]sim.NodeProgram, len(nodes))
	for i, n := range nodes {
		hybrids[i] = newHybridNode(n, minimize.Default)
		programs[i] = &switchRecorder{h: hybrids[i], trace: &switchTrace, idx: i, total: len(nodes)}
	}

	sim.NewDriver(net, programs, false).Run(rounds)
	return hybrids, switchTrace
}

// switchRecorder wraps a hybridNode and snapshots its switched flag after
// each finalize phase.
type switchRecorder struct {
	h     *hybridNode
	trace *[][]bool
	idx   int
	total int
}

func (r *switchRecorder) BeginBootstrap() { r.h.BeginBootstrap() }
func (r *switchRecorder) EndBootstrap()   { r.h.EndBootstrap() }

func (r *switchRecorder) BeginRound(round int) { r.h.BeginRound(round) }

func (r *switchRecorder) EndRound(round int) {
	r.h.EndRound(round)
	for len(*r.trace) < round {
		*r.trace = append(*r.trace, make([]bool, r.total))
	}
	(*r.trace)[round-1][r.idx] = r.h.switched
}

func maxGap(hybrids []*hybridNode) float64 {
	var gap float64
	for _, h := range hybrids {
		if h.prevGap > gap {
			gap = h.prevGap
		}
	}
	return gap
}

func TestHybrid_PrimalGapShrinks(t *testing.T) {
	early, _ := runHybridInstrumented(t, 5)
	late, _ := runHybridInstrumented(t, 50)

	assert.Less(t, maxGap(late), maxGap(early))
}

func TestHybrid_PrimalGapConverges(t *testing.T) {
	hybrids, _ := runHybridInstrumented(t, 200)
	assert.Less(t, maxGap(hybrids), 1e-2)
}

func TestHybrid_SwitchIsOneWay(t *testing.T) {
	// GIVEN the per-round switch trace of every node
	_, trace := runHybridInstrumented(t, 100)

	// THEN no node ever reverts from the convex back to the nonconvex
	// regime
	for i := 0; i < len(trace[0]); i++ {
		switched := false
		for round := range trace {
			if switched {
				assert.True(t, trace[round][i], "node %d reverted at round %d", i, round+1)
			}
			switched = switched || trace[round][i]
		}
	}
}

func TestHybrid_AnchorsEchoTheirPosition(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 10
	out, err := Solve("hybrid", triangleEntities(), cfg)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, trianglePos[i], out[i], "anchor %d", i)
	}
}

func TestHybrid_ConvergesOnTriangle(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 200
	out, err := Solve("hybrid", triangleEntities(), cfg)
	require.NoError(t, err)
	assert.Less(t, distance(out[3], trianglePos[3]), 0.1)
}

func TestHybrid_PenaltyBroadcastAdoptedByNeighbors(t *testing.T) {
	// GIVEN a finished run in which at least one node switched
	hybrids, trace := runHybridInstrumented(t, 300)
	anySwitched := false
	for _, s := range trace[len(trace)-1] {
		anySwitched = anySwitched || s
	}
	require.True(t, anySwitched)

	// THEN the switch contagion has reached every node: a switched
	// neighbor's penalty exceeds the nonconvex starting value, which is
	// itself a switch trigger.
	for i, h := range hybrids {
		assert.True(t, h.switched, "node %d", i)
		assert.Greater(t, h.c, hybridEpsC, "node %d", i)
	}
}
