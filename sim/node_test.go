package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineGraph builds anchors/agents on a line with the given spacing visible.
func lineGraph(t *testing.T, coords []float64, visibility float64) *Network {
	t.Helper()
	entities := make([]Entity, len(coords))
	for i, c := range coords {
		role := Agent
		if i == 0 {
			role = Anchor
		}
		entities[i] = NewEntity([]float64{c, 0}, role)
	}
	cfg := DefaultConfig()
	cfg.Visibility = visibility
	net, err := NewNetwork(entities, cfg)
	require.NoError(t, err)
	return net
}

func TestNode_DrainMailbox_FIFO(t *testing.T) {
	// GIVEN several messages queued from the same sender
	net := lineGraph(t, []float64{0, 1}, 10)
	src, dst := net.nodes[0], net.nodes[1]
	e := src.Edge(dst.ID())
	for kind := 1; kind <= 4; kind++ {
		e.Send(Message{Kind: kind})
	}

	// WHEN draining
	var kinds []int
	dst.SetOnMessage(func(msg Message, sender int) {
		kinds = append(kinds, msg.Kind)
	})
	dst.DrainMailbox()

	// THEN the callback sees them oldest-first
	assert.Equal(t, []int{1, 2, 3, 4}, kinds)

	// AND a second drain is a no-op
	kinds = nil
	dst.DrainMailbox()
	assert.Empty(t, kinds)
}

func TestNode_DrainMailbox_NoHandler_Panics(t *testing.T) {
	net := lineGraph(t, []float64{0, 1}, 10)
	net.nodes[0].Edge(1).Send(Message{Kind: 1})

	assert.Panics(t, func() { net.nodes[1].DrainMailbox() })
}

func TestNode_Broadcast_ReachesEveryNeighbor(t *testing.T) {
	// GIVEN a fully visible 4-node graph
	net := lineGraph(t, []float64{0, 1, 2, 3}, 10)

	received := make([]int, len(net.nodes))
	for i, n := range net.nodes {
		i := i
		n.SetOnMessage(func(msg Message, sender int) {
			received[i]++
		})
	}

	// WHEN node 0 broadcasts and everyone drains
	net.nodes[0].Broadcast(Message{Kind: 7})
	for _, n := range net.nodes {
		n.DrainMailbox()
	}

	// THEN every neighbor got exactly one copy, the sender none
	assert.Equal(t, []int{0, 1, 1, 1}, received)
}

func TestNode_EdgesInOrder_IsStable(t *testing.T) {
	// GIVEN a graph
	net := lineGraph(t, []float64{0, 1, 2, 3}, 10)
	n := net.nodes[2]

	// The frozen order lists neighbors in construction (input) order.
	var ids []int
	for _, e := range n.EdgesInOrder() {
		ids = append(ids, e.Neighbor())
	}
	require.Equal(t, []int{0, 1, 3}, ids)

	// AND repeated iteration yields the identical order every time.
	for trial := 0; trial < 5; trial++ {
		var again []int
		for _, e := range n.EdgesInOrder() {
			again = append(again, e.Neighbor())
		}
		assert.Equal(t, ids, again)
	}
}

func TestNode_SequentialIDs(t *testing.T) {
	net := lineGraph(t, []float64{0, 1, 2}, 10)
	for i, n := range net.nodes {
		assert.Equal(t, i, n.ID())
	}
}
