package solver

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/coopsim/coopsim/sim"
)

// Asynchronous convex relaxation (Soares, Xavier, and Gomes, same paper as
// convex.go). A different scheduling discipline, not a barrier variant: each
// step one randomly chosen agent recomputes its estimate from the neighbor
// estimates it last heard, then broadcasts, and only its immediate
// neighbors drain their mailboxes.

func init() {
	Register("convex-async", solveConvexAsync)
}

// asyncMaxInner caps the per-update inner descent; the movement cutoff
// normally fires first on reasonable datasets.
const (
	asyncMaxInner = 500
	asyncCutoff   = 1e-3
)

type craNode struct {
	node      *sim.Node
	dim       int
	spans     [][2]float64
	lipschitz float64
	rng       *rand.Rand

	x  []float64
	xs map[int][]float64 // last-heard neighbor estimates, by node id
}

func (c *craNode) onMessage(msg sim.Message, sender int) {
	if c.node.Role() == sim.Anchor {
		return // anchors never move; no need to track neighbors
	}
	c.xs[sender] = msg.Vec
}

// Update runs the node's inner accelerated descent from a fresh randomized
// start, adopts the result, and broadcasts it.
func (c *craNode) Update() {
	z := randomVec(c.spans, c.rng)
	prev := clone(z)
	edges := c.node.EdgesInOrder()
	degree := float64(len(edges))

	for l := 1; l <= asyncMaxInner; l++ {
		k := float64(l-2) / float64(l+1)
		w := make([]float64, c.dim)
		for i := 0; i < c.dim; i++ {
			w[i] = z[i] + k*(z[i]-prev[i])
		}

		df := scaled(0.5*degree, w)
		for _, e := range edges {
			center := c.xs[e.Neighbor()]
			n := sub(w, center)
			if norm := floats.Norm(n, 2); norm > e.Dist() {
				floats.Scale(e.Dist()/norm, n)
			}
			floats.Add(n, center)
			floats.AddScaled(df, -0.5, n)
		}

		prev = z
		z = make([]float64, c.dim)
		for i := 0; i < c.dim; i++ {
			z[i] = w[i] - df[i]/c.lipschitz
		}

		if floats.Distance(z, prev, 2) <= asyncCutoff {
			break
		}
	}

	c.x = z
	c.node.Broadcast(sim.Message{Kind: msgEstimate, Vec: c.x})
}

func solveConvexAsync(entities []sim.Entity, cfg sim.Config) ([][]float64, error) {
	spans := sim.Spans(entities)

	net, err := sim.NewNetwork(entities, cfg)
	if err != nil {
		return nil, err
	}
	nodes := net.Nodes()

	lipschitz := lipschitzConstant(nodes)
	rng := sim.NewRNG(cfg.Seed)
	initRNG := rng.Subsystem(sim.SubsystemInit)

	cras := make([]*craNode, len(nodes))
	programs := make([]sim.AsyncProgram, len(nodes))
	for i, n := range nodes {
		c := &craNode{
			node:      n,
			dim:       n.Dim(),
			spans:     spans,
			lipschitz: lipschitz,
			rng:       initRNG,
			xs:        make(map[int][]float64),
		}
		if n.Role() == sim.Anchor {
			c.x = n.Coords()
		} else {
			c.x = randomVec(spans, initRNG)
		}
		n.SetOnMessage(c.onMessage)
		cras[i] = c
		programs[i] = c
	}

	// Nodes need each other's initial estimates before any update runs.
	for _, c := range cras {
		c.node.Broadcast(sim.Message{Kind: msgEstimate, Vec: c.x})
	}
	for _, n := range nodes {
		n.DrainMailbox()
	}

	agents := func(i int) bool { return nodes[i].Role() == sim.Agent }
	sim.RunAsync(net, programs, cfg.Iterations, agents, rng.Subsystem(sim.SubsystemSchedule))

	out := make([][]float64, len(nodes))
	for i, c := range cras {
		out[i] = clone(c.x)
	}
	return out, nil
}
