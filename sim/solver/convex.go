package solver

import (
	"gonum.org/v1/gonum/floats"

	"github.com/coopsim/coopsim/sim"
)

// Parallel convex relaxation after Soares, Xavier, and Gomes, "Simple and
// Fast Convex Relaxation Method for Cooperative Localization in Sensor
// Networks Using Range Measurements". Every agent takes one accelerated
// projection-gradient step per round; anchors only echo their position.

func init() {
	Register("convex", solveConvex)
}

type crNode struct {
	node      *sim.Node
	dim       int
	lipschitz float64

	x    []float64
	prev []float64
	w    []float64 // Nesterov-accelerated iterate, broadcast each round
}

func (c *crNode) onMessage(msg sim.Message, sender int) {
	c.node.Edge(sender).Set(propW, msg.Vec)
}

// BeginRound forms the accelerated iterate and broadcasts it.
func (c *crNode) BeginRound(round int) {
	k := float64(round-2) / float64(round+1)
	c.w = make([]float64, c.dim)
	for i := 0; i < c.dim; i++ {
		c.w[i] = c.x[i] + k*(c.x[i]-c.prev[i])
	}
	c.node.Broadcast(sim.Message{Kind: msgEstimate, Vec: c.w})
}

// EndRound takes the projection-gradient step. The gradient splits into a
// neighbor term (projections onto balls around the neighbors' iterates) and
// an anchor term (projections onto balls around the known anchor positions).
func (c *crNode) EndRound(int) {
	if c.node.Role() == sim.Anchor {
		return
	}
	edges := c.node.EdgesInOrder()

	dg := scaled(float64(len(edges)), c.w)
	for _, e := range edges {
		ew := e.Vec(propW)
		n := sub(c.w, ew)
		if norm := floats.Norm(n, 2); norm > e.Dist() {
			floats.Scale(e.Dist()/norm, n)
		}
		floats.Add(n, ew)
		floats.Sub(dg, n)
	}

	dh := scaled(float64(anchorDegree(c.node)), c.w)
	for _, e := range edges {
		if e.FarRole() != sim.Anchor {
			continue
		}
		a := e.Anchor().Coords()
		n := sub(c.w, a)
		if norm := floats.Norm(n, 2); norm > e.Dist() {
			floats.Scale(e.Dist()/norm, n)
		}
		floats.Add(n, a)
		floats.Sub(dh, n)
	}

	c.prev = c.x
	c.x = make([]float64, c.dim)
	for i := 0; i < c.dim; i++ {
		c.x[i] = c.w[i] - (dg[i]+dh[i])/c.lipschitz
	}
}

func solveConvex(entities []sim.Entity, cfg sim.Config) ([][]float64, error) {
	spans := sim.Spans(entities)

	net, err := sim.NewNetwork(entities, cfg)
	if err != nil {
		return nil, err
	}
	nodes := net.Nodes()

	lipschitz := lipschitzConstant(nodes)
	rng := sim.NewRNG(cfg.Seed).Subsystem(sim.SubsystemInit)

	crs := make([]*crNode, len(nodes))
	programs := make([]sim.NodeProgram, len(nodes))
	for i, n := range nodes {
		c := &crNode{node: n, dim: n.Dim(), lipschitz: lipschitz}
		if n.Role() == sim.Anchor {
			c.x = n.Coords()
		} else {
			c.x = randomVec(spans, rng)
		}
		c.prev = clone(c.x)
		n.SetOnMessage(c.onMessage)
		crs[i] = c
		programs[i] = c
	}

	sim.NewDriver(net, programs, cfg.Parallel).Run(cfg.Iterations)

	out := make([][]float64, len(nodes))
	for i, c := range crs {
		out[i] = clone(c.x)
	}
	return out, nil
}

// lipschitzConstant bounds the gradient's Lipschitz constant for the
// relaxed problem: twice the maximum degree plus the maximum number of
// anchor neighbors.
func lipschitzConstant(nodes []*sim.Node) float64 {
	maxDegree := 0
	maxAnchors := 0
	for _, n := range nodes {
		if n.Degree() > maxDegree {
			maxDegree = n.Degree()
		}
		if a := anchorDegree(n); a > maxAnchors {
			maxAnchors = a
		}
	}
	return float64(2*maxDegree + maxAnchors)
}
