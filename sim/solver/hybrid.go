package solver

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/coopsim/coopsim/sim"
	"github.com/coopsim/coopsim/sim/minimize"
)

// Hybrid ADMM / convex-relaxation localization after Piovesan and Erseghe,
// "Cooperative Localization in WSNs: A Hybrid Convex/Nonconvex Solution".
//
// Each node starts in a nonconvex regime that ignores range measurements
// whose residual sign disagrees with the projection. Once its primal gap
// drops below hybridTau (or its penalty has grown past the starting value)
// it switches, irreversibly, to a convex relaxation with a freshly reset
// penalty that is then adapted against the gap's trend. hybridTau is set
// sensibly for 2-D datasets in a unit square; datasets with larger
// coordinates may need it higher.

// Parameters as recommended in the article.
const (
	hybridEpsC   = 0.005 // initial penalty (nonconvex regime)
	hybridZetaC  = 0.05  // penalty reset value at the switch
	hybridTheta  = 0.98  // hysteresis factor on the primal-gap trend
	hybridDeltaC = 1.01  // penalty growth factor
	hybridTau    = 0.003 // primal-gap threshold that triggers the switch
)

func init() {
	Register("hybrid", solveHybrid)
}

type hybridNode struct {
	node *sim.Node
	min  minimize.Minimizer
	dim  int

	x []float64 // primal position estimate
	y []float64 // transformed consensus variable (agents only)
	c float64   // penalty parameter

	// switched flips once, from the nonconvex to the convex regime, and
	// never back.
	switched bool
	prevGap  float64
}

func newHybridNode(n *sim.Node, min minimize.Minimizer) *hybridNode {
	h := &hybridNode{node: n, min: min, dim: n.Dim(), c: hybridEpsC}
	if n.Role() == sim.Anchor {
		h.x = n.Coords()
	} else {
		h.x = zeros(h.dim)
	}
	n.SetOnMessage(h.onMessage)
	return h
}

func (h *hybridNode) onMessage(msg sim.Message, sender int) {
	e := h.node.Edge(sender)
	switch msg.Kind {
	case msgM1:
		e.Set(propM1Recv, msg.Vec)
	case msgM2:
		e.Set(propM2Recv, msg.Vec)
	case msgPenalty:
		e.Set(propC, msg.Val)
	}
}

// BeginBootstrap seeds the per-edge state (anchor neighbors start at their
// known position) and sends the first messages; the first round needs no
// local solve.
func (h *hybridNode) BeginBootstrap() {
	for _, e := range h.node.EdgesInOrder() {
		if e.FarRole() == sim.Anchor {
			e.Set(propX, e.Anchor().Coords())
		} else {
			e.Set(propX, zeros(h.dim))
		}
		e.Set(propLam1, zeros(h.dim))
		e.Set(propLam2, zeros(h.dim))
		e.Set(propC, hybridEpsC)
	}
	h.buildMessages()
}

// EndBootstrap computes the first consensus midpoints. The dual update is
// skipped: duals are still zero and the penalty has not adapted yet.
func (h *hybridNode) EndBootstrap() {
	updateMidpoints(h.node.EdgesInOrder())
}

// buildMessages derives and sends the two consensus messages per edge:
// m1 = (x - x_e) + lam1/c, m2 = (x + x_e) + lam2/c. The penalty message
// (msgPenalty) is sent from EndRound when the penalty changes.
func (h *hybridNode) buildMessages() {
	for _, e := range h.node.EdgesInOrder() {
		ex := e.Vec(propX)
		lam1, lam2 := e.Vec(propLam1), e.Vec(propLam2)
		m1 := make([]float64, h.dim)
		m2 := make([]float64, h.dim)
		for i := 0; i < h.dim; i++ {
			m1[i] = (h.x[i] - ex[i]) + lam1[i]/h.c
			m2[i] = (h.x[i] + ex[i]) + lam2[i]/h.c
		}
		e.Set(propM1Sent, m1)
		e.Set(propM2Sent, m2)
		e.Send(sim.Message{Kind: msgM1, Vec: m1})
		e.Send(sim.Message{Kind: msgM2, Vec: m2})
	}
}

// BeginRound refreshes the consensus targets, solves each edge's local
// target in closed form (a projection bounded by the measured distance),
// runs the agent's own minimization, and sends the round's messages.
func (h *hybridNode) BeginRound(int) {
	edges := h.node.EdgesInOrder()
	n := float64(len(edges))

	if h.node.Role() == sim.Agent {
		h.y = zeros(h.dim)
		for _, e := range edges {
			z1, z2 := e.Vec(propZ1), e.Vec(propZ2)
			lam1, lam2 := e.Vec(propLam1), e.Vec(propLam2)
			for i := 0; i < h.dim; i++ {
				h.y[i] += 0.5 / n * (z1[i] + z2[i] - (lam1[i]+lam2[i])/h.c)
			}
		}
	}

	for _, e := range edges {
		z1, z2 := e.Vec(propZ1), e.Vec(propZ2)
		lam1, lam2 := e.Vec(propLam1), e.Vec(propLam2)
		ey := make([]float64, h.dim)
		for i := 0; i < h.dim; i++ {
			ey[i] = 0.5 * (z2[i] - z1[i] - (lam2[i]-lam1[i])/h.c)
		}
		e.Set(propY, ey)
	}

	if h.node.Role() == sim.Anchor {
		for _, e := range edges {
			ey := e.Vec(propY)
			arg := sub(ey, h.x)
			argn := floats.Norm(arg, 2)
			if argn > 0 && (h.switched || e.Dist() < argn) {
				scale := (e.Dist() + 2*h.c*argn) / ((1 + 2*h.c) * argn)
				ex := make([]float64, h.dim)
				for i := 0; i < h.dim; i++ {
					ex[i] = h.x[i] + scale*arg[i]
				}
				e.Set(propX, ex)
			} else {
				e.Set(propX, clone(ey))
			}
		}
	} else {
		for _, e := range edges {
			ey := e.Vec(propY)
			arg := sub(h.x, ey)
			argn := floats.Norm(arg, 2)
			if argn > 0 && (h.switched || e.Dist() < argn) {
				scale := (argn - e.Dist()) / (argn * (1 + 2*h.c))
				ex := make([]float64, h.dim)
				for i := 0; i < h.dim; i++ {
					ex[i] = ey[i] + scale*arg[i]
				}
				e.Set(propX, ex)
			} else {
				e.Set(propX, clone(ey))
			}
		}

		h.x = h.min.Minimize(minimize.Problem{
			Func: h.objective(edges),
			Grad: h.gradient(edges),
		}, h.x)
	}

	h.buildMessages()
}

// edgeTarget is the range-residual reference for an edge: the known anchor
// position for anchor neighbors, the consensus target otherwise. Anchor
// terms carry the extra +1 weight because their position is exact.
func (h *hybridNode) edgeTarget(e *sim.Edge) (target []float64, weight float64) {
	if e.FarRole() == sim.Anchor {
		return e.Anchor().Coords(), 2*h.c + 1
	}
	return e.Vec(propY), 2 * h.c
}

// objective is the agent's local distance-weight function. In the nonconvex
// regime, measurements whose residual sign disagrees with the projection
// (measured distance >= current separation) are ignored; after the switch
// every measurement counts.
func (h *hybridNode) objective(edges []*sim.Edge) func([]float64) float64 {
	n := float64(len(edges))
	return func(x []float64) float64 {
		var s float64
		for _, e := range edges {
			target, weight := h.edgeTarget(e)
			argn := floats.Distance(x, target, 2)
			if h.switched || e.Dist() < argn {
				r := argn - e.Dist()
				s += r * r / weight
			}
		}
		d := sub(x, h.y)
		return 0.5*floats.Dot(d, d) + s*0.5/n
	}
}

func (h *hybridNode) gradient(edges []*sim.Edge) func(dst, x []float64) {
	n := float64(len(edges))
	return func(dst, x []float64) {
		floats.SubTo(dst, x, h.y)
		for _, e := range edges {
			target, weight := h.edgeTarget(e)
			q := sub(x, target)
			val := floats.Norm(q, 2)
			if val > 0 && (h.switched || e.Dist() < val) {
				floats.AddScaled(dst, (val-e.Dist())/(weight*n*val), q)
			}
		}
	}
}

// EndRound performs the dual ascent (clamped to lamMax), tracks the primal
// gap, and runs the one-way switching heuristic with its penalty adaptation.
func (h *hybridNode) EndRound(int) {
	edges := h.node.EdgesInOrder()
	updateMidpoints(edges)

	for _, e := range edges {
		ex := e.Vec(propX)
		z1, z2 := e.Vec(propZ1), e.Vec(propZ2)
		lam1, lam2 := e.Vec(propLam1), e.Vec(propLam2)
		for i := 0; i < h.dim; i++ {
			lam1[i] += h.c * (h.x[i] - ex[i] - z1[i])
			lam2[i] += h.c * (h.x[i] + ex[i] - z2[i])
		}
		clampTo(lam1, lamMax)
		clampTo(lam2, lamMax)
	}

	gap := h.primalGap(edges)

	cmax := h.c
	for _, e := range edges {
		if ec := e.Float(propC); ec > cmax {
			cmax = ec
		}
	}

	if h.switched {
		if gap < h.prevGap*hybridTheta {
			h.c = cmax // improving: hold the penalty
		} else {
			h.c = cmax * hybridDeltaC // stalled: tighten
		}
		h.node.Broadcast(sim.Message{Kind: msgPenalty, Val: h.c})
	} else if (0 < gap && gap < hybridTau) || cmax > hybridEpsC {
		h.switched = true
		h.c = hybridZetaC
		h.node.Broadcast(sim.Message{Kind: msgPenalty, Val: h.c})
	}

	h.prevGap = gap
}

// primalGap is the largest consensus-constraint violation across the node's
// edges this round.
func (h *hybridNode) primalGap(edges []*sim.Edge) float64 {
	var gap float64
	for _, e := range edges {
		ex := e.Vec(propX)
		z1, z2 := e.Vec(propZ1), e.Vec(propZ2)
		for i := 0; i < h.dim; i++ {
			if v := math.Abs(h.x[i] - ex[i] - z1[i]); v > gap {
				gap = v
			}
			if v := math.Abs(h.x[i] + ex[i] - z2[i]); v > gap {
				gap = v
			}
		}
	}
	return gap
}

func solveHybrid(entities []sim.Entity, cfg sim.Config) ([][]float64, error) {
	net, err := sim.NewNetwork(entities, cfg)
	if err != nil {
		return nil, err
	}

	nodes := net.Nodes()
	hybrids := make([]*hybridNode, len(nodes))
	programs := make([]sim.NodeProgram, len(nodes))
	for i, n := range nodes {
		hybrids[i] = newHybridNode(n, minimize.Default)
		programs[i] = hybrids[i]
	}

	sim.NewDriver(net, programs, cfg.Parallel).Run(cfg.Iterations)

	out := make([][]float64, len(nodes))
	for i, h := range hybrids {
		out[i] = clone(h.x)
	}
	return out, nil
}
