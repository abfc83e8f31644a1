package solver

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/coopsim/coopsim/sim"
	"github.com/coopsim/coopsim/sim/minimize"
)

// ADMM cooperative localization after Erseghe, "A Distributed and
// Maximum-Likelihood Sensor Network Localization Algorithm Based Upon a
// Nonconvex Problem Formulation". Every node, anchors included, solves a
// small private subproblem per round and exchanges two consensus messages
// per edge. Considerably slower than the closed-form solvers.

// Algorithm constants, as recommended in the article.
const (
	admmEps    = 0.5
	admmZeta   = 0.1
	admmDeltaC = 1.01
	admmSigma  = 1.0
	admmInitC  = 2.0
)

// lamMax clamps the dual variables of the ADMM family.
const lamMax = 1000.0

var (
	sqrtEps  = math.Sqrt(admmEps)
	sqrtZeta = math.Sqrt(admmZeta)
)

func init() {
	Register("admm", solveADMM)
}

type admmNode struct {
	node *sim.Node
	min  minimize.Minimizer
	dim  int

	x []float64 // primal position estimate
	y []float64 // transformed consensus variable
	c float64   // penalty parameter, escalated geometrically each round
}

func newADMMNode(n *sim.Node, min minimize.Minimizer) *admmNode {
	a := &admmNode{node: n, min: min, dim: n.Dim(), c: admmInitC}
	n.SetOnMessage(a.onMessage)
	return a
}

func (a *admmNode) onMessage(msg sim.Message, sender int) {
	e := a.node.Edge(sender)
	switch msg.Kind {
	case msgM1:
		e.Set(propM1Recv, msg.Vec)
	case msgM2:
		e.Set(propM2Recv, msg.Vec)
	}
}

// BeginBootstrap initializes the primal estimate and the per-edge state,
// then sends the first messages. Dual variables start at zero; the first
// real dual update happens in round 1.
func (a *admmNode) BeginBootstrap() {
	if a.node.Role() == sim.Anchor {
		a.x = a.node.Coords()
	} else {
		a.x = zeros(a.dim)
	}
	for _, e := range a.node.EdgesInOrder() {
		e.Set(propX, zeros(a.dim))
		e.Set(propLam1, zeros(a.dim))
		e.Set(propLam2, zeros(a.dim))
	}
	a.buildMessages()
}

func (a *admmNode) EndBootstrap() {
	updateMidpoints(a.node.EdgesInOrder())
	a.c *= admmDeltaC
	a.updateY()
}

// buildMessages derives and sends the two consensus messages per edge:
// m1 = sqrt(eps)(x - x_e) + lam1/c, m2 = sqrt(zeta)(x + x_e) + lam2/c.
func (a *admmNode) buildMessages() {
	for _, e := range a.node.EdgesInOrder() {
		ex := e.Vec(propX)
		lam1, lam2 := e.Vec(propLam1), e.Vec(propLam2)
		m1 := make([]float64, a.dim)
		m2 := make([]float64, a.dim)
		for i := 0; i < a.dim; i++ {
			m1[i] = sqrtEps*(a.x[i]-ex[i]) + lam1[i]/a.c
			m2[i] = sqrtZeta*(a.x[i]+ex[i]) + lam2[i]/a.c
		}
		e.Set(propM1Sent, m1)
		e.Set(propM2Sent, m2)
		e.Send(sim.Message{Kind: msgM1, Vec: m1})
		e.Send(sim.Message{Kind: msgM2, Vec: m2})
	}
}

// updateY recomputes the node-local and per-edge consensus targets from the
// midpoints and duals (closed form, a weighted average).
func (a *admmNode) updateY() {
	edges := a.node.EdgesInOrder()
	n := float64(len(edges))

	sw1 := zeros(a.dim)
	sw2 := zeros(a.dim)
	for _, e := range edges {
		z1, z2 := e.Vec(propZ1), e.Vec(propZ2)
		lam1, lam2 := e.Vec(propLam1), e.Vec(propLam2)
		for i := 0; i < a.dim; i++ {
			sw1[i] += z1[i] - lam1[i]/a.c
			sw2[i] += z2[i] - lam2[i]/a.c
		}
	}

	a.y = make([]float64, a.dim)
	for i := 0; i < a.dim; i++ {
		a.y[i] = sw2[i]/(2*sqrtZeta*n) + sw1[i]/(2*sqrtEps*n)
	}

	k1 := (admmEps - admmZeta) / (4 * admmEps * admmZeta * n)
	k2 := (admmZeta - admmEps) * (admmZeta - admmEps) /
		(4 * (admmZeta + admmEps) * admmZeta * admmEps * n)
	for _, e := range edges {
		z1, z2 := e.Vec(propZ1), e.Vec(propZ2)
		lam1, lam2 := e.Vec(propLam1), e.Vec(propLam2)
		ey := make([]float64, a.dim)
		for i := 0; i < a.dim; i++ {
			ey[i] = k1*(sqrtEps*sw1[i]+sqrtZeta*sw2[i]) +
				sqrtZeta*(z2[i]-lam2[i]/a.c) - sqrtEps*(z1[i]-lam1[i]/a.c) +
				k2*(sqrtZeta*sw2[i]-sqrtEps*sw1[i])
		}
		e.Set(propY, ey)
	}
}

// BeginRound solves the node's private subproblem: squared range residuals
// plus the quadratic penalty tying the node's own and edges' positions to
// their consensus targets. Anchors keep their own position fixed and
// optimize only the edge positions.
func (a *admmNode) BeginRound(int) {
	edges := a.node.EdgesInOrder()

	if a.node.Role() == sim.Anchor {
		x0 := make([]float64, a.dim*len(edges))
		for i, e := range edges {
			copy(x0[i*a.dim:], e.Vec(propX))
		}
		xs := a.min.Minimize(minimize.Problem{Func: a.anchorObjective(edges)}, x0)
		for i, e := range edges {
			e.Set(propX, clone(xs[i*a.dim:(i+1)*a.dim]))
		}
	} else {
		x0 := make([]float64, a.dim*(1+len(edges)))
		copy(x0, a.x)
		for i, e := range edges {
			copy(x0[(1+i)*a.dim:], e.Vec(propX))
		}
		xs := a.min.Minimize(minimize.Problem{Func: a.agentObjective(edges)}, x0)
		a.x = clone(xs[:a.dim])
		for i, e := range edges {
			e.Set(propX, clone(xs[(1+i)*a.dim:(2+i)*a.dim]))
		}
	}

	a.buildMessages()
}

// anchorObjective evaluates the subproblem over the packed edge positions
// (vals[i*dim:(i+1)*dim] is edge i's position; the node's own position is
// constrained to its exact coordinates).
func (a *admmNode) anchorObjective(edges []*sim.Edge) func([]float64) float64 {
	n := float64(len(edges))
	return func(vals []float64) float64 {
		var s float64
		for i, e := range edges {
			xe := vals[i*a.dim : (i+1)*a.dim]
			r := e.Dist() - floats.Distance(a.x, xe, 2)
			s += r * r
		}
		s /= admmSigma

		dy := sub(a.x, a.y)
		s2 := (admmZeta + admmEps) * n * sqNorm(dy)
		for i, e := range edges {
			xe := vals[i*a.dim : (i+1)*a.dim]
			de := sub(xe, e.Vec(propY))
			s2 += (admmZeta + admmEps) * sqNorm(de)
			s2 += 2 * (admmZeta - admmEps) * floats.Dot(de, dy)
		}

		return s + 0.5*a.c*s2
	}
}

// agentObjective is the agent variant: vals[0:dim] is the node's own
// position, followed by the packed edge positions.
func (a *admmNode) agentObjective(edges []*sim.Edge) func([]float64) float64 {
	n := float64(len(edges))
	return func(vals []float64) float64 {
		x := vals[:a.dim]

		var s float64
		for i, e := range edges {
			xe := vals[(1+i)*a.dim : (2+i)*a.dim]
			r := e.Dist() - floats.Distance(x, xe, 2)
			s += r * r
		}
		s /= admmSigma

		dy := sub(x, a.y)
		s2 := (admmZeta + admmEps) * n * sqNorm(dy)
		for i, e := range edges {
			xe := vals[(1+i)*a.dim : (2+i)*a.dim]
			de := sub(xe, e.Vec(propY))
			s2 += (admmZeta + admmEps) * sqNorm(de)
			s2 += 2 * (admmZeta - admmEps) * floats.Dot(de, dy)
		}

		return s + 0.5*a.c*s2
	}
}

// EndRound updates the consensus midpoints, takes the dual ascent step
// (clamped), escalates the penalty, and refreshes the consensus targets.
func (a *admmNode) EndRound(int) {
	edges := a.node.EdgesInOrder()
	updateMidpoints(edges)

	for _, e := range edges {
		ex := e.Vec(propX)
		z1, z2 := e.Vec(propZ1), e.Vec(propZ2)
		lam1, lam2 := e.Vec(propLam1), e.Vec(propLam2)
		for i := 0; i < a.dim; i++ {
			lam1[i] += a.c * (sqrtEps*(a.x[i]-ex[i]) - z1[i])
			lam2[i] += a.c * (sqrtZeta*(a.x[i]+ex[i]) - z2[i])
		}
		clampTo(lam1, lamMax)
		clampTo(lam2, lamMax)
	}

	a.c *= admmDeltaC
	a.updateY()
}

func solveADMM(entities []sim.Entity, cfg sim.Config) ([][]float64, error) {
	net, err := sim.NewNetwork(entities, cfg)
	if err != nil {
		return nil, err
	}

	nodes := net.Nodes()
	admms := make([]*admmNode, len(nodes))
	programs := make([]sim.NodeProgram, len(nodes))
	for i, n := range nodes {
		admms[i] = newADMMNode(n, minimize.Default)
		programs[i] = admms[i]
	}

	sim.NewDriver(net, programs, cfg.Parallel).Run(cfg.Iterations)

	out := make([][]float64, len(nodes))
	for i, a := range admms {
		out[i] = clone(a.x)
	}
	return out, nil
}
