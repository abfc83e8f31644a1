package solver

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/coopsim/coopsim/sim"
)

// Non-cooperative least squares: each agent solves a closed-form
// trilateration against the anchors it can see, without any message
// exchange. An agent needs at least dim+1 anchors in range; one with fewer
// is reported at the origin with a diagnostic, and the rest of the
// computation proceeds. Most datasets have few anchors, so this solver
// usually wants a generous visibility radius.

func init() {
	Register("leastsquares", solveLeastSquares)
}

func solveLeastSquares(entities []sim.Entity, cfg sim.Config) ([][]float64, error) {
	net, err := sim.NewNetwork(entities, cfg)
	if err != nil {
		return nil, err
	}

	nodes := net.Nodes()
	out := make([][]float64, len(nodes))
	for i, n := range nodes {
		out[i] = locateFromAnchors(n)
	}
	return out, nil
}

// locateFromAnchors solves the linearized range system. Subtracting the
// first anchor's range equation from the others cancels the quadratic term,
// leaving dim unknowns in (anchors-1) linear equations, solved by least
// squares.
func locateFromAnchors(n *sim.Node) []float64 {
	if n.Role() == sim.Anchor {
		return n.Coords()
	}

	var anchors []*sim.Edge
	for _, e := range n.EdgesInOrder() {
		if e.FarRole() == sim.Anchor {
			anchors = append(anchors, e)
		}
	}

	dim := n.Dim()
	if len(anchors) < dim+1 {
		logrus.Warnf("solver: node %d has too few anchors in range (%d < %d); cannot determine position",
			n.ID(), len(anchors), dim+1)
		return zeros(dim)
	}

	ref := anchors[0].Anchor().Coords()
	refSq := floats.Dot(ref, ref)
	refDist := anchors[0].Dist()

	rows := len(anchors) - 1
	a := mat.NewDense(rows, dim, nil)
	b := mat.NewVecDense(rows, nil)
	for r, e := range anchors[1:] {
		pos := e.Anchor().Coords()
		for c := 0; c < dim; c++ {
			a.Set(r, c, ref[c]-pos[c])
		}
		b.SetVec(r, refSq-floats.Dot(pos, pos)-refDist*refDist+e.Dist()*e.Dist())
	}

	var loc mat.VecDense
	if err := loc.SolveVec(a, b); err != nil {
		logrus.Warnf("solver: node %d has a degenerate anchor geometry; cannot determine position", n.ID())
		return zeros(dim)
	}

	est := make([]float64, dim)
	for c := 0; c < dim; c++ {
		est[c] = 0.5 * loc.AtVec(c)
	}
	return est
}
