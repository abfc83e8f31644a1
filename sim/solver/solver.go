// Package solver implements the localization algorithms as clients of the
// sim engine. Each algorithm registers itself by name; callers dispatch
// through Solve.
package solver

import (
	"fmt"
	"sort"

	"github.com/coopsim/coopsim/sim"
)

// Func solves a localization problem: given the ordered entity list and a
// configuration, it returns one estimated position per entity, in input
// order. Anchor entries echo their exact input coordinates.
type Func func(entities []sim.Entity, cfg sim.Config) ([][]float64, error)

var registry = map[string]Func{}

// Register adds a solver under the given name. Called from init functions;
// duplicate names are a programming error.
func Register(name string, fn Func) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("solver: duplicate registration of %q", name))
	}
	registry[name] = fn
}

// Solve dispatches to the named solver.
func Solve(name string, entities []sim.Entity, cfg sim.Config) ([][]float64, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("solver: unknown algorithm %q (have %v)", name, Names())
	}
	return fn(entities, cfg)
}

// Names returns the registered solver names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Message kinds shared by the consensus solvers. The engine never inspects
// these; they are protocol-private tags.
const (
	msgM1       = 1 // first consensus message (z1 ingredient)
	msgM2       = 2 // second consensus message (z2 ingredient)
	msgPenalty  = 3 // hybrid: the sender's penalty parameter
	msgEstimate = 4 // convex relaxation: the sender's current estimate
)

// Edge property names used by the consensus solvers.
const (
	propX      = "x"    // per-edge local position target
	propY      = "y"    // per-edge consensus target
	propLam1   = "lam1" // dual variable of the first consensus constraint
	propLam2   = "lam2" // dual variable of the second consensus constraint
	propZ1     = "z1"   // first consensus midpoint
	propZ2     = "z2"   // second consensus midpoint
	propM1Sent = "m1s"
	propM1Recv = "m1r"
	propM2Sent = "m2s"
	propM2Recv = "m2r"
	propC      = "c" // neighbor's penalty parameter (hybrid)
	propW      = "w" // neighbor's accelerated estimate (convex relaxation)
)

// updateMidpoints recomputes the consensus midpoints from the messages sent
// and received this round: z1 = (sent1 - recv1)/2, z2 = (sent2 + recv2)/2.
func updateMidpoints(edges []*sim.Edge) {
	for _, e := range edges {
		m1s, m1r := e.Vec(propM1Sent), e.Vec(propM1Recv)
		m2s, m2r := e.Vec(propM2Sent), e.Vec(propM2Recv)
		z1 := make([]float64, len(m1s))
		z2 := make([]float64, len(m2s))
		for i := range z1 {
			z1[i] = 0.5 * (m1s[i] - m1r[i])
			z2[i] = 0.5 * (m2s[i] + m2r[i])
		}
		e.Set(propZ1, z1)
		e.Set(propZ2, z2)
	}
}

// anchorDegree counts the anchors among a node's neighbors.
func anchorDegree(n *sim.Node) int {
	num := 0
	for _, e := range n.EdgesInOrder() {
		if e.FarRole() == sim.Anchor {
			num++
		}
	}
	return num
}
