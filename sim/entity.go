package sim

import (
	"math"
	"math/rand"
)

// Role tags an entity as either a fixed reference point or a node whose
// position must be estimated.
type Role int

const (
	// Agent is a node with an unknown position.
	Agent Role = iota
	// Anchor is a node whose true position is known and fixed.
	Anchor
)

func (r Role) String() string {
	if r == Anchor {
		return "anchor"
	}
	return "agent"
}

// Entity is an immutable positional record: a coordinate vector plus a role
// tag. The problem dimension is the length of the coordinate vector and is
// fixed for the run.
//
// An agent's true coordinates are readable only inside this package (by the
// measurement and scoring routines). Algorithm code sees them through
// Coords(), which refuses agents.
type Entity struct {
	coords []float64
	role   Role
}

// NewEntity builds an entity from a coordinate vector and a role.
// The vector is copied.
func NewEntity(coords []float64, role Role) Entity {
	c := make([]float64, len(coords))
	copy(c, coords)
	return Entity{coords: c, role: role}
}

// Role returns the entity's role tag.
func (e Entity) Role() Role { return e.role }

// Dim returns the coordinate dimension.
func (e Entity) Dim() int { return len(e.coords) }

// Coords returns a copy of the entity's coordinates. It panics for agents:
// an agent's true position is the quantity the algorithms are estimating,
// and letting them read it would invalidate every result.
func (e Entity) Coords() []float64 {
	if e.role != Anchor {
		panic("sim: attempt to access ground-truth coordinates of an agent")
	}
	c := make([]float64, len(e.coords))
	copy(c, e.coords)
	return c
}

// Dist returns the Euclidean distance to another entity. Both entities must
// expose their coordinates, so this is only callable anchor-to-anchor from
// algorithm code.
func (e Entity) Dist(o Entity) float64 {
	return math.Sqrt(e.SquaredDist(o))
}

// SquaredDist returns the squared Euclidean distance to another entity,
// under the same access rules as Dist.
func (e Entity) SquaredDist(o Entity) float64 {
	if e.role != Anchor || o.role != Anchor {
		panic("sim: attempt to access ground-truth coordinates of an agent")
	}
	return e.squaredDist(o)
}

// squaredDist is the privileged squared distance used by the measurement
// layer. It reads ground truth regardless of role.
func (e Entity) squaredDist(o Entity) float64 {
	var s float64
	for i, x := range e.coords {
		d := x - o.coords[i]
		s += d * d
	}
	return s
}

// dist is the privileged Euclidean distance used by the measurement layer.
func (e Entity) dist(o Entity) float64 {
	return math.Sqrt(e.squaredDist(o))
}

// distTo is the privileged distance from the entity's true position to an
// arbitrary coordinate vector. Used by the scoring code in eval.go.
func (e Entity) distTo(p []float64) float64 {
	var s float64
	for i, x := range e.coords {
		d := x - p[i]
		s += d * d
	}
	return math.Sqrt(s)
}

// noisyDist measures the distance to another entity with multiplicative
// Gaussian noise: d * |1 + N(0, sigma)|. The absolute value clamps the
// factor non-negative, so a measured distance is never negative. With
// sigma = 0 the result is exact.
func (e Entity) noisyDist(o Entity, sigma float64, rng *rand.Rand) float64 {
	return e.dist(o) * math.Abs(1+rng.NormFloat64()*sigma)
}

// Spans returns the per-dimension [min, max] bounds over the entities' true
// positions. It is simulation-layer scaffolding: solvers that need a rough
// problem scale for randomized initialization receive these bounds instead
// of the coordinates themselves.
func Spans(entities []Entity) [][2]float64 {
	if len(entities) == 0 {
		return nil
	}
	spans := make([][2]float64, entities[0].Dim())
	for i, c := range entities[0].coords {
		spans[i] = [2]float64{c, c}
	}
	for _, e := range entities[1:] {
		for i, c := range e.coords {
			spans[i][0] = math.Min(spans[i][0], c)
			spans[i][1] = math.Max(spans[i][1], c)
		}
	}
	return spans
}
