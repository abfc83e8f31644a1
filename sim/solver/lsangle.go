package solver

import (
	"math"

	"github.com/coopsim/coopsim/sim"
	"github.com/coopsim/coopsim/sim/minimize"
)

// Bearing-only least squares: fits agent positions to the measured angles
// by minimizing the mismatch between each edge's measured bearing (as a
// unit vector) and the direction implied by the estimated positions.
// 2-D only, since bearings are.

func init() {
	Register("lsangle", solveLSAngle)
}

func solveLSAngle(entities []sim.Entity, cfg sim.Config) ([][]float64, error) {
	net, err := sim.NewNetwork(entities, cfg)
	if err != nil {
		return nil, err
	}
	if err := net.MeasureAngles(cfg.SigmaAngles); err != nil {
		return nil, err
	}

	nodes := net.Nodes()
	dim := net.Dim()

	// Agents get consecutive slots in the optimization vector.
	offsets := make(map[int]int, len(nodes))
	total := 0
	for _, n := range nodes {
		if n.Role() == sim.Agent {
			offsets[n.ID()] = total
			total += dim
		}
	}

	posOf := func(x []float64, id int) []float64 {
		n := nodes[id]
		if n.Role() == sim.Anchor {
			return n.Coords()
		}
		off := offsets[id]
		return x[off : off+dim]
	}

	objective := func(x []float64) float64 {
		var s float64
		for _, n := range nodes {
			for _, e := range n.EdgesInOrder() {
				xi := posOf(x, n.ID())
				xj := posOf(x, e.Neighbor())
				dx, dy := xj[0]-xi[0], xj[1]-xi[1]
				norm := math.Hypot(dx, dy)
				wx := math.Cos(e.Angle()) - dx/norm
				wy := math.Sin(e.Angle()) - dy/norm
				s += wx*wx + wy*wy
			}
		}
		return s
	}

	rng := sim.NewRNG(cfg.Seed).Subsystem(sim.SubsystemInit)
	x0 := make([]float64, total)
	for i := range x0 {
		x0[i] = rng.Float64()
	}
	x := minimize.Default.Minimize(minimize.Problem{Func: objective}, x0)

	out := make([][]float64, len(nodes))
	for i, n := range nodes {
		if n.Role() == sim.Anchor {
			out[i] = n.Coords()
		} else {
			out[i] = clone(posOf(x, n.ID()))
		}
	}
	return out, nil
}
