package solver

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Small []float64 helpers shared by the solvers. Everything allocating
// returns a fresh slice; nothing aliases protocol state.

func zeros(n int) []float64 {
	return make([]float64, n)
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	floats.SubTo(out, a, b)
	return out
}

func add(a, b []float64) []float64 {
	out := make([]float64, len(a))
	floats.AddTo(out, a, b)
	return out
}

func scaled(c float64, v []float64) []float64 {
	out := clone(v)
	floats.Scale(c, out)
	return out
}

func sqNorm(v []float64) float64 {
	return floats.Dot(v, v)
}

// clampTo limits every component of v to [-limit, limit], in place.
func clampTo(v []float64, limit float64) {
	for i, x := range v {
		if x > limit {
			v[i] = limit
		} else if x < -limit {
			v[i] = -limit
		}
	}
}

// randomVec draws a uniform vector from the given spans, widened by one unit
// on each side so initial guesses are not confined to the hull of the inputs.
func randomVec(spans [][2]float64, rng *rand.Rand) []float64 {
	out := make([]float64, len(spans))
	for i, s := range spans {
		lo, hi := s[0]-1, s[1]+1
		out[i] = lo + rng.Float64()*(hi-lo)
	}
	return out
}
