package minimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// bowl is a shifted quadratic with its minimum at (3, -2).
func bowl(x []float64) float64 {
	dx := x[0] - 3
	dy := x[1] + 2
	return dx*dx + dy*dy
}

func bowlGrad(dst, x []float64) {
	dst[0] = 2 * (x[0] - 3)
	dst[1] = 2 * (x[1] + 2)
}

func TestGonum_GradientFree(t *testing.T) {
	// GIVEN a quadratic bowl and no gradient
	got := Gonum{}.Minimize(Problem{Func: bowl}, []float64{0, 0})

	// THEN Nelder-Mead lands near the minimum
	assert.InDelta(t, 3, got[0], 1e-3)
	assert.InDelta(t, -2, got[1], 1e-3)
}

func TestGonum_WithGradient(t *testing.T) {
	got := Gonum{}.Minimize(Problem{Func: bowl, Grad: bowlGrad}, []float64{10, 10})

	assert.InDelta(t, 3, got[0], 1e-6)
	assert.InDelta(t, -2, got[1], 1e-6)
}

func TestGonum_DoesNotModifyStart(t *testing.T) {
	x0 := []float64{5, 5}
	Gonum{}.Minimize(Problem{Func: bowl, Grad: bowlGrad}, x0)
	assert.Equal(t, []float64{5, 5}, x0)
}
