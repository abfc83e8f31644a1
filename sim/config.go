package sim

import "math"

// Config carries the recognized simulation options. Zero values are not
// meaningful for every field; start from DefaultConfig.
type Config struct {
	// Visibility is the maximum Euclidean distance at which two nodes can
	// measure each other and exchange messages. Default: unlimited.
	Visibility float64
	// Sigma is the distance-noise standard deviation, a dimensionless
	// multiplicative factor (see Entity noisyDist).
	Sigma float64
	// SigmaAngles is the angle-noise standard deviation, used only when a
	// solver enables angle measurement.
	SigmaAngles float64
	// Iterations is the round count J for the Round Driver.
	Iterations int
	// Seed roots every random stream of the run; see RNG.
	Seed int64
	// Parallel selects the fork/join phase scheduler in the Driver. The
	// result is identical to the sequential reference scheduler.
	Parallel bool
}

// DefaultConfig returns the option defaults: unlimited visibility, noiseless
// measurement, 100 rounds, seed 42.
func DefaultConfig() Config {
	return Config{
		Visibility: math.Inf(1),
		Sigma:      0,
		Iterations: 100,
		Seed:       42,
	}
}
