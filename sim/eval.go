package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Report summarizes a solver run's accuracy against ground truth. It is
// produced by Evaluate, the one scoring routine privileged to read agent
// coordinates.
type Report struct {
	// MaxPositionError is the largest per-agent position error.
	MaxPositionError float64
	// PositionRMSE is the root-mean-square position error over agents.
	PositionRMSE float64
	// MaxDistanceError is the largest pairwise-distance discrepancy between
	// the estimated and the true geometry.
	MaxDistanceError float64
	// DistanceRMSE is the root-mean-square pairwise-distance discrepancy.
	DistanceRMSE float64
	// Agents is the number of agents scored.
	Agents int
}

// Evaluate scores estimated locations against the entities' true positions.
// Position errors cover agents only (anchors are echoed inputs); distance
// errors cover every ordered pair, measuring how well the estimate preserves
// the network's geometry independent of absolute placement.
func Evaluate(entities []Entity, locations [][]float64) (Report, error) {
	if len(locations) != len(entities) {
		return Report{}, fmt.Errorf("sim: %d locations for %d entities", len(locations), len(entities))
	}

	var r Report
	var posSum float64
	for i, e := range entities {
		if e.Role() == Anchor {
			continue
		}
		err := e.distTo(locations[i])
		logrus.Debugf("eval: agent %d estimated with error %v", i, err)
		r.MaxPositionError = math.Max(r.MaxPositionError, err)
		posSum += err * err
		r.Agents++
	}
	if r.Agents > 0 {
		r.PositionRMSE = math.Sqrt(posSum / float64(r.Agents))
	}

	var distSum float64
	for i, a := range entities {
		for j, b := range entities {
			err := math.Abs(euclid(locations[i], locations[j]) - a.dist(b))
			r.MaxDistanceError = math.Max(r.MaxDistanceError, err)
			distSum += err * err
		}
	}
	n := float64(len(entities) * len(entities))
	r.DistanceRMSE = math.Sqrt(distSum / n)

	return r, nil
}

// Log writes the report at Info level, one line per figure.
func (r Report) Log() {
	logrus.Infof("Maximal position error: %v", r.MaxPositionError)
	logrus.Infof("Position RMSE: %v", r.PositionRMSE)
	logrus.Infof("Maximal distance error: %v", r.MaxDistanceError)
	logrus.Infof("Distance RMSE: %v", r.DistanceRMSE)
}

func euclid(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
