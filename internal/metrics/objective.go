// Package metrics scores finished runs and tracks per-interval quantities
// while a run is in progress.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/vector"
)

// Method selects how a trajectory is turned into a single score. Lower is
// better for every method.
type Method int

const (
	// FinalOffset is the distance to the target plus the speed at the end.
	FinalOffset Method = iota + 1
	// MeanDistance is the mean distance to the target.
	MeanDistance
	// MeanDistanceVelocity adds the speed to every distance sample.
	MeanDistanceVelocity
	// SettledDistance is MeanDistance without the first percent of samples.
	SettledDistance
	// SettledDistanceFuel adds 1/(m_end - m_min + 0.001) to SettledDistance.
	SettledDistanceFuel
	// SettledDistanceVelocity is MeanDistanceVelocity without the first
	// percent of samples.
	SettledDistanceVelocity
	// WeightedDistanceVelocity weights sample i by i+1.
	WeightedDistanceVelocity
	// HeightChange is the mean deviation of the height from its first value.
	HeightChange
)

// UnfinishedPenalty is added when a run ends further than
// UnfinishedTolerance seconds from the horizon.
const (
	UnfinishedPenalty   = 1e30
	UnfinishedTolerance = 0.1
)

func (m Method) Valid() bool {
	return m >= FinalOffset && m <= HeightChange
}

func (m Method) String() string {
	switch m {
	case FinalOffset:
		return "final_offset"
	case MeanDistance:
		return "mean_distance"
	case MeanDistanceVelocity:
		return "mean_distance_velocity"
	case SettledDistance:
		return "settled_distance"
	case SettledDistanceFuel:
		return "settled_distance_fuel"
	case SettledDistanceVelocity:
		return "settled_distance_velocity"
	case WeightedDistanceVelocity:
		return "weighted_distance_velocity"
	case HeightChange:
		return "height_change"
	default:
		return "unknown"
	}
}

// Objective scores runs against a scenario's target.
type Objective struct {
	Method           Method
	PunishUnfinished bool
	Horizon          float64
}

func NewObjective(method int, punishUnfinished bool, horizon float64) (*Objective, error) {
	m := Method(method)
	if !m.Valid() {
		return nil, dynamo.Configf("objective method must be 1-8, got %d", method)
	}
	return &Objective{Method: m, PunishUnfinished: punishUnfinished, Horizon: horizon}, nil
}

// Score evaluates rec, which was produced from sc.
func (o *Objective) Score(rec *sim.Record, sc *sim.Scenario) float64 {
	n := rec.Len()
	if n == 0 {
		return math.Inf(1)
	}

	score := o.penalty(rec)
	target := sc.Target
	dist := func(i int) float64 { return target.Sub(rec.Positions[i]).Norm() }
	speed := func(i int) float64 { return rec.Velocities[i].Norm() }

	switch o.Method {
	case FinalOffset:
		score += dist(n-1) + speed(n-1)
	case MeanDistance:
		score += meanFrom(0, n, dist)
	case MeanDistanceVelocity:
		score += meanFrom(0, n, func(i int) float64 { return dist(i) + speed(i) })
	case SettledDistance:
		score += meanFrom(settleIndex(n), n, dist)
	case SettledDistanceFuel:
		score += meanFrom(settleIndex(n), n, dist)
		score += 1 / (rec.Masses[n-1] - sc.MinimumMass + 0.001)
	case SettledDistanceVelocity:
		score += meanFrom(settleIndex(n), n, func(i int) float64 { return dist(i) + speed(i) })
	case WeightedDistanceVelocity:
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += float64(i+1) * (dist(i) + speed(i))
		}
		score += sum / float64(n)
	case HeightChange:
		score += heightChange(rec.Heights)
	}
	return score
}

// PostScore is the score used to compare controllers after optimization:
// HeightChange for height-based objectives, SettledDistance otherwise.
func (o *Objective) PostScore(rec *sim.Record, sc *sim.Scenario) float64 {
	post := *o
	if o.Method != HeightChange {
		post.Method = SettledDistance
	}
	return post.Score(rec, sc)
}

func (o *Objective) penalty(rec *sim.Record) float64 {
	if o.PunishUnfinished && math.Abs(rec.LastTime()-o.Horizon) > UnfinishedTolerance {
		return UnfinishedPenalty
	}
	return 0
}

// settleIndex skips the first percent of n samples.
func settleIndex(n int) int {
	return int(float64(n) * 0.01)
}

func meanFrom(start, end int, f func(int) float64) float64 {
	sum := 0.0
	for i := start; i < end; i++ {
		sum += f(i)
	}
	return sum / float64(end-start)
}

func heightChange(heights []vector.Vector3D) float64 {
	if len(heights) < 2 {
		return 0
	}
	h0 := heights[0].Norm()
	sum := 0.0
	for _, h := range heights[1:] {
		sum += math.Abs(h0 - h.Norm())
	}
	return sum / float64(len(heights)-1)
}

// Summary describes the scores of an ensemble.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
	// Unfinished counts scores carrying the unfinished penalty.
	Unfinished int
}

func Summarize(scores []float64) Summary {
	s := Summary{Count: len(scores)}
	if len(scores) == 0 {
		return s
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if len(scores) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(scores, nil)
	} else {
		s.Mean = scores[0]
	}
	for _, v := range scores {
		if v >= UnfinishedPenalty {
			s.Unfinished++
		}
	}
	return s
}
