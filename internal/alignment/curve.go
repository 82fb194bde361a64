package alignment

import (
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/lapdelta/internal/telemetry"
)

// timeCurve maps distance to elapsed time for one lap.
type timeCurve struct {
	pl          interp.PiecewiseLinear
	maxDistance float64
}

// buildCurve validates a lap and fits its distance->time interpolant.
//
// A run of samples with equal distance d (car stationary, or a repeated row)
// becomes two control points: the arrival time one ulp below d and the
// departure time at d. Distances before d interpolate toward the arrival, d
// and beyond carry the time spent standing still, and the control points stay
// strictly increasing.
func buildCurve(role string, tr telemetry.Trace) (*timeCurve, error) {
	n := tr.Len()
	if n < 2 {
		return nil, &InsufficientDataError{Role: role, Driver: tr.Driver, Samples: n, Reason: "fewer than 2 samples"}
	}

	xs := make([]float64, 0, n+1)
	ys := make([]float64, 0, n+1)
	distinct := 0
	split := false
	prevD, prevT := math.NaN(), math.NaN()
	for i, s := range tr.Samples {
		if !isFinite(s.Distance) || (i > 0 && s.Distance < prevD) {
			return nil, &NonMonotonicTraceError{Role: role, Driver: tr.Driver, Index: i, Channel: "distance", Prev: prevD, Value: s.Distance}
		}
		if !isFinite(s.Time) || (i > 0 && s.Time < prevT) {
			return nil, &NonMonotonicTraceError{Role: role, Driver: tr.Driver, Index: i, Channel: "time", Prev: prevT, Value: s.Time}
		}
		prevD, prevT = s.Distance, s.Time

		if last := len(xs) - 1; last >= 0 && xs[last] == s.Distance {
			if !split {
				arrive := math.Nextafter(s.Distance, math.Inf(-1))
				if last == 0 || arrive > xs[last-1] {
					xs[last] = arrive
					xs = append(xs, s.Distance)
					ys = append(ys, s.Time)
					split = true
					continue
				}
			}
			ys[last] = s.Time
			continue
		}
		xs = append(xs, s.Distance)
		ys = append(ys, s.Time)
		distinct++
		split = false
	}
	if distinct < 2 {
		return nil, &InsufficientDataError{Role: role, Driver: tr.Driver, Samples: n, Reason: "fewer than 2 distinct distances"}
	}

	c := &timeCurve{maxDistance: xs[len(xs)-1]}
	if err := c.pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	return c, nil
}

// evaluate returns the interpolated time at every grid distance. Distances
// outside the control points clamp to the first or last time.
func (c *timeCurve) evaluate(grid []float64) []float64 {
	out := make([]float64, len(grid))
	for i, d := range grid {
		out[i] = c.pl.Predict(d)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
