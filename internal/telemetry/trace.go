// Package telemetry defines the per-lap telemetry model shared by the loader,
// the alignment engine and the exporters.
//
// A Trace is one competitor's lap as an ordered series of samples. Only
// Distance and Time take part in alignment; the remaining channels ride along
// untouched so presentation code can use them.
package telemetry

import "math"

// Sample is a single telemetry row. Distance is in meters from the lap start
// line, Time is elapsed seconds since lap start. Speed is stored in m/s.
type Sample struct {
	Distance float64
	Time     float64

	Speed    float64
	Throttle float64
	Brake    bool
	Gear     int
	RPM      float64
	DRS      int
	X        float64
	Y        float64
}

// Trace is one lap for one driver. Callers own the Samples slice; nothing in
// this module mutates it.
type Trace struct {
	Driver  string
	Samples []Sample
}

// NewTrace wraps samples in a Trace labelled with driver.
func NewTrace(driver string, samples []Sample) Trace {
	return Trace{Driver: driver, Samples: samples}
}

// Len returns the number of samples.
func (t Trace) Len() int { return len(t.Samples) }

// MaxDistance returns the largest distance in the trace, or NaN when empty.
func (t Trace) MaxDistance() float64 {
	if len(t.Samples) == 0 {
		return math.NaN()
	}
	maxD := t.Samples[0].Distance
	for _, s := range t.Samples[1:] {
		if s.Distance > maxD {
			maxD = s.Distance
		}
	}
	return maxD
}

// Duration returns the elapsed time between the first and last sample in
// seconds. A trace with fewer than two samples has zero duration.
func (t Trace) Duration() float64 {
	if len(t.Samples) < 2 {
		return 0
	}
	return t.Samples[len(t.Samples)-1].Time - t.Samples[0].Time
}

// TopSpeed returns the highest speed sample in m/s.
func (t Trace) TopSpeed() float64 {
	var top float64
	for _, s := range t.Samples {
		if s.Speed > top {
			top = s.Speed
		}
	}
	return top
}

// Distances returns a fresh slice holding the distance channel.
func (t Trace) Distances() []float64 {
	out := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		out[i] = s.Distance
	}
	return out
}

// Times returns a fresh slice holding the elapsed time channel.
func (t Trace) Times() []float64 {
	out := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		out[i] = s.Time
	}
	return out
}
