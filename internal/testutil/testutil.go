// Package testutil provides synthetic lap fixtures for tests.
//
// The fixtures build telemetry.Trace values with known timing so tests can
// assert exact or near-exact gaps without shipping recorded CSV files.
package testutil

import (
	"math"

	"github.com/banshee-data/lapdelta/internal/telemetry"
)

// TraceFromPairs builds a trace from (distance, seconds) pairs.
func TraceFromPairs(driver string, pairs ...[2]float64) telemetry.Trace {
	samples := make([]telemetry.Sample, len(pairs))
	for i, p := range pairs {
		samples[i] = telemetry.Sample{Distance: p[0], Time: p[1]}
	}
	return telemetry.NewTrace(driver, samples)
}

// ConstantSpeedLap builds a lap of length meters driven at speedMPS, sampled
// every spacing meters starting at offset. The last sample always sits at
// length so the lap covers the full distance.
func ConstantSpeedLap(driver string, length, spacing, offset, speedMPS float64) telemetry.Trace {
	var samples []telemetry.Sample
	add := func(d float64) {
		samples = append(samples, telemetry.Sample{
			Distance: d,
			Time:     d / speedMPS,
			Speed:    speedMPS,
			Throttle: 100,
		})
	}
	if offset > 0 {
		add(0)
	}
	for d := offset; d < length; d += spacing {
		add(d)
	}
	add(length)
	return telemetry.NewTrace(driver, samples)
}

// WavySpeedLap builds a lap whose speed oscillates around baseMPS with the
// given amplitude and wavelength (meters). Time is integrated with the
// trapezoid rule on the sample spacing, so timing is self-consistent.
func WavySpeedLap(driver string, length, spacing, baseMPS, amplitude, wavelength float64) telemetry.Trace {
	speedAt := func(d float64) float64 {
		return baseMPS + amplitude*math.Sin(2*math.Pi*d/wavelength)
	}
	samples := []telemetry.Sample{{Distance: 0, Time: 0, Speed: speedAt(0)}}
	for d := spacing; ; d += spacing {
		if d > length {
			d = length
		}
		prev := samples[len(samples)-1]
		v := speedAt(d)
		dt := (d - prev.Distance) / ((v + prev.Speed) / 2)
		samples = append(samples, telemetry.Sample{Distance: d, Time: prev.Time + dt, Speed: v})
		if d >= length {
			break
		}
	}
	return telemetry.NewTrace(driver, samples)
}
