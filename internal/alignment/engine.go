package alignment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/lapdelta/internal/telemetry"
)

// DefaultGridResolution is one grid point per meter of shared distance.
const DefaultGridResolution = 1.0

// Config controls how the engine samples the shared distance domain.
type Config struct {
	// GridResolution is the number of grid points per meter. Zero, negative
	// and non-finite values fall back to DefaultGridResolution.
	GridResolution float64
}

// DefaultConfig returns the configuration used by the package-level
// ComputeDelta.
func DefaultConfig() Config {
	return Config{GridResolution: DefaultGridResolution}
}

// Engine aligns pairs of laps. It is immutable once built.
type Engine struct {
	resolution float64
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	res := cfg.GridResolution
	if !(res > 0) || math.IsInf(res, 0) {
		res = DefaultGridResolution
	}
	return &Engine{resolution: res}
}

// GridResolution reports the grid density in points per meter.
func (e *Engine) GridResolution() float64 { return e.resolution }

var defaultEngine = NewEngine(DefaultConfig())

// ComputeDelta aligns other against reference with the default grid
// resolution. See Engine.ComputeDelta.
func ComputeDelta(reference, other telemetry.Trace) (AlignedDelta, error) {
	return defaultEngine.ComputeDelta(reference, other)
}

// ComputeDelta returns the time gap of other relative to reference at evenly
// spaced distances from 0 to the end of the shorter lap. Positive values mean
// the reference was ahead at that distance.
func (e *Engine) ComputeDelta(reference, other telemetry.Trace) (AlignedDelta, error) {
	refCurve, err := buildCurve(RoleReference, reference)
	if err != nil {
		return AlignedDelta{}, err
	}
	otherCurve, err := buildCurve(RoleOther, other)
	if err != nil {
		return AlignedDelta{}, err
	}

	maxDistance := math.Min(refCurve.maxDistance, otherCurve.maxDistance)
	if !(maxDistance > 0) {
		return AlignedDelta{}, &InsufficientDataError{
			Reason: fmt.Sprintf("no shared distance domain (reference ends at %g m, other at %g m)",
				refCurve.maxDistance, otherCurve.maxDistance),
		}
	}

	grid := Grid(maxDistance, e.resolution)
	refTimes := refCurve.evaluate(grid)
	otherTimes := otherCurve.evaluate(grid)
	deltas := floats.SubTo(make([]float64, len(grid)), otherTimes, refTimes)

	points := make([]DeltaPoint, len(grid))
	for i := range grid {
		points[i] = DeltaPoint{Distance: grid[i], Delta: deltas[i]}
	}
	return AlignedDelta{
		Reference: reference.Driver,
		Other:     other.Driver,
		Points:    points,
	}, nil
}

// Grid returns max(2, floor(maxDistance*resolution)) evenly spaced distances
// covering [0, maxDistance]. The last point is exactly maxDistance.
func Grid(maxDistance, resolution float64) []float64 {
	n := int(math.Floor(maxDistance * resolution))
	if n < 2 {
		n = 2
	}
	grid := floats.Span(make([]float64, n), 0, maxDistance)
	grid[n-1] = maxDistance
	return grid
}
