// Package alignment computes distance-aligned time gaps between two laps.
//
// Two drivers sample their telemetry at different instants, so their rows
// never line up. ComputeDelta puts both laps on a common distance grid and
// asks, for every grid point, how long each driver took to get there.
//
// Algorithm:
//  1. Domain: maxDistance = min(max(reference.Distance), max(other.Distance)).
//     Taking the smaller maximum means neither lap is ever extrapolated past
//     its last sample.
//  2. Grid: max(2, floor(maxDistance*GridResolution)) evenly spaced points on
//     [0, maxDistance], both ends included. The default resolution of one
//     point per meter matches the historical behaviour.
//  3. Interpolation: each lap becomes a piecewise-linear distance->time curve
//     clamped at both ends, evaluated at every grid point.
//  4. Delta: other time minus reference time.
//
// Sign convention: a positive delta means the reference reached that point
// first (reference ahead). A negative delta means the other driver was ahead.
// Downstream charts and lap summaries rely on this.
//
// Errors:
//   - *InsufficientDataError (errors.Is ErrInsufficientData) when a lap has
//     fewer than two usable samples or the laps share no distance domain.
//   - *NonMonotonicTraceError (errors.Is ErrNonMonotonicTrace) when distance
//     or time runs backwards, or a sample holds NaN/Inf.
//
// The package holds no state between calls, performs no I/O and never logs.
// An Engine may be shared between goroutines.
package alignment
