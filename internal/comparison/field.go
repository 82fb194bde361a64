// Package comparison runs a reference lap against every other lap in a field
// and collects the gap curves, lap-time gaps and skips into a Report.
package comparison

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/lapdelta/internal/telemetry"
)

var (
	ErrUnknownReference = errors.New("comparison: reference driver not in field")
	ErrTooManyDrivers   = errors.New("comparison: too many drivers")
	ErrDuplicateDriver  = errors.New("comparison: duplicate driver code")
	ErrEmptyDriverCode  = errors.New("comparison: empty driver code")
)

// DriverLap bundles one driver's lap with the data shown alongside it.
type DriverLap struct {
	Code    string
	Trace   telemetry.Trace
	Color   string        // "#RRGGBB", may be empty
	LapTime time.Duration // zero means use the trace duration
}

// NewDriverLap builds a DriverLap whose lap time is the trace duration.
func NewDriverLap(code string, tr telemetry.Trace, color string) DriverLap {
	if tr.Driver == "" {
		tr.Driver = code
	}
	return DriverLap{Code: code, Trace: tr, Color: color}
}

// EffectiveLapTime returns LapTime, falling back to the trace duration.
func (d DriverLap) EffectiveLapTime() time.Duration {
	if d.LapTime != 0 {
		return d.LapTime
	}
	return secondsToDuration(d.Trace.Duration())
}

// LapGap returns other's lap time minus reference's. Positive means the
// reference lap was faster, matching the gap curve sign.
func LapGap(reference, other DriverLap) time.Duration {
	return other.EffectiveLapTime() - reference.EffectiveLapTime()
}

// Field is the set of laps taking part in a comparison, keyed by driver code
// and kept in insertion order.
type Field struct {
	order []string
	laps  map[string]DriverLap
}

// NewField builds a Field. Codes must be non-empty and unique.
func NewField(laps ...DriverLap) (*Field, error) {
	f := &Field{laps: make(map[string]DriverLap, len(laps))}
	for _, lap := range laps {
		if lap.Code == "" {
			return nil, ErrEmptyDriverCode
		}
		if _, dup := f.laps[lap.Code]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDriver, lap.Code)
		}
		f.laps[lap.Code] = lap
		f.order = append(f.order, lap.Code)
	}
	return f, nil
}

// Get returns the lap for code.
func (f *Field) Get(code string) (DriverLap, bool) {
	lap, ok := f.laps[code]
	return lap, ok
}

// Codes returns driver codes in insertion order.
func (f *Field) Codes() []string {
	return append([]string(nil), f.order...)
}

// Len returns the number of drivers.
func (f *Field) Len() int { return len(f.order) }

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
