package alignment

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData matches every *InsufficientDataError.
	ErrInsufficientData = errors.New("alignment: insufficient data")

	// ErrNonMonotonicTrace matches every *NonMonotonicTraceError.
	ErrNonMonotonicTrace = errors.New("alignment: non-monotonic trace")
)

// Trace roles reported in errors.
const (
	RoleReference = "reference"
	RoleOther     = "other"
)

// InsufficientDataError reports a lap that cannot be interpolated, or a pair
// of laps whose distance ranges do not overlap. Role is empty for the latter.
type InsufficientDataError struct {
	Role    string
	Driver  string
	Samples int
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("%v: %s", ErrInsufficientData, e.Reason)
	}
	return fmt.Sprintf("%v: %s trace %s: %s (%d samples)",
		ErrInsufficientData, e.Role, driverLabel(e.Driver), e.Reason, e.Samples)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// NonMonotonicTraceError reports the first sample at which a lap's distance or
// time channel runs backwards or stops being finite.
type NonMonotonicTraceError struct {
	Role    string
	Driver  string
	Index   int
	Channel string // "distance" or "time"
	Prev    float64
	Value   float64
}

func (e *NonMonotonicTraceError) Error() string {
	return fmt.Sprintf("%v: %s trace %s: %s at sample %d is %g after %g",
		ErrNonMonotonicTrace, e.Role, driverLabel(e.Driver), e.Channel, e.Index, e.Value, e.Prev)
}

func (e *NonMonotonicTraceError) Unwrap() error { return ErrNonMonotonicTrace }

func driverLabel(driver string) string {
	if driver == "" {
		return "(unnamed)"
	}
	return driver
}
