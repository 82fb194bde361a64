package comparison

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/lapdelta/internal/alignment"
	"github.com/banshee-data/lapdelta/internal/monitoring"
	"github.com/banshee-data/lapdelta/internal/timeutil"
)

// DefaultMaxDrivers is the largest field a comparison accepts, reference
// included.
const DefaultMaxDrivers = 5

// Options tunes a Comparator. Zero values select defaults.
type Options struct {
	// Workers bounds how many pairs are aligned at once. Zero means
	// GOMAXPROCS.
	Workers int
	// MaxDrivers caps the field size. Zero means DefaultMaxDrivers.
	MaxDrivers int
	// Clock stamps reports. Nil means the wall clock.
	Clock timeutil.Clock
}

// Comparator aligns a reference lap against the rest of a field.
type Comparator struct {
	engine     *alignment.Engine
	workers    int
	maxDrivers int
	clock      timeutil.Clock
}

// NewComparator returns a Comparator using engine for every pair.
func NewComparator(engine *alignment.Engine, opts Options) *Comparator {
	if engine == nil {
		engine = alignment.NewEngine(alignment.DefaultConfig())
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxDrivers <= 0 {
		opts.MaxDrivers = DefaultMaxDrivers
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Comparator{
		engine:     engine,
		workers:    opts.Workers,
		maxDrivers: opts.MaxDrivers,
		clock:      opts.Clock,
	}
}

// Result is one aligned pair.
type Result struct {
	Driver  string                 `json:"driver"`
	Color   string                 `json:"color,omitempty"`
	LapTime time.Duration          `json:"lapTimeNanos"`
	LapGap  time.Duration          `json:"lapGapNanos"`
	Summary alignment.Summary      `json:"summary"`
	Delta   alignment.AlignedDelta `json:"delta"`
}

// Skip records a driver that could not be aligned against the reference.
type Skip struct {
	Driver string `json:"driver"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Report is the outcome of one Compare call.
type Report struct {
	ID               string        `json:"id"`
	GeneratedAt      time.Time     `json:"generatedAt"`
	Elapsed          time.Duration `json:"elapsedNanos"`
	Reference        string        `json:"reference"`
	ReferenceColor   string        `json:"referenceColor,omitempty"`
	ReferenceLapTime time.Duration `json:"referenceLapTimeNanos"`
	GridResolution   float64       `json:"gridResolution"`
	Results          []Result      `json:"results"`
	Skipped          []Skip        `json:"skipped,omitempty"`
}

// Result returns the result for driver.
func (r *Report) Result(driver string) (Result, bool) {
	for _, res := range r.Results {
		if res.Driver == driver {
			return res, true
		}
	}
	return Result{}, false
}

// Compare aligns every lap in field against the reference lap. Pairs run in
// parallel; results keep field order. A pair whose traces the engine rejects
// is logged and listed in Report.Skipped rather than failing the run. The
// call fails if the reference is missing, the field is too large, or ctx is
// cancelled.
func (c *Comparator) Compare(ctx context.Context, field *Field, reference string) (*Report, error) {
	start := c.clock.Now()

	ref, ok := field.Get(reference)
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownReference, reference, field.Codes())
	}
	if field.Len() > c.maxDrivers {
		return nil, fmt.Errorf("%w: %d drivers, limit %d", ErrTooManyDrivers, field.Len(), c.maxDrivers)
	}

	var others []string
	for _, code := range field.Codes() {
		if code != reference {
			others = append(others, code)
		}
	}

	results := make([]*Result, len(others))
	skips := make([]*Skip, len(others))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, code := range others {
		i, code := i, code
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lap, _ := field.Get(code)
			delta, err := c.engine.ComputeDelta(ref.Trace, lap.Trace)
			if err != nil {
				monitoring.Logf("comparison: skipping %s vs %s: %v", code, reference, err)
				skips[i] = &Skip{Driver: code, Reason: err.Error(), Err: err}
				return nil
			}
			delta.Reference, delta.Other = reference, code
			results[i] = &Result{
				Driver:  code,
				Color:   lap.Color,
				LapTime: lap.EffectiveLapTime(),
				LapGap:  LapGap(ref, lap),
				Summary: delta.Summary(),
				Delta:   delta,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("comparison against %s aborted: %w", reference, err)
	}

	report := &Report{
		ID:               fmt.Sprintf("cmp_%s", uuid.NewString()),
		GeneratedAt:      start,
		Reference:        reference,
		ReferenceColor:   ref.Color,
		ReferenceLapTime: ref.EffectiveLapTime(),
		GridResolution:   c.engine.GridResolution(),
		Results:          []Result{},
	}
	for i := range others {
		if results[i] != nil {
			report.Results = append(report.Results, *results[i])
		}
		if skips[i] != nil {
			report.Skipped = append(report.Skipped, *skips[i])
		}
	}
	report.Elapsed = c.clock.Since(start)
	return report, nil
}
