package alignment

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lapdelta/internal/telemetry"
	"github.com/banshee-data/lapdelta/internal/testutil"
)

// deltaAt returns the delta at the grid point nearest to distance.
func deltaAt(d AlignedDelta, distance float64) float64 {
	best := 0
	for i, p := range d.Points {
		if math.Abs(p.Distance-distance) < math.Abs(d.Points[best].Distance-distance) {
			best = i
		}
	}
	return d.Points[best].Delta
}

func TestComputeDelta_ThreeSampleScenario(t *testing.T) {
	t.Parallel()

	ref := testutil.TraceFromPairs("PIA", [2]float64{0, 0}, [2]float64{100, 10}, [2]float64{200, 21})
	other := testutil.TraceFromPairs("VER", [2]float64{0, 0}, [2]float64{100, 10.5}, [2]float64{200, 21.2})

	got, err := ComputeDelta(ref, other)
	require.NoError(t, err)

	assert.Equal(t, "PIA", got.Reference)
	assert.Equal(t, "VER", got.Other)
	require.Equal(t, 200, got.Len())
	assert.InDelta(t, 0.5, deltaAt(got, 100), 0.01, "reference should lead by about half a second at 100m")
	assert.InDelta(t, 0.2, deltaAt(got, 200), 1e-9)
	assert.Equal(t, 200.0, got.Points[got.Len()-1].Distance)
	assert.Equal(t, 0.0, got.Points[0].Delta)
}

func TestComputeDelta_DomainCapsAtShorterLap(t *testing.T) {
	t.Parallel()

	ref := testutil.ConstantSpeedLap("REF", 300, 10, 0, 50)
	other := testutil.ConstantSpeedLap("OTH", 250, 7, 2, 48)

	got, err := ComputeDelta(ref, other)
	require.NoError(t, err)
	assert.Equal(t, 250, got.Len())
	for _, p := range got.Points {
		assert.LessOrEqual(t, p.Distance, 250.0)
	}
	assert.Equal(t, 250.0, got.Points[got.Len()-1].Distance)

	// Swapping roles must not change the domain.
	back, err := ComputeDelta(other, ref)
	require.NoError(t, err)
	assert.Equal(t, got.Distances(), back.Distances())
}

func TestComputeDelta_SingleSampleIsInsufficient(t *testing.T) {
	t.Parallel()

	one := testutil.TraceFromPairs("ONE", [2]float64{0, 0})
	good := testutil.TraceFromPairs("TWO", [2]float64{0, 0}, [2]float64{100, 10})

	tests := []struct {
		name     string
		ref      telemetry.Trace
		other    telemetry.Trace
		wantRole string
	}{
		{"reference", one, good, RoleReference},
		{"other", good, one, RoleOther},
		{"empty reference", telemetry.Trace{}, good, RoleReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDelta(tt.ref, tt.other)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInsufficientData))
			var ide *InsufficientDataError
			require.True(t, errors.As(err, &ide))
			assert.Equal(t, tt.wantRole, ide.Role)
			assert.Empty(t, got.Points, "no partial output on error")
		})
	}
}

func TestComputeDelta_NoSharedDomain(t *testing.T) {
	t.Parallel()

	ref := testutil.TraceFromPairs("A", [2]float64{0, 0}, [2]float64{100, 10})
	atStart := testutil.TraceFromPairs("B", [2]float64{-50, 0}, [2]float64{0, 5})
	negative := testutil.TraceFromPairs("C", [2]float64{-50, 0}, [2]float64{-10, 5})

	for _, other := range []telemetry.Trace{atStart, negative} {
		_, err := ComputeDelta(ref, other)
		require.Error(t, err, other.Driver)
		var ide *InsufficientDataError
		require.True(t, errors.As(err, &ide))
		assert.Empty(t, ide.Role)
	}
}

func TestComputeDelta_StationaryOnlyIsInsufficient(t *testing.T) {
	t.Parallel()

	parked := testutil.TraceFromPairs("PIT", [2]float64{5, 0}, [2]float64{5, 3}, [2]float64{5, 9})
	good := testutil.TraceFromPairs("GO", [2]float64{0, 0}, [2]float64{100, 10})

	_, err := ComputeDelta(good, parked)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeDelta_NonMonotonic(t *testing.T) {
	t.Parallel()

	good := testutil.TraceFromPairs("GOOD", [2]float64{0, 0}, [2]float64{100, 10}, [2]float64{200, 20})

	tests := []struct {
		name        string
		trace       telemetry.Trace
		wantChannel string
		wantIndex   int
	}{
		{
			name:        "distance runs backwards",
			trace:       testutil.TraceFromPairs("X", [2]float64{0, 0}, [2]float64{100, 10}, [2]float64{90, 11}),
			wantChannel: "distance",
			wantIndex:   2,
		},
		{
			name:        "time runs backwards",
			trace:       testutil.TraceFromPairs("X", [2]float64{0, 0}, [2]float64{100, 10}, [2]float64{200, 9}),
			wantChannel: "time",
			wantIndex:   2,
		},
		{
			name:        "NaN distance",
			trace:       testutil.TraceFromPairs("X", [2]float64{0, 0}, [2]float64{math.NaN(), 10}, [2]float64{200, 20}),
			wantChannel: "distance",
			wantIndex:   1,
		},
		{
			name:        "infinite time",
			trace:       testutil.TraceFromPairs("X", [2]float64{0, math.Inf(1)}, [2]float64{200, 20}),
			wantChannel: "time",
			wantIndex:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeDelta(good, tt.trace)
			require.ErrorIs(t, err, ErrNonMonotonicTrace)
			var nme *NonMonotonicTraceError
			require.ErrorAs(t, err, &nme)
			assert.Equal(t, RoleOther, nme.Role)
			assert.Equal(t, tt.wantChannel, nme.Channel)
			assert.Equal(t, tt.wantIndex, nme.Index)
			assert.False(t, errors.Is(err, ErrInsufficientData))
		})
	}
}

func TestComputeDelta_SelfDeltaIsZero(t *testing.T) {
	t.Parallel()

	lap := testutil.WavySpeedLap("NOR", 5412, 3.7, 60, 25, 800)
	got, err := ComputeDelta(lap, lap)
	require.NoError(t, err)
	for _, p := range got.Points {
		if p.Delta != 0 {
			t.Fatalf("self delta at %.1fm = %g, want 0", p.Distance, p.Delta)
		}
	}
}

func TestComputeDelta_Antisymmetry(t *testing.T) {
	t.Parallel()

	a := testutil.WavySpeedLap("A", 3000, 4.1, 55, 20, 600)
	b := testutil.WavySpeedLap("B", 2990, 5.3, 56, 18, 450)

	ab, err := ComputeDelta(a, b)
	require.NoError(t, err)
	ba, err := ComputeDelta(b, a)
	require.NoError(t, err)

	require.Equal(t, ab.Distances(), ba.Distances())
	for i := range ab.Points {
		if ab.Points[i].Delta != -ba.Points[i].Delta {
			t.Fatalf("point %d: %g vs %g not negations", i, ab.Points[i].Delta, ba.Points[i].Delta)
		}
	}
}

func TestComputeDelta_Deterministic(t *testing.T) {
	t.Parallel()

	a := testutil.WavySpeedLap("A", 1500, 3.3, 40, 10, 300)
	b := testutil.ConstantSpeedLap("B", 1510, 4.4, 1.1, 41)

	first, err := ComputeDelta(a, b)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := ComputeDelta(a, b)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestComputeDelta_ConstantSpeedGapGrowsLinearly(t *testing.T) {
	t.Parallel()

	// 50 m/s vs 40 m/s: at distance d the gap is d/40 - d/50 = d/200.
	ref := testutil.ConstantSpeedLap("FAST", 1000, 9, 0, 50)
	other := testutil.ConstantSpeedLap("SLOW", 1000, 13, 5, 40)

	got, err := ComputeDelta(ref, other)
	require.NoError(t, err)

	want := make([]float64, got.Len())
	for i, d := range got.Distances() {
		want[i] = d / 200
	}
	if diff := cmp.Diff(want, got.Deltas(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("delta curve mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDelta_GridIsStrictlyIncreasingFromZero(t *testing.T) {
	t.Parallel()

	a := testutil.WavySpeedLap("A", 4321.5, 2.9, 70, 30, 1000)
	b := testutil.WavySpeedLap("B", 4330.2, 3.4, 69, 28, 900)

	got, err := ComputeDelta(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Points[0].Distance)
	assert.Equal(t, 4321, got.Len())
	for i := 1; i < got.Len(); i++ {
		if got.Points[i].Distance <= got.Points[i-1].Distance {
			t.Fatalf("grid not increasing at %d", i)
		}
	}
	assert.LessOrEqual(t, got.Points[got.Len()-1].Distance, math.Min(a.MaxDistance(), b.MaxDistance()))
}

func TestComputeDelta_TinyDomainHasTwoPoints(t *testing.T) {
	t.Parallel()

	for _, maxD := range []float64{0.25, 1, 1.9} {
		ref := testutil.TraceFromPairs("A", [2]float64{0, 0}, [2]float64{maxD, 1})
		other := testutil.TraceFromPairs("B", [2]float64{0, 0}, [2]float64{maxD, 2})

		got, err := ComputeDelta(ref, other)
		require.NoError(t, err)
		require.Equal(t, 2, got.Len(), "maxDistance %v", maxD)
		assert.Equal(t, 0.0, got.Points[0].Distance)
		assert.Equal(t, maxD, got.Points[1].Distance)
		assert.InDelta(t, 1.0, got.Points[1].Delta, 1e-12)
	}
}

func TestComputeDelta_ClampsBeforeFirstSample(t *testing.T) {
	t.Parallel()

	// The other lap's first sample is at 20m, so grid points before it
	// take its first time instead of extrapolating to negative time.
	ref := testutil.TraceFromPairs("A", [2]float64{0, 0}, [2]float64{100, 10})
	other := testutil.TraceFromPairs("B", [2]float64{20, 3}, [2]float64{100, 11})

	got, err := ComputeDelta(ref, other)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.Points[0].Delta, 1e-12)
	assert.InDelta(t, 1.0, got.Final(), 1e-12)
}

func TestComputeDelta_StationaryRunUsesDepartureTime(t *testing.T) {
	t.Parallel()

	ref := testutil.TraceFromPairs("A", [2]float64{0, 0}, [2]float64{100, 10}, [2]float64{200, 20})
	// Other stops at 100m for 4 seconds then continues at the same pace.
	other := testutil.TraceFromPairs("B",
		[2]float64{0, 0}, [2]float64{100, 10}, [2]float64{100, 12}, [2]float64{100, 14}, [2]float64{200, 24})

	got, err := ComputeDelta(ref, other)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got.Final(), 1e-12)
	assert.InDelta(t, 4.0, deltaAt(got, 150), 1e-9)

	// Both cars reach every point before the stop at the same moment.
	assert.InDelta(t, 0.0, deltaAt(got, 50), 1e-9)
	assert.InDelta(t, 0.0, deltaAt(got, 99), 1e-9)
	for _, p := range got.Points {
		if p.Distance < 100 {
			assert.InDelta(t, 0.0, p.Delta, 1e-9, "distance %v", p.Distance)
		}
	}
}

func TestBuildCurve_StationaryRunSplitsArrivalAndDeparture(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pairs   [][2]float64
		maxDist float64
		at      map[float64]float64
	}{
		{
			name:    "mid-lap stop",
			pairs:   [][2]float64{{0, 0}, {100, 10}, {100, 12}, {100, 14}, {200, 24}},
			maxDist: 200,
			at:      map[float64]float64{50: 5, 99: 9.9, 100: 14, 150: 19, 200: 24},
		},
		{
			name:    "held on the line",
			pairs:   [][2]float64{{0, 0}, {0, 3}, {100, 13}},
			maxDist: 100,
			at:      map[float64]float64{0: 3, 50: 8, 100: 13},
		},
		{
			name:    "late start",
			pairs:   [][2]float64{{20, 1}, {20, 4}, {120, 14}},
			maxDist: 120,
			at:      map[float64]float64{0: 1, 10: 1, 20: 4, 70: 9},
		},
		{
			name:    "stopped at the end",
			pairs:   [][2]float64{{0, 0}, {100, 10}, {100, 15}},
			maxDist: 100,
			at:      map[float64]float64{50: 5, 100: 15, 130: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := buildCurve(RoleOther, testutil.TraceFromPairs("X", tt.pairs...))
			require.NoError(t, err)
			assert.Equal(t, tt.maxDist, c.maxDistance)
			for d, want := range tt.at {
				got := c.evaluate([]float64{d})[0]
				assert.InDelta(t, want, got, 1e-9, "time at %v m", d)
			}
		})
	}
}

func TestEngine_GridResolution(t *testing.T) {
	t.Parallel()

	ref := testutil.ConstantSpeedLap("A", 1000, 10, 0, 50)
	other := testutil.ConstantSpeedLap("B", 1000, 10, 0, 45)

	tests := []struct {
		resolution float64
		wantPoints int
		wantRes    float64
	}{
		{1, 1000, 1},
		{0.5, 500, 0.5},
		{4, 4000, 4},
		{0, 1000, DefaultGridResolution},
		{-2, 1000, DefaultGridResolution},
		{math.NaN(), 1000, DefaultGridResolution},
		{math.Inf(1), 1000, DefaultGridResolution},
		{0.001, 2, 0.001},
	}
	for _, tt := range tests {
		e := NewEngine(Config{GridResolution: tt.resolution})
		assert.Equal(t, tt.wantRes, e.GridResolution())
		got, err := e.ComputeDelta(ref, other)
		require.NoError(t, err)
		assert.Equal(t, tt.wantPoints, got.Len(), "resolution %v", tt.resolution)
	}
}

func TestEngine_ConcurrentUse(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	ref := testutil.WavySpeedLap("REF", 2000, 3, 50, 15, 400)
	others := []telemetry.Trace{
		testutil.WavySpeedLap("B", 2000, 3.5, 49, 15, 400),
		testutil.WavySpeedLap("C", 1995, 4, 51, 12, 300),
		testutil.ConstantSpeedLap("D", 2005, 6, 1, 48),
		testutil.ConstantSpeedLap("E", 1990, 5, 2, 52),
	}

	want := make([]AlignedDelta, len(others))
	for i, o := range others {
		d, err := e.ComputeDelta(ref, o)
		require.NoError(t, err)
		want[i] = d
	}

	got := make([]AlignedDelta, len(others))
	var wg sync.WaitGroup
	for i, o := range others {
		wg.Add(1)
		go func(i int, o telemetry.Trace) {
			defer wg.Done()
			d, err := e.ComputeDelta(ref, o)
			if err == nil {
				got[i] = d
			}
		}(i, o)
	}
	wg.Wait()

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("concurrent results differ (-want +got):\n%s", diff)
	}
}

func TestComputeDelta_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	ref := testutil.TraceFromPairs("A", [2]float64{0, 0}, [2]float64{50, 5}, [2]float64{50, 6}, [2]float64{100, 11})
	other := testutil.TraceFromPairs("B", [2]float64{0, 0}, [2]float64{100, 12})
	before := append([]telemetry.Sample(nil), ref.Samples...)

	_, err := ComputeDelta(ref, other)
	require.NoError(t, err)
	assert.Equal(t, before, ref.Samples)
}

func TestGrid(t *testing.T) {
	t.Parallel()

	g := Grid(10, 1)
	require.Len(t, g, 10)
	assert.Equal(t, 0.0, g[0])
	assert.Equal(t, 10.0, g[9])
	assert.InDelta(t, 10.0/9.0, g[1], 1e-15)

	g = Grid(0.3, 1)
	assert.Equal(t, []float64{0, 0.3}, g)
}
