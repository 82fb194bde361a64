package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/lapdelta/internal/fsutil"
	"github.com/banshee-data/lapdelta/internal/units"
)

// ErrMissingColumn is returned when a trace file lacks Distance or Time.
var ErrMissingColumn = errors.New("telemetry: missing required column")

// ReadOptions controls how a trace file is interpreted.
type ReadOptions struct {
	// Driver labels the resulting trace.
	Driver string
	// SpeedUnits is the unit of the Speed column. Empty means km/h, which
	// is what FastF1 telemetry exports use.
	SpeedUnits string
	// RebaseTime shifts all times so the first sample is at zero.
	RebaseTime bool
}

// column aliases, matched case-insensitively against the header.
var columnAliases = map[string]string{
	"distance":     "distance",
	"time":         "time",
	"elapsed":      "time",
	"elapsed_time": "time",
	"speed":        "speed",
	"throttle":     "throttle",
	"brake":        "brake",
	"ngear":        "gear",
	"gear":         "gear",
	"rpm":          "rpm",
	"drs":          "drs",
	"x":            "x",
	"y":            "y",
}

// ReadCSV reads one lap from CSV with a header row. Distance and Time are
// required; the other known channels are optional and unknown columns are
// ignored. Rows are kept in file order.
func ReadCSV(r io.Reader, opts ReadOptions) (Trace, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Trace{}, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return Trace{}, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		key, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}
	for _, req := range []string{"distance", "time"} {
		if _, ok := cols[req]; !ok {
			return Trace{}, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	speedUnits := opts.SpeedUnits
	if speedUnits == "" {
		speedUnits = units.KPH
	}

	var samples []Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Trace{}, fmt.Errorf("line %d: %w", line, err)
		}
		s, err := parseRow(rec, cols, speedUnits)
		if err != nil {
			return Trace{}, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}

	if opts.RebaseTime && len(samples) > 0 {
		t0 := samples[0].Time
		for i := range samples {
			samples[i].Time -= t0
		}
	}
	return NewTrace(opts.Driver, samples), nil
}

// LoadFile reads a trace file from fsys.
func LoadFile(fsys fsutil.FileSystem, path string, opts ReadOptions) (Trace, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Trace{}, fmt.Errorf("failed to open trace %s: %w", path, err)
	}
	defer f.Close()

	tr, err := ReadCSV(f, opts)
	if err != nil {
		return Trace{}, fmt.Errorf("trace %s: %w", path, err)
	}
	return tr, nil
}

func parseRow(rec []string, cols map[string]int, speedUnits string) (Sample, error) {
	var s Sample
	cell := func(key string) (string, bool) {
		i, ok := cols[key]
		if !ok || i >= len(rec) {
			return "", false
		}
		v := strings.TrimSpace(rec[i])
		return v, v != ""
	}

	v, ok := cell("distance")
	if !ok {
		return s, fmt.Errorf("empty distance")
	}
	d, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return s, fmt.Errorf("bad distance %q", v)
	}
	s.Distance = d

	v, ok = cell("time")
	if !ok {
		return s, fmt.Errorf("empty time")
	}
	if s.Time, err = ParseElapsed(v); err != nil {
		return s, err
	}

	floatCols := []struct {
		key string
		dst *float64
	}{
		{"speed", &s.Speed},
		{"throttle", &s.Throttle},
		{"rpm", &s.RPM},
		{"x", &s.X},
		{"y", &s.Y},
	}
	for _, fc := range floatCols {
		if v, ok := cell(fc.key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return s, fmt.Errorf("bad %s %q", fc.key, v)
			}
			*fc.dst = f
		}
	}
	s.Speed = units.ConvertToMPS(s.Speed, speedUnits)

	if v, ok := cell("brake"); ok {
		b, err := parseBrake(v)
		if err != nil {
			return s, err
		}
		s.Brake = b
	}
	if v, ok := cell("gear"); ok {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("bad gear %q", v)
		}
		s.Gear = int(g)
	}
	if v, ok := cell("drs"); ok {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("bad drs %q", v)
		}
		s.DRS = int(g)
	}
	return s, nil
}

func parseBrake(v string) (bool, error) {
	if b, err := strconv.ParseBool(v); err == nil {
		return b, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return false, fmt.Errorf("bad brake %q", v)
	}
	return f > 0, nil
}
