package export

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/banshee-data/lapdelta/internal/comparison"
	"github.com/banshee-data/lapdelta/internal/units"
)

const (
	tableDriver   = "Driver"
	tableLapTime  = "Lap Time"
	tableGap      = "Gap"
	tableFinal    = "Final Delta"
	tableRefLead  = "Ref Ahead"
	tableOthLead  = "Driver Ahead"
	tableTopSpeed = "Top Speed"
)

// RenderSummary writes a lap summary table: the reference row first, then one
// row per aligned driver in report order, then any skipped drivers. Top speeds
// are shown in speedUnits.
func RenderSummary(w io.Writer, field *comparison.Field, report *comparison.Report, speedUnits string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Gap to %s", report.Reference)
	t.AppendHeader(table.Row{tableDriver, tableLapTime, tableGap, tableFinal, tableRefLead, tableOthLead, tableTopSpeed})

	topSpeed := func(code string) string {
		lap, ok := field.Get(code)
		if !ok {
			return "-"
		}
		return fmt.Sprintf("%.1f %s", units.ConvertSpeed(lap.Trace.TopSpeed(), speedUnits), units.Label(speedUnits))
	}

	t.AppendRow(table.Row{
		report.Reference,
		FormatLapTime(report.ReferenceLapTime),
		"Ref",
		"-", "-", "-",
		topSpeed(report.Reference),
	})
	for _, res := range report.Results {
		s := res.Summary
		t.AppendRow(table.Row{
			res.Driver,
			FormatLapTime(res.LapTime),
			FormatGap(res.LapGap),
			fmt.Sprintf("%+.3fs", s.Final),
			formatLead(s.ReferenceLead, s.ReferenceLeadAt),
			formatLead(-s.OtherLead, s.OtherLeadAt),
			topSpeed(res.Driver),
		})
	}
	if len(report.Skipped) > 0 {
		t.AppendSeparator()
		for _, sk := range report.Skipped {
			lapTime := "-"
			if lap, ok := field.Get(sk.Driver); ok {
				lapTime = FormatLapTime(lap.EffectiveLapTime())
			}
			t.AppendRow(table.Row{sk.Driver, lapTime, "skipped", "-", "-", "-", topSpeed(sk.Driver)})
		}
	}
	t.Render()
}

// FormatLapTime renders a lap time as mm:ss.fff, or "-" when unknown.
func FormatLapTime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	ms := d.Round(time.Millisecond).Milliseconds()
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

// FormatGap renders a signed lap-time gap such as "+0.123s".
func FormatGap(d time.Duration) string {
	return fmt.Sprintf("%+.3fs", d.Seconds())
}

func formatLead(v, at float64) string {
	if v <= 0 || math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3fs @ %.0fm", v, at)
}
