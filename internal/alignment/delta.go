package alignment

import "gonum.org/v1/gonum/floats"

// DeltaPoint is the gap at one grid distance. Delta is other time minus
// reference time, in seconds.
type DeltaPoint struct {
	Distance float64 `json:"distance"`
	Delta    float64 `json:"delta"`
}

// AlignedDelta is the gap curve for one reference/other pair, ordered by
// strictly increasing distance starting at 0.
type AlignedDelta struct {
	Reference string       `json:"reference"`
	Other     string       `json:"other"`
	Points    []DeltaPoint `json:"points"`
}

// Len returns the number of grid points.
func (d AlignedDelta) Len() int { return len(d.Points) }

// Distances returns the grid distances.
func (d AlignedDelta) Distances() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Distance
	}
	return out
}

// Deltas returns the gap values in grid order.
func (d AlignedDelta) Deltas() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Delta
	}
	return out
}

// Final returns the gap at the end of the shared domain, or 0 for an empty
// curve.
func (d AlignedDelta) Final() float64 {
	if len(d.Points) == 0 {
		return 0
	}
	return d.Points[len(d.Points)-1].Delta
}

// Summary condenses a gap curve into the numbers shown next to a chart.
// ReferenceLead is the largest positive delta (reference furthest ahead) and
// OtherLead the most negative one; each is reported with its distance.
type Summary struct {
	Final           float64 `json:"final"`
	ReferenceLead   float64 `json:"referenceLead"`
	ReferenceLeadAt float64 `json:"referenceLeadAt"`
	OtherLead       float64 `json:"otherLead"`
	OtherLeadAt     float64 `json:"otherLeadAt"`
}

// Summary returns the curve summary. Leads that never happen are reported as
// zero at distance zero.
func (d AlignedDelta) Summary() Summary {
	if len(d.Points) == 0 {
		return Summary{}
	}
	deltas := d.Deltas()
	s := Summary{Final: d.Final()}
	if i := floats.MaxIdx(deltas); deltas[i] > 0 {
		s.ReferenceLead, s.ReferenceLeadAt = deltas[i], d.Points[i].Distance
	}
	if i := floats.MinIdx(deltas); deltas[i] < 0 {
		s.OtherLead, s.OtherLeadAt = deltas[i], d.Points[i].Distance
	}
	return s
}
