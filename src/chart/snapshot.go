package chart

import (
	"github.com/iafilius/StateScatter/src/dataset"
	"github.com/iafilius/StateScatter/src/scale"
)

// MarkView is a settled point mark: where the mark ends up once the
// current transition cycle has finished.
type MarkView struct {
	Index   int     `json:"index"`
	Abbr    string  `json:"abbr"`
	State   string  `json:"state,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	CX      float64 `json:"cx"`
	CY      float64 `json:"cy"`
	Tooltip string  `json:"tooltip"`
}

// LabelView is a field label with its emphasis.
type LabelView struct {
	Field  dataset.Field `json:"field"`
	Text   string        `json:"text"`
	Active bool          `json:"active"`
}

// Snapshot is an immutable copy of what the chart shows for the current selection.
type Snapshot struct {
	Field  dataset.Field
	XScale scale.Linear
	YScale scale.Linear
	Layout Layout
	Marks  []MarkView
	Labels []LabelView
}

// Snapshot captures the chart for the current selection. It does not need a
// drawn surface, so headless exporters can use a controller directly.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return buildSnapshot(c.ds, c.state.SelectedX, c.xScale, c.yScale, c.layout)
}

// SnapshotFor captures the chart as it would look with field selected,
// without touching the controller state.
func (c *Controller) SnapshotFor(f dataset.Field) (Snapshot, error) {
	if !f.IsSelectableX() {
		return Snapshot{}, ErrUnknownField
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	x := ComputeXScale(c.ds, f, c.layout.PlotWidth())
	return buildSnapshot(c.ds, f, x, c.yScale, c.layout), nil
}

func buildSnapshot(ds dataset.Dataset, f dataset.Field, x, y scale.Linear, l Layout) Snapshot {
	s := Snapshot{Field: f, XScale: x, YScale: y, Layout: l}
	s.Marks = make([]MarkView, len(ds))
	for i, p := range ds {
		s.Marks[i] = MarkView{
			Index:   i,
			Abbr:    p.Abbr,
			State:   p.State,
			X:       p.Value(f),
			Y:       p.Healthcare,
			CX:      x.Apply(p.Value(f)),
			CY:      y.Apply(p.Healthcare),
			Tooltip: TooltipText(p, f),
		}
	}
	for _, lf := range dataset.SelectableX {
		s.Labels = append(s.Labels, LabelView{Field: lf, Text: AxisLabel(lf), Active: lf == f})
	}
	return s
}
