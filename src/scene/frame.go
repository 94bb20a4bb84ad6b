package scene

import (
	"github.com/iafilius/StateScatter/src/chart"
	"github.com/iafilius/StateScatter/src/scale"
)

// Label classes as styled by the page.
const (
	ClassActive   = "active"
	ClassInactive = "inactive"
)

// TickFrame is one rendered axis tick.
type TickFrame struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
	Pos   float64 `json:"pos"`
}

// AxisFrame is an axis sampled at a point in time.
type AxisFrame struct {
	Orient string       `json:"orient"`
	Scale  scale.Linear `json:"-"`
	Domain [2]float64   `json:"domain"`
	Ticks  []TickFrame  `json:"ticks"`
}

// MarkFrame is a point mark with its abbreviation, in plot coordinates.
type MarkFrame struct {
	CX      float64 `json:"cx"`
	CY      float64 `json:"cy"`
	R       float64 `json:"r"`
	Opacity float64 `json:"opacity"`
	Text    string  `json:"text"`
}

// LabelFrame is a field label with its class.
type LabelFrame struct {
	Value string      `json:"value"`
	Text  string      `json:"text"`
	Class string      `json:"class"`
	At    chart.Point `json:"-"`
}

// TooltipFrame is the tooltip node. X/Y are canvas coordinates of the
// anchored mark's top edge.
type TooltipFrame struct {
	Visible bool    `json:"visible"`
	Index   int     `json:"index"`
	HTML    string  `json:"html"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// Frame is a consistent copy of the document at one instant.
type Frame struct {
	Axes     []AxisFrame     `json:"axes"`
	Marks    []MarkFrame     `json:"marks"`
	Labels   []LabelFrame    `json:"labels"`
	Captions []chart.Caption `json:"-"`
	Tooltip  TooltipFrame    `json:"tooltip"`
}

// Frame samples every node against the document clock.
func (d *Document) Frame() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	var f Frame
	for _, a := range d.axes {
		s := a.scaleAt(now)
		af := AxisFrame{Orient: a.orient.String(), Scale: s, Domain: s.Domain}
		for _, v := range s.Ticks(a.ticks) {
			af.Ticks = append(af.Ticks, TickFrame{Value: v, Text: scale.FormatTick(v), Pos: s.Apply(v)})
		}
		f.Axes = append(f.Axes, af)
	}
	if d.marks != nil {
		f.Marks = make([]MarkFrame, len(d.marks.items))
		for i, it := range d.marks.items {
			f.Marks[i] = MarkFrame{CX: it.cx.at(now), CY: it.CY, R: it.R, Opacity: it.Opacity, Text: it.Text}
		}
	}
	if d.labels != nil {
		for _, l := range d.labels.items {
			class := ClassInactive
			if l.Active {
				class = ClassActive
			}
			f.Labels = append(f.Labels, LabelFrame{Value: l.Value, Text: l.Text, Class: class, At: l.At})
		}
	}
	f.Captions = append(f.Captions, d.captions...)
	f.Tooltip = TooltipFrame{Visible: d.tip.Visible, Index: d.tip.Index, HTML: d.tip.HTML}
	if d.tip.Visible && d.tip.Index >= 0 && d.tip.Index < len(f.Marks) {
		m := f.Marks[d.tip.Index]
		f.Tooltip.X = d.layout.Margin.Left + m.CX
		f.Tooltip.Y = d.layout.Margin.Top + m.CY - m.R
	}
	return f
}

// ActiveLabel returns the value of the active label, or "" if none.
func (f Frame) ActiveLabel() string {
	for _, l := range f.Labels {
		if l.Class == ClassActive {
			return l.Value
		}
	}
	return ""
}

// Axis returns the frame of the first axis with orientation o.
func (f Frame) Axis(o chart.Orientation) (AxisFrame, bool) {
	for _, a := range f.Axes {
		if a.Orient == o.String() {
			return a, true
		}
	}
	return AxisFrame{}, false
}
