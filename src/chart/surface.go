package chart

import (
	"context"
	"image/color"
	"time"

	"github.com/iafilius/StateScatter/src/scale"
)

// Orientation selects where an axis is drawn relative to the plot.
type Orientation int

const (
	AxisBottom Orientation = iota
	AxisLeft
)

func (o Orientation) String() string {
	if o == AxisLeft {
		return "left"
	}
	return "bottom"
}

// Mark describes one point mark. CX/CY are plot-group coordinates.
type Mark struct {
	CX, CY  float64
	R       float64
	Fill    color.NRGBA
	Opacity float64
	// Text is drawn centered on the mark and moves with it.
	Text string
}

// Label describes one clickable field label.
type Label struct {
	Value  string // field name handed back on click
	Text   string
	At     Point
	Active bool
}

// Caption is static text such as the y-axis title.
type Caption struct {
	Text   string
	At     Point
	Rotate float64 // degrees
	Class  string
}

// AxisHandle is an axis group issued by a Surface.
type AxisHandle interface {
	// Transition redraws the axis for s, animated over d. When ctx is
	// cancelled the animation stops where it is.
	Transition(ctx context.Context, s scale.Linear, d time.Duration)
}

// PointsHandle is the set of marks bound to the dataset, in dataset order.
type PointsHandle interface {
	Len() int
	// TransitionX animates the horizontal position of mark i to cx[i].
	// Vertical position and radius are left alone.
	TransitionX(ctx context.Context, cx []float64, d time.Duration)
	// OnHover replaces the pointer enter/exit handlers of every mark.
	OnHover(enter, exit func(i int))
}

// LabelsHandle is the group of mutually exclusive field labels.
type LabelsHandle interface {
	// SetActive marks the label with value as active and every other as inactive.
	SetActive(value string)
	// OnClick replaces the click handler of every label.
	OnClick(fn func(value string))
}

// Tooltip is the single hover label of a surface.
type Tooltip interface {
	Show(i int, html string)
	Hide(i int)
}

// Surface is the drawing collaborator of the Controller: it appends
// drawable groups, runs timed attribute transitions and dispatches pointer
// events. Coordinates handed to a Surface are relative to the plot group,
// which the surface offsets by Layout.Margin.
type Surface interface {
	Prepare(l Layout)
	AppendAxis(o Orientation, s scale.Linear, ticks int) AxisHandle
	AppendPoints(marks []Mark) PointsHandle
	AppendLabels(labels []Label) LabelsHandle
	AppendCaption(c Caption)
	Tooltip() Tooltip
}
