package chart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/iafilius/StateScatter/src/dataset"
	"github.com/iafilius/StateScatter/src/logging"
	"github.com/iafilius/StateScatter/src/scale"
)

// Domain padding applied to the selected x field.
const (
	xDomainLowFactor  = 0.8
	xDomainHighFactor = 1.2
)

var (
	// ErrUnknownField is returned when a selection names a field that cannot drive the x-axis.
	ErrUnknownField = errors.New("unknown x field")
	// ErrAlreadyDrawn is returned by a second Draw.
	ErrAlreadyDrawn = errors.New("chart already drawn")
	// ErrNotDrawn is returned when selecting before the initial Draw.
	ErrNotDrawn = errors.New("chart not drawn yet")
)

// ChartState is the only mutable chart state.
type ChartState struct {
	SelectedX dataset.Field
}

// ComputeXScale maps [min*0.8, max*1.2] of field onto [0, width].
func ComputeXScale(ds dataset.Dataset, field dataset.Field, width float64) scale.Linear {
	min, max := ds.Extent(field)
	return scale.NewLinear(min*xDomainLowFactor, max*xDomainHighFactor, 0, width)
}

// ComputeYScale maps [0, max(healthcare)] onto [height, 0].
func ComputeYScale(ds dataset.Dataset, height float64) scale.Linear {
	_, max := ds.Extent(dataset.FieldHealthcare)
	return scale.NewLinear(0, max, height, 0)
}

// TooltipLabel is the value caption shown in the hover tooltip.
func TooltipLabel(f dataset.Field) string {
	if f == dataset.FieldPoverty {
		return "Poverty (%):"
	}
	return "Annual Income ($)"
}

// TooltipText renders the tooltip html for p under the selected field.
func TooltipText(p dataset.DataPoint, f dataset.Field) string {
	return p.Abbr + "<br>" + TooltipLabel(f) + " " + FormatValue(p.Value(f))
}

// FormatValue prints a number in its shortest decimal form (43200, 12.5, NaN).
func FormatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Controller binds a dataset to a Surface and runs the selection cycle.
// All methods are safe for concurrent use; selections are serialised.
type Controller struct {
	mu      sync.Mutex
	ds      dataset.Dataset
	surface Surface
	layout  Layout

	state  ChartState
	xScale scale.Linear
	yScale scale.Linear

	xAxis  AxisHandle
	points PointsHandle
	labels LabelsHandle

	base   context.Context
	cancel context.CancelFunc // cancels the in-flight transition cycle
	drawn  bool
}

// NewController prepares a controller; nothing is drawn until Draw.
func NewController(ds dataset.Dataset, surface Surface, layout Layout) *Controller {
	c := &Controller{
		ds:      ds,
		surface: surface,
		layout:  layout,
		state:   ChartState{SelectedX: dataset.FieldPoverty},
	}
	c.xScale = ComputeXScale(ds, c.state.SelectedX, layout.PlotWidth())
	c.yScale = ComputeYScale(ds, layout.PlotHeight())
	return c
}

// Draw performs the initial render: both axes, the point marks, the field
// labels, the y caption and the hover bindings. ctx bounds every later
// transition; cancelling it stops animations.
func (c *Controller) Draw(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drawn {
		return ErrAlreadyDrawn
	}
	c.base = ctx
	l := c.layout
	c.surface.Prepare(l)

	c.xAxis = c.surface.AppendAxis(AxisBottom, c.xScale, l.XTicks)
	c.surface.AppendAxis(AxisLeft, c.yScale, l.YTicks)

	marks := make([]Mark, len(c.ds))
	for i, p := range c.ds {
		marks[i] = Mark{
			CX:      c.xScale.Apply(p.Value(c.state.SelectedX)),
			CY:      c.yScale.Apply(p.Healthcare),
			R:       l.Radius,
			Fill:    l.Fill,
			Opacity: l.Opacity,
			Text:    p.Abbr,
		}
	}
	c.points = c.surface.AppendPoints(marks)

	origin := l.LabelsOrigin()
	labels := make([]Label, len(dataset.SelectableX))
	for i, f := range dataset.SelectableX {
		labels[i] = Label{
			Value:  string(f),
			Text:   AxisLabel(f),
			At:     Point{X: origin.X, Y: origin.Y + 20*float64(i+1)},
			Active: f == c.state.SelectedX,
		}
	}
	c.labels = c.surface.AppendLabels(labels)
	c.labels.OnClick(c.onLabelClick)

	c.surface.AppendCaption(Caption{
		Text:   AxisLabel(dataset.FieldHealthcare),
		At:     Point{X: -l.Margin.Left + 16, Y: l.PlotHeight() / 2},
		Rotate: -90,
		Class:  "axis-text",
	})

	c.RenderTooltip(c.state.SelectedX, c.points)
	c.drawn = true
	logging.Debugf("chart drawn: %d marks, x=%s domain=%v y domain=%v", len(marks), c.state.SelectedX, c.xScale.Domain, c.yScale.Domain)
	return nil
}

func (c *Controller) onLabelClick(value string) {
	f, ok := dataset.ParseField(value)
	if !ok {
		logging.Warnf("click on unknown label value %q", value)
		return
	}
	if _, err := c.SelectField(f); err != nil {
		logging.Warnf("select %q: %v", value, err)
	}
}

// SelectField is the interaction entry point. It reports whether anything
// changed; selecting the active field is a no-op.
func (c *Controller) SelectField(f dataset.Field) (bool, error) {
	if !f.IsSelectableX() {
		return false, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.drawn {
		return false, ErrNotDrawn
	}
	if f == c.state.SelectedX {
		return false, nil
	}
	c.state.SelectedX = f

	// A new cycle supersedes the previous one: its transitions are stopped
	// and the new ones start from wherever the marks currently are.
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel

	c.xScale = ComputeXScale(c.ds, f, c.layout.PlotWidth())
	c.xAxis = c.RenderAxes(ctx, c.xScale, c.xAxis)
	c.points = c.RenderPoints(ctx, c.points, c.xScale, f)
	c.points = c.RenderTooltip(f, c.points)
	c.labels.SetActive(string(f))
	logging.Infof("x field -> %s, domain [%s, %s]", f, FormatValue(c.xScale.Domain[0]), FormatValue(c.xScale.Domain[1]))
	return true, nil
}

// RenderAxes transitions the bottom axis to s and returns the same handle.
func (c *Controller) RenderAxes(ctx context.Context, s scale.Linear, h AxisHandle) AxisHandle {
	h.Transition(ctx, s, c.layout.Duration)
	return h
}

// RenderPoints moves every mark horizontally to s(point[field]).
func (c *Controller) RenderPoints(ctx context.Context, h PointsHandle, s scale.Linear, f dataset.Field) PointsHandle {
	cx := make([]float64, len(c.ds))
	for i, p := range c.ds {
		cx[i] = s.Apply(p.Value(f))
	}
	h.TransitionX(ctx, cx, c.layout.Duration)
	return h
}

// RenderTooltip replaces the hover handlers so the tooltip reflects field f.
func (c *Controller) RenderTooltip(f dataset.Field, h PointsHandle) PointsHandle {
	tip := c.surface.Tooltip()
	ds := c.ds
	h.OnHover(
		func(i int) {
			if i < 0 || i >= len(ds) {
				return
			}
			tip.Show(i, TooltipText(ds[i], f))
		},
		func(i int) { tip.Hide(i) },
	)
	return h
}

// State returns a copy of the chart state.
func (c *Controller) State() ChartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Scales returns the current x and y scales.
func (c *Controller) Scales() (x, y scale.Linear) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.xScale, c.yScale
}

// Dataset returns the bound dataset (read-only by convention).
func (c *Controller) Dataset() dataset.Dataset { return c.ds }

// Layout returns the chart geometry.
func (c *Controller) Layout() Layout { return c.layout }

// Close stops any in-flight transition cycle.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
