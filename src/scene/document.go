// Package scene is a retained, headless chart.Surface. It keeps every node
// the controller appends, samples running transitions against a clock and
// dispatches hover/click events back to the registered handlers.
package scene

import (
	"context"
	"sync"
	"time"

	"github.com/iafilius/StateScatter/src/chart"
	"github.com/iafilius/StateScatter/src/logging"
	"github.com/iafilius/StateScatter/src/scale"
)

// Clock returns the current time. Tests inject a manual clock.
type Clock func() time.Time

// Document is the retained scene. The zero value is not usable; call New.
type Document struct {
	mu       sync.Mutex
	now      Clock
	layout   chart.Layout
	prepared bool

	axes     []*axisNode
	marks    *marksNode
	labels   *labelsNode
	captions []chart.Caption
	tip      tooltipNode
}

// Option configures a Document.
type Option func(*Document)

// WithClock replaces time.Now as the transition clock.
func WithClock(c Clock) Option { return func(d *Document) { d.now = c } }

// New returns an empty document.
func New(opts ...Option) *Document {
	d := &Document{now: time.Now, tip: tooltipNode{Index: -1}}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Prepare resets the document to an empty canvas of l's size.
func (d *Document) Prepare(l chart.Layout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layout = l
	d.prepared = true
	d.axes = nil
	d.marks = nil
	d.labels = nil
	d.captions = nil
	d.tip = tooltipNode{Index: -1}
}

// Layout returns the geometry handed to Prepare.
func (d *Document) Layout() chart.Layout {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layout
}

// AppendAxis implements chart.Surface.
func (d *Document) AppendAxis(o chart.Orientation, s scale.Linear, ticks int) chart.AxisHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := &axisNode{doc: d, orient: o, ticks: ticks, rng: s.Range,
		d0: still(s.Domain[0]), d1: still(s.Domain[1])}
	d.axes = append(d.axes, a)
	return a
}

// AppendPoints implements chart.Surface.
func (d *Document) AppendPoints(marks []chart.Mark) chart.PointsHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := &marksNode{doc: d, items: make([]markNode, len(marks))}
	for i, mk := range marks {
		m.items[i] = markNode{Mark: mk, cx: still(mk.CX)}
	}
	d.marks = m
	return m
}

// AppendLabels implements chart.Surface.
func (d *Document) AppendLabels(labels []chart.Label) chart.LabelsHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	l := &labelsNode{doc: d, items: append([]chart.Label(nil), labels...)}
	d.labels = l
	return l
}

// AppendCaption implements chart.Surface.
func (d *Document) AppendCaption(c chart.Caption) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.captions = append(d.captions, c)
}

// Tooltip implements chart.Surface.
func (d *Document) Tooltip() chart.Tooltip { return tooltipHandle{d} }

// Settle jumps every running transition to its end value.
func (d *Document) Settle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.axes {
		a.gen++
		a.d0, a.d1 = still(a.d0.to), still(a.d1.to)
	}
	if d.marks != nil {
		d.marks.gen++
		for i := range d.marks.items {
			d.marks.items[i].cx = still(d.marks.items[i].cx.to)
		}
	}
}

// Animating reports whether any transition is still running.
func (d *Document) Animating() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for _, a := range d.axes {
		if !a.d0.done(now) || !a.d1.done(now) {
			return true
		}
	}
	if d.marks != nil {
		for _, it := range d.marks.items {
			if !it.cx.done(now) {
				return true
			}
		}
	}
	return false
}

// Hover dispatches a pointer-enter on mark i. Handlers run without the
// document lock held, so they may call back into the controller.
func (d *Document) Hover(i int) bool {
	d.mu.Lock()
	if d.marks == nil || i < 0 || i >= len(d.marks.items) || d.marks.enter == nil {
		d.mu.Unlock()
		return false
	}
	fn := d.marks.enter
	d.mu.Unlock()
	fn(i)
	return true
}

// Unhover dispatches a pointer-exit on mark i.
func (d *Document) Unhover(i int) bool {
	d.mu.Lock()
	if d.marks == nil || i < 0 || i >= len(d.marks.items) || d.marks.exit == nil {
		d.mu.Unlock()
		return false
	}
	fn := d.marks.exit
	d.mu.Unlock()
	fn(i)
	return true
}

// Click dispatches a click on the label carrying value. It reports whether
// such a label exists.
func (d *Document) Click(value string) bool {
	d.mu.Lock()
	if d.labels == nil || d.labels.onClick == nil {
		d.mu.Unlock()
		return false
	}
	found := false
	for _, l := range d.labels.items {
		if l.Value == value {
			found = true
			break
		}
	}
	fn := d.labels.onClick
	d.mu.Unlock()
	if !found {
		logging.Debugf("scene: click on missing label %q", value)
		return false
	}
	fn(value)
	return true
}

type axisNode struct {
	doc    *Document
	orient chart.Orientation
	ticks  int
	rng    [2]float64
	d0, d1 tween
	gen    uint64
}

func (a *axisNode) Transition(ctx context.Context, s scale.Linear, dur time.Duration) {
	d := a.doc
	d.mu.Lock()
	now := d.now()
	a.gen++
	gen := a.gen
	a.rng = s.Range
	a.d0 = a.d0.retarget(now, s.Domain[0], dur)
	a.d1 = a.d1.retarget(now, s.Domain[1], dur)
	d.mu.Unlock()

	context.AfterFunc(ctx, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if a.gen != gen {
			return
		}
		now := d.now()
		a.d0, a.d1 = a.d0.freeze(now), a.d1.freeze(now)
	})
}

func (a *axisNode) scaleAt(now time.Time) scale.Linear {
	return scale.Linear{Domain: [2]float64{a.d0.at(now), a.d1.at(now)}, Range: a.rng}
}

type markNode struct {
	chart.Mark
	cx tween
}

type marksNode struct {
	doc         *Document
	items       []markNode
	enter, exit func(i int)
	gen         uint64
}

func (m *marksNode) Len() int {
	m.doc.mu.Lock()
	defer m.doc.mu.Unlock()
	return len(m.items)
}

func (m *marksNode) TransitionX(ctx context.Context, cx []float64, dur time.Duration) {
	d := m.doc
	d.mu.Lock()
	now := d.now()
	m.gen++
	gen := m.gen
	for i := range m.items {
		if i >= len(cx) {
			break
		}
		m.items[i].cx = m.items[i].cx.retarget(now, cx[i], dur)
	}
	d.mu.Unlock()

	context.AfterFunc(ctx, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if m.gen != gen {
			return
		}
		now := d.now()
		for i := range m.items {
			m.items[i].cx = m.items[i].cx.freeze(now)
		}
	})
}

func (m *marksNode) OnHover(enter, exit func(i int)) {
	m.doc.mu.Lock()
	defer m.doc.mu.Unlock()
	m.enter, m.exit = enter, exit
}

type labelsNode struct {
	doc     *Document
	items   []chart.Label
	onClick func(string)
}

func (l *labelsNode) SetActive(value string) {
	l.doc.mu.Lock()
	defer l.doc.mu.Unlock()
	for i := range l.items {
		l.items[i].Active = l.items[i].Value == value
	}
}

func (l *labelsNode) OnClick(fn func(string)) {
	l.doc.mu.Lock()
	defer l.doc.mu.Unlock()
	l.onClick = fn
}

type tooltipNode struct {
	Visible bool
	Index   int
	HTML    string
}

type tooltipHandle struct{ d *Document }

// Show anchors the tooltip at mark i. Called from hover handlers, so it
// takes the lock itself.
func (t tooltipHandle) Show(i int, html string) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	t.d.tip = tooltipNode{Visible: true, Index: i, HTML: html}
}

func (t tooltipHandle) Hide(i int) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	if t.d.tip.Index == i || i < 0 {
		t.d.tip.Visible = false
	}
}
