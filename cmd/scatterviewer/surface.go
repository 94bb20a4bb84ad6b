package main

import (
	"context"
	"image/color"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/iafilius/StateScatter/cmd/scatterviewer/uihelpers"
	"github.com/iafilius/StateScatter/src/chart"
	"github.com/iafilius/StateScatter/src/scale"
)

var (
	axisColor = color.NRGBA{R: 60, G: 60, B: 60, A: 255}
	textColor = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
)

// fyneSurface draws the chart with fyne canvas objects. Every method runs
// on the fyne main goroutine; context cancellation is marshalled there
// with fyne.Do.
type fyneSurface struct {
	layout chart.Layout
	root   *fyne.Container

	axes   []*fyneAxis
	marks  *fyneMarks
	labels *fyneLabels
	tip    *fyneTooltip
}

func newFyneSurface() *fyneSurface {
	return &fyneSurface{root: container.NewWithoutLayout()}
}

// Content is the canvas object to place in a window.
func (s *fyneSurface) Content() fyne.CanvasObject { return s.root }

func (s *fyneSurface) Prepare(l chart.Layout) {
	s.layout = l
	s.root.RemoveAll()
	bg := canvas.NewRectangle(color.White)
	bg.Resize(fyne.NewSize(float32(l.Width), float32(l.Height)))
	s.root.Add(bg)
	s.root.Resize(fyne.NewSize(float32(l.Width), float32(l.Height)))
	s.axes, s.marks, s.labels = nil, nil, nil
	s.tip = newFyneTooltip(s)
}

func (s *fyneSurface) AppendAxis(o chart.Orientation, sc scale.Linear, ticks int) chart.AxisHandle {
	a := &fyneAxis{surf: s, orient: o, ticks: ticks, group: container.NewWithoutLayout()}
	a.line = canvas.NewLine(axisColor)
	a.line.StrokeWidth = 1
	a.group.Add(a.line)
	s.root.Add(a.group)
	a.redraw(sc)
	s.axes = append(s.axes, a)
	return a
}

func (s *fyneSurface) AppendPoints(marks []chart.Mark) chart.PointsHandle {
	m := &fyneMarks{surf: s}
	for i, mk := range marks {
		w := newMarkWidget(m, i, mk)
		m.items = append(m.items, w)
		s.root.Add(w)
	}
	// Keep the tooltip above the marks.
	s.root.Add(s.tip.bg)
	s.root.Add(s.tip.text)
	s.marks = m
	return m
}

func (s *fyneSurface) AppendLabels(labels []chart.Label) chart.LabelsHandle {
	g := &fyneLabels{}
	for _, l := range labels {
		w := newLabelWidget(g, l)
		w.place(s.layout)
		g.items = append(g.items, w)
		s.root.Add(w)
	}
	s.labels = g
	return g
}

// AppendCaption draws c. fyne text cannot rotate, so a -90 caption is
// stacked one rune per line.
func (s *fyneSurface) AppendCaption(c chart.Caption) {
	x := s.layout.Margin.Left + c.At.X
	y := s.layout.Margin.Top + c.At.Y
	if c.Rotate == 0 {
		t := canvas.NewText(c.Text, textColor)
		t.TextSize = 13
		t.Move(fyne.NewPos(float32(x), float32(y)))
		s.root.Add(t)
		return
	}
	runes := []rune(c.Text)
	const lineH = 12
	top := float32(y) - float32(len(runes)*lineH)/2
	for i, r := range runes {
		t := canvas.NewText(string(r), textColor)
		t.TextSize = 11
		t.Alignment = fyne.TextAlignCenter
		t.Move(fyne.NewPos(float32(x), top+float32(i*lineH)))
		s.root.Add(t)
	}
}

func (s *fyneSurface) Tooltip() chart.Tooltip { return s.tip }

// fyneAxis is an axis line with pooled tick marks and labels.
type fyneAxis struct {
	surf   *fyneSurface
	orient chart.Orientation
	ticks  int
	scale  scale.Linear
	group  *fyne.Container
	line   *canvas.Line
	marks  []*canvas.Line
	texts  []*canvas.Text
	anim   *fyne.Animation
}

func (a *fyneAxis) redraw(s scale.Linear) {
	a.scale = s
	l := a.surf.layout
	left, top := float32(l.Margin.Left), float32(l.Margin.Top)
	pw, ph := float32(l.PlotWidth()), float32(l.PlotHeight())
	if a.orient == chart.AxisBottom {
		a.line.Position1 = fyne.NewPos(left, top+ph)
		a.line.Position2 = fyne.NewPos(left+pw, top+ph)
	} else {
		a.line.Position1 = fyne.NewPos(left, top)
		a.line.Position2 = fyne.NewPos(left, top+ph)
	}
	vals := s.Ticks(a.ticks)
	for len(a.marks) < len(vals) {
		m := canvas.NewLine(axisColor)
		m.StrokeWidth = 1
		t := canvas.NewText("", textColor)
		t.TextSize = 10
		a.marks = append(a.marks, m)
		a.texts = append(a.texts, t)
		a.group.Add(m)
		a.group.Add(t)
	}
	for i := range a.marks {
		m, t := a.marks[i], a.texts[i]
		if i >= len(vals) {
			m.Hide()
			t.Hide()
			continue
		}
		m.Show()
		t.Show()
		t.Text = scale.FormatTick(vals[i])
		ts := t.MinSize()
		p := uihelpers.ScreenPos(s.Apply(vals[i]), 0)
		if a.orient == chart.AxisBottom {
			x := left + p
			m.Position1 = fyne.NewPos(x, top+ph)
			m.Position2 = fyne.NewPos(x, top+ph+6)
			t.Move(fyne.NewPos(x-ts.Width/2, top+ph+8))
		} else {
			y := top + p
			m.Position1 = fyne.NewPos(left-6, y)
			m.Position2 = fyne.NewPos(left, y)
			t.Move(fyne.NewPos(left-8-ts.Width, y-ts.Height/2))
		}
	}
	a.group.Refresh()
}

func (a *fyneAxis) Transition(ctx context.Context, s scale.Linear, d time.Duration) {
	if a.anim != nil {
		a.anim.Stop()
	}
	if d <= 0 {
		a.redraw(s)
		return
	}
	from := a.scale
	anim := fyne.NewAnimation(d, func(p float32) {
		a.redraw(scale.Linear{
			Domain: [2]float64{uihelpers.Lerp(from.Domain[0], s.Domain[0], p), uihelpers.Lerp(from.Domain[1], s.Domain[1], p)},
			Range:  s.Range,
		})
	})
	anim.Curve = fyne.AnimationEaseInOut
	a.anim = anim
	stopOnCancel(ctx, anim)
	anim.Start()
}

func stopOnCancel(ctx context.Context, anim *fyne.Animation) {
	context.AfterFunc(ctx, func() { fyne.Do(anim.Stop) })
}

// fyneMarks is the mark group, in dataset order.
type fyneMarks struct {
	surf        *fyneSurface
	items       []*markWidget
	enter, exit func(i int)
	anim        *fyne.Animation
}

func (m *fyneMarks) Len() int { return len(m.items) }

func (m *fyneMarks) TransitionX(ctx context.Context, cx []float64, d time.Duration) {
	if m.anim != nil {
		m.anim.Stop()
	}
	n := len(m.items)
	if len(cx) < n {
		n = len(cx)
	}
	if d <= 0 {
		for i := 0; i < n; i++ {
			m.items[i].setCX(cx[i])
		}
		return
	}
	from := make([]float64, n)
	for i := 0; i < n; i++ {
		from[i] = m.items[i].mark.CX
	}
	anim := fyne.NewAnimation(d, func(p float32) {
		for i := 0; i < n; i++ {
			m.items[i].setCX(uihelpers.Lerp(from[i], cx[i], p))
		}
	})
	anim.Curve = fyne.AnimationEaseInOut
	m.anim = anim
	stopOnCancel(ctx, anim)
	anim.Start()
}

func (m *fyneMarks) OnHover(enter, exit func(i int)) { m.enter, m.exit = enter, exit }

// markWidget is one circle with its abbreviation. It is its own hover target.
type markWidget struct {
	widget.BaseWidget
	group  *fyneMarks
	index  int
	mark   chart.Mark
	circle *canvas.Circle
	text   *canvas.Text
}

func newMarkWidget(g *fyneMarks, i int, mk chart.Mark) *markWidget {
	w := &markWidget{group: g, index: i, mark: mk}
	w.circle = canvas.NewCircle(uihelpers.MarkColor(mk.Fill, mk.Opacity))
	w.text = canvas.NewText(mk.Text, color.White)
	w.text.TextSize = 10
	w.text.Alignment = fyne.TextAlignCenter
	w.ExtendBaseWidget(w)
	d := float32(2 * mk.R)
	w.Resize(fyne.NewSize(d, d))
	w.setCX(mk.CX)
	return w
}

func (w *markWidget) setCX(cx float64) {
	w.mark.CX = cx
	l := w.group.surf.layout
	x := uihelpers.ScreenPos(cx-w.mark.R, l.Margin.Left)
	y := uihelpers.ScreenPos(w.mark.CY-w.mark.R, l.Margin.Top)
	w.Move(fyne.NewPos(x, y))
}

// center is the mark's current canvas position.
func (w *markWidget) center() fyne.Position {
	p := w.Position()
	r := float32(w.mark.R)
	return fyne.NewPos(p.X+r, p.Y+r)
}

func (w *markWidget) CreateRenderer() fyne.WidgetRenderer {
	return &markRenderer{w: w, objs: []fyne.CanvasObject{w.circle, w.text}}
}

func (w *markWidget) MouseIn(*desktop.MouseEvent) {
	if w.group.enter != nil {
		w.group.enter(w.index)
	}
}
func (w *markWidget) MouseMoved(*desktop.MouseEvent) {}
func (w *markWidget) MouseOut() {
	if w.group.exit != nil {
		w.group.exit(w.index)
	}
}

var _ desktop.Hoverable = (*markWidget)(nil)

type markRenderer struct {
	w    *markWidget
	objs []fyne.CanvasObject
}

func (r *markRenderer) Destroy() {}
func (r *markRenderer) Layout(size fyne.Size) {
	r.w.circle.Resize(size)
	r.w.circle.Move(fyne.NewPos(0, 0))
	ts := r.w.text.MinSize()
	r.w.text.Resize(fyne.NewSize(size.Width, ts.Height))
	r.w.text.Move(fyne.NewPos(0, (size.Height-ts.Height)/2))
}
func (r *markRenderer) MinSize() fyne.Size {
	d := float32(2 * r.w.mark.R)
	return fyne.NewSize(d, d)
}
func (r *markRenderer) Objects() []fyne.CanvasObject { return r.objs }
func (r *markRenderer) Refresh() {
	r.Layout(r.w.Size())
	r.w.circle.Refresh()
	r.w.text.Refresh()
}

// fyneLabels is the group of mutually exclusive field labels.
type fyneLabels struct {
	items   []*labelWidget
	onClick func(string)
}

func (g *fyneLabels) SetActive(value string) {
	for _, w := range g.items {
		w.setActive(w.label.Value == value)
	}
}

func (g *fyneLabels) OnClick(fn func(string)) { g.onClick = fn }

// labelWidget is a clickable field label; the active one is bold and dark.
type labelWidget struct {
	widget.BaseWidget
	group *fyneLabels
	label chart.Label
	text  *canvas.Text
}

func newLabelWidget(g *fyneLabels, l chart.Label) *labelWidget {
	w := &labelWidget{group: g, label: l}
	w.text = canvas.NewText(l.Text, uihelpers.LabelColor(l.Active))
	w.text.TextSize = 14
	w.text.TextStyle = fyne.TextStyle{Bold: l.Active}
	w.ExtendBaseWidget(w)
	return w
}

// place centres the label horizontally on its anchor, baseline at At.Y.
func (w *labelWidget) place(l chart.Layout) {
	ts := w.text.MinSize()
	w.Resize(ts)
	x := float32(l.Margin.Left+w.label.At.X) - ts.Width/2
	y := float32(l.Margin.Top+w.label.At.Y) - ts.Height
	w.Move(fyne.NewPos(x, y))
}

func (w *labelWidget) setActive(active bool) {
	w.label.Active = active
	w.text.Color = uihelpers.LabelColor(active)
	w.text.TextStyle = fyne.TextStyle{Bold: active}
	w.Refresh()
}

func (w *labelWidget) Tapped(*fyne.PointEvent) {
	if w.group.onClick != nil {
		w.group.onClick(w.label.Value)
	}
}

func (w *labelWidget) Cursor() desktop.Cursor { return desktop.PointerCursor }

func (w *labelWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(w.text)
}

var (
	_ fyne.Tappable      = (*labelWidget)(nil)
	_ desktop.Cursorable = (*labelWidget)(nil)
)

// fyneTooltip is a translucent box with the hover text.
type fyneTooltip struct {
	surf  *fyneSurface
	bg    *canvas.Rectangle
	text  *widget.RichText
	index int
}

func newFyneTooltip(s *fyneSurface) *fyneTooltip {
	t := &fyneTooltip{surf: s, index: -1}
	t.bg = canvas.NewRectangle(color.NRGBA{R: 255, G: 255, B: 235, A: 230})
	t.text = widget.NewRichText()
	t.text.Wrapping = fyne.TextWrapOff
	t.bg.Hide()
	t.text.Hide()
	return t
}

func (t *fyneTooltip) Show(i int, html string) {
	m := t.surf.marks
	if m == nil || i < 0 || i >= len(m.items) {
		return
	}
	t.index = i
	t.text.Segments = []widget.RichTextSegment{&widget.TextSegment{
		Text:  strings.Join(uihelpers.TooltipLines(html), "\n"),
		Style: widget.RichTextStyleInline,
	}}
	t.text.Refresh()
	const pad = float32(6)
	ts := t.text.MinSize()
	bw, bh := ts.Width+2*pad, ts.Height+2*pad
	c := m.items[i].center()
	l := t.surf.layout
	x, y := uihelpers.TooltipPosition(c.X, c.Y-float32(m.items[i].mark.R), bw, bh, float32(l.Width), float32(l.Height))
	t.bg.Resize(fyne.NewSize(bw, bh))
	t.bg.Move(fyne.NewPos(x, y))
	t.text.Move(fyne.NewPos(x+pad, y+pad))
	t.bg.Show()
	t.text.Show()
}

func (t *fyneTooltip) Hide(i int) {
	if i >= 0 && i != t.index {
		return
	}
	t.bg.Hide()
	t.text.Hide()
}

// plain returns the tooltip text without markup.
func (t *fyneTooltip) plain() string {
	var b strings.Builder
	for _, s := range t.text.Segments {
		b.WriteString(s.Textual())
	}
	return b.String()
}
