// Package export renders a chart snapshot to PNG or SVG with go-chart.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iafilius/StateScatter/src/chart"
	"github.com/iafilius/StateScatter/src/dataset"
	"github.com/iafilius/StateScatter/src/logging"
)

// Format is an output image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ErrUnknownFormat is returned for formats other than png and svg.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts "png" or "svg" in any case, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// pointStyle returns a style that renders points only (no connecting line).
func pointStyle(col drawing.Color, radius float64) gochart.Style {
	return gochart.Style{
		StrokeWidth: 0,
		DotWidth:    radius,
		DotColor:    col,
	}
}

func markColor(l chart.Layout) drawing.Color {
	a := l.Opacity
	if a <= 0 || a > 1 {
		a = 1
	}
	return drawing.Color{R: l.Fill.R, G: l.Fill.G, B: l.Fill.B, A: uint8(math.Round(a * float64(l.Fill.A)))}
}

// buildChart maps a snapshot onto a go-chart Chart. ok is false when no
// mark has finite coordinates; go-chart cannot render an empty series.
func buildChart(snap chart.Snapshot) (gochart.Chart, bool) {
	l := snap.Layout
	var xs, ys []float64
	var notes []gochart.Value2
	for _, m := range snap.Marks {
		if !finite(m.X) || !finite(m.Y) {
			continue
		}
		xs = append(xs, m.X)
		ys = append(ys, m.Y)
		notes = append(notes, gochart.Value2{XValue: m.X, YValue: m.Y, Label: m.Abbr})
	}
	if len(xs) == 0 || !drawable(snap.XScale.Domain) || !drawable(snap.YScale.Domain) {
		return gochart.Chart{}, false
	}
	series := []gochart.Series{
		gochart.ContinuousSeries{
			Name:    string(snap.Field),
			Style:   pointStyle(markColor(l), l.Radius),
			XValues: xs,
			YValues: ys,
		},
		gochart.AnnotationSeries{
			Name:        "abbr",
			Annotations: notes,
			Style: gochart.Style{
				FontSize:    8,
				FontColor:   drawing.ColorWhite,
				FillColor:   drawing.ColorTransparent,
				StrokeColor: drawing.ColorTransparent,
			},
		},
	}
	ch := gochart.Chart{
		Width:  int(l.Width),
		Height: int(l.Height),
		Background: gochart.Style{Padding: gochart.Box{
			Top:    int(l.Margin.Top),
			Right:  int(l.Margin.Right),
			Bottom: int(l.Margin.Bottom) - labelStripHeight,
			Left:   int(l.Margin.Left),
		}},
		XAxis: gochart.XAxis{
			Name:  chart.AxisLabel(snap.Field),
			Range: snap.XScale.ContinuousRange(),
			Ticks: snap.XScale.ChartTicks(l.XTicks),
		},
		YAxis: gochart.YAxis{
			Name:  chart.AxisLabel(dataset.FieldHealthcare),
			Range: snap.YScale.ContinuousRange(),
			Ticks: snap.YScale.ChartTicks(l.YTicks),
		},
		Series: series,
	}
	return ch, true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// drawable rejects domains go-chart refuses to render (non-finite or zero width).
func drawable(d [2]float64) bool { return finite(d[0]) && finite(d[1]) && d[0] != d[1] }

// Image renders snap as a raster image with the field labels drawn under
// the plot, the active one highlighted.
func Image(snap chart.Snapshot) (image.Image, error) {
	ch, ok := buildChart(snap)
	if !ok {
		logging.Warnf("export: no finite marks for %s, rendering blank chart", snap.Field)
		return drawLabels(blank(int(snap.Layout.Width), int(snap.Layout.Height)), snap.Labels), nil
	}
	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return drawLabels(img, snap.Labels), nil
}

// Render writes snap to w in format f.
func Render(w io.Writer, snap chart.Snapshot, f Format) error {
	switch f {
	case PNG:
		img, err := Image(snap)
		if err != nil {
			return err
		}
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("png encode: %w", err)
		}
		return nil
	case SVG:
		ch, ok := buildChart(snap)
		if !ok {
			return writeBlankSVG(w, snap.Layout)
		}
		if err := ch.Render(gochart.SVG, w); err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func writeBlankSVG(w io.Writer, l chart.Layout) error {
	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"></svg>`, int(l.Width), int(l.Height))
	return err
}

const labelStripHeight = 22

// drawLabels draws the selectable field labels in a strip along the bottom
// of img. The active label is drawn dark on a light box, the others grey.
func drawLabels(img image.Image, labels []chart.LabelView) image.Image {
	if img == nil || len(labels) == 0 {
		return img
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)

	face := basicfont.Face7x13
	const gap, pad = 24, 4
	widths := make([]int, len(labels))
	total := 0
	for i, l := range labels {
		widths[i] = (&font.Drawer{Face: face}).MeasureString(l.Text).Ceil()
		total += widths[i]
	}
	total += gap * (len(labels) - 1)

	x := b.Min.X + (b.Dx()-total)/2
	y := b.Max.Y - 8
	active := image.NewUniform(color.RGBA{R: 0, G: 0, B: 0, A: 255})
	inactive := image.NewUniform(color.RGBA{R: 160, G: 160, B: 160, A: 255})
	box := image.NewUniform(color.RGBA{R: 220, G: 228, B: 255, A: 255})
	for i, l := range labels {
		src := inactive
		if l.Active {
			src = active
			rect := image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+widths[i]+pad, y+pad)
			draw.Draw(rgba, rect, box, image.Point{}, draw.Over)
		}
		dr := &font.Drawer{Dst: rgba, Src: src, Face: face, Dot: fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}}
		dr.DrawString(l.Text)
		x += widths[i] + gap
	}
	return rgba
}
