// Package chart owns the scatter chart lifecycle: scales, the selected
// x field, and the render/update cycle against a drawing Surface.
//
// Dependency direction: chart -> dataset, scale. Surfaces (scene, the fyne
// viewer) import chart, never the other way round.
package chart

import (
	"image/color"
	"time"

	"github.com/iafilius/StateScatter/src/dataset"
)

// Margin around the plot area, in pixels.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Layout holds the fixed geometry and mark styling of the chart.
type Layout struct {
	Width, Height float64
	Margin        Margin
	Radius        float64
	Fill          color.NRGBA
	Opacity       float64
	// Duration of every axis / position transition.
	Duration time.Duration
	// XTicks and YTicks are the desired tick counts.
	XTicks, YTicks int
}

// DefaultLayout is an 850x500 canvas with a 710x370 plot area.
func DefaultLayout() Layout {
	return Layout{
		Width:    850,
		Height:   500,
		Margin:   Margin{Top: 50, Right: 40, Bottom: 80, Left: 100},
		Radius:   20,
		Fill:     color.NRGBA{R: 0, G: 0, B: 255, A: 255},
		Opacity:  0.5,
		Duration: 1000 * time.Millisecond,
		XTicks:   10,
		YTicks:   10,
	}
}

// PlotWidth is the width of the plot group (x range upper bound).
func (l Layout) PlotWidth() float64 { return l.Width - l.Margin.Left - l.Margin.Right }

// PlotHeight is the height of the plot group (y range lower pixel bound).
func (l Layout) PlotHeight() float64 { return l.Height - l.Margin.Top - l.Margin.Bottom }

// Point is a position in plot-group coordinates.
type Point struct{ X, Y float64 }

// LabelsOrigin is where the field label group is anchored (centered under the x-axis).
func (l Layout) LabelsOrigin() Point {
	return Point{X: l.PlotWidth() / 2, Y: l.PlotHeight() + 20}
}

// AxisLabel is the clickable caption text for a selectable x field.
func AxisLabel(f dataset.Field) string {
	switch f {
	case dataset.FieldPoverty:
		return "In Poverty (%)"
	case dataset.FieldIncome:
		return "Annual Income ($)"
	case dataset.FieldHealthcare:
		return "Lacks Healthcare (%)"
	}
	return string(f)
}
