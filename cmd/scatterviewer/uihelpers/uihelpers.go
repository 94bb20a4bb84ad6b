package uihelpers

import (
	"image/color"
	"math"
	"path/filepath"
	"strings"
)

// ComputeWindowSize returns the window size for a chart canvas of w x h,
// with room for the menu bar and clamped to a sensible minimum.
func ComputeWindowSize(w, h float64) (float32, float32) {
	ww := float32(w) + 24
	wh := float32(h) + 48
	if ww < 640 {
		ww = 640
	}
	if wh < 420 {
		wh = 420
	}
	return ww, wh
}

// Lerp interpolates between a and b by p in [0,1]. NaN endpoints jump to b.
func Lerp(a, b float64, p float32) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return b
	}
	if p <= 0 {
		return a
	}
	if p >= 1 {
		return b
	}
	return a + (b-a)*float64(p)
}

// OffScreen is where hidden canvas objects are parked.
const OffScreen = -1000

// ScreenPos maps a plot-group coordinate to canvas pixels. Non-finite
// values are parked off screen so a malformed row is simply not visible.
func ScreenPos(v, offset float64) float32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return OffScreen
	}
	return float32(offset + v)
}

// TooltipPosition places a tw x th box 8px right and above the anchor,
// clamped inside a viewW x viewH area.
func TooltipPosition(anchorX, anchorY, tw, th, viewW, viewH float32) (float32, float32) {
	x, y := anchorX+8, anchorY-th-8
	if x+tw > viewW {
		x = anchorX - tw - 8
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = anchorY + 8
	}
	if y+th > viewH {
		y = viewH - th
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

// TooltipLines splits tooltip html on <br> into plain text lines.
func TooltipLines(html string) []string {
	r := strings.NewReplacer("<br/>", "<br>", "<br />", "<br>", "<BR>", "<br>")
	parts := strings.Split(r.Replace(html), "<br>")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LabelColor is the text color of a field label.
func LabelColor(active bool) color.Color {
	if active {
		return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	}
	return color.NRGBA{R: 150, G: 150, B: 150, A: 255}
}

// MarkColor applies opacity to the mark fill.
func MarkColor(fill color.NRGBA, opacity float64) color.NRGBA {
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	fill.A = uint8(math.Round(float64(fill.A) * opacity))
	return fill
}

// TruncatePath shortens p to about n characters, keeping the file name.
func TruncatePath(p string, n int) string {
	if len(p) <= n {
		return p
	}
	base := filepath.Base(p)
	if len(base)+4 >= n {
		return "..." + base
	}
	dir := filepath.Dir(p)
	left := n - len(base) - 4
	if len(dir) > left {
		dir = dir[:left]
	}
	return dir + "/..." + base
}
