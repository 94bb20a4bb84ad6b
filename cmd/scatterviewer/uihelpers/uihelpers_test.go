package uihelpers

import (
	"image/color"
	"math"
	"strings"
	"testing"
)

func TestComputeWindowSize(t *testing.T) {
	w, h := ComputeWindowSize(850, 500)
	if w != 874 || h != 548 {
		t.Fatalf("window size %vx%v", w, h)
	}
	w, h = ComputeWindowSize(100, 100)
	if w != 640 || h != 420 {
		t.Fatalf("clamp violated: %vx%v", w, h)
	}
}

func TestLerp(t *testing.T) {
	cases := []struct {
		a, b float64
		p    float32
		want float64
	}{
		{0, 100, 0, 0},
		{0, 100, 0.25, 25},
		{0, 100, 1, 100},
		{0, 100, 1.5, 100},
		{math.NaN(), 7, 0.5, 7},
	}
	for _, c := range cases {
		if got := Lerp(c.a, c.b, c.p); got != c.want {
			t.Fatalf("Lerp(%v,%v,%v)=%v want %v", c.a, c.b, c.p, got, c.want)
		}
	}
}

func TestScreenPos(t *testing.T) {
	if got := ScreenPos(10, 100); got != 110 {
		t.Fatalf("ScreenPos = %v", got)
	}
	if got := ScreenPos(math.NaN(), 100); got != OffScreen {
		t.Fatalf("NaN should be parked off screen, got %v", got)
	}
}

func TestTooltipPosition_Clamped(t *testing.T) {
	// Plenty of room: right and above.
	x, y := TooltipPosition(100, 100, 50, 20, 800, 600)
	if x != 108 || y != 72 {
		t.Fatalf("free placement = %v,%v", x, y)
	}
	// Right edge: flips left of anchor.
	x, _ = TooltipPosition(780, 100, 50, 20, 800, 600)
	if x != 722 {
		t.Fatalf("right edge x = %v", x)
	}
	// Top edge: drops below anchor.
	_, y = TooltipPosition(100, 10, 50, 20, 800, 600)
	if y != 18 {
		t.Fatalf("top edge y = %v", y)
	}
}

func TestTooltipLines(t *testing.T) {
	got := TooltipLines("AL<br>Poverty (%): 19.3")
	if len(got) != 2 || got[0] != "AL" || got[1] != "Poverty (%): 19.3" {
		t.Fatalf("lines = %q", got)
	}
	if got := TooltipLines("AK<br/><br />x"); len(got) != 2 {
		t.Fatalf("lines = %q", got)
	}
}

func TestLabelAndMarkColor(t *testing.T) {
	if LabelColor(true) == LabelColor(false) {
		t.Fatalf("active and inactive labels must differ")
	}
	c := MarkColor(color.NRGBA{B: 255, A: 255}, 0.5)
	if c.A != 128 || c.B != 255 {
		t.Fatalf("mark color = %+v", c)
	}
}

func TestTruncatePath(t *testing.T) {
	if got := TruncatePath("assets/data/data.csv", 60); got != "assets/data/data.csv" {
		t.Fatalf("short path changed: %q", got)
	}
	got := TruncatePath("/very/long/directory/structure/for/the/data/data.csv", 30)
	if !strings.HasSuffix(got, "/...data.csv") || len(got) > 30 {
		t.Fatalf("truncated = %q", got)
	}
	if got := TruncatePath("/a/averyveryverylongfilename.csv", 10); got != "...averyveryverylongfilename.csv" {
		t.Fatalf("long base = %q", got)
	}
}
