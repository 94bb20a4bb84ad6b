package export

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/iafilius/StateScatter/src/chart"
	"github.com/iafilius/StateScatter/src/dataset"
)

func sampleSnapshot(t *testing.T, ds dataset.Dataset, f dataset.Field) chart.Snapshot {
	t.Helper()
	c := chart.NewController(ds, nil, chart.DefaultLayout())
	snap, err := c.SnapshotFor(f)
	if err != nil {
		t.Fatalf("SnapshotFor(%s): %v", f, err)
	}
	return snap
}

func states() dataset.Dataset {
	return dataset.Dataset{
		{Abbr: "AL", Poverty: 19.3, Income: 42830, Healthcare: 13.9},
		{Abbr: "AK", Poverty: 11.2, Income: 70898, Healthcare: 15},
		{Abbr: "AZ", Poverty: 18.2, Income: 49254, Healthcare: 14.4},
	}
}

func TestRenderPNG_Dimensions(t *testing.T) {
	for _, f := range dataset.SelectableX {
		var buf bytes.Buffer
		if err := Render(&buf, sampleSnapshot(t, states(), f), PNG); err != nil {
			t.Fatalf("Render(%s): %v", f, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 850 || b.Dy() != 500 {
			t.Fatalf("%s: image size %dx%d want 850x500", f, b.Dx(), b.Dy())
		}
	}
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleSnapshot(t, states(), dataset.FieldIncome), SVG); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "Annual Income") {
		t.Fatalf("unexpected svg output: %.200s", out)
	}
}

func TestRender_NoFiniteMarksFallsBackToBlank(t *testing.T) {
	ds := dataset.Dataset{{Abbr: "XX", Poverty: math.NaN(), Healthcare: math.NaN()}}
	snap := sampleSnapshot(t, ds, dataset.FieldPoverty)
	var buf bytes.Buffer
	if err := Render(&buf, snap, PNG); err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 850 {
		t.Fatalf("blank width = %d", img.Bounds().Dx())
	}
	buf.Reset()
	if err := Render(&buf, snap, SVG); err != nil || !strings.HasPrefix(buf.String(), "<svg") {
		t.Fatalf("blank svg = %q, %v", buf.String(), err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"png", PNG, false},
		{".SVG", SVG, false},
		{" Png ", PNG, false},
		{"gif", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if tc.err {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Fatalf("ParseFormat(%q) err = %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
	if err := Render(&bytes.Buffer{}, chart.Snapshot{}, Format("gif")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Render(gif) err = %v", err)
	}
}

func TestMarkColorAppliesOpacity(t *testing.T) {
	c := markColor(chart.DefaultLayout())
	if c.B != 255 || c.A != 128 {
		t.Fatalf("mark color = %+v", c)
	}
}
