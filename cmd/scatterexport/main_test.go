package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = "id,state,abbr,poverty,income,healthcare\n" +
	"1,Alabama,AL,19.3,42830,13.9\n" +
	"2,Alaska,AK,11.2,71583,15\n"

func writeSample(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRun_WritesPNG(t *testing.T) {
	data := writeSample(t)
	out := filepath.Join(t.TempDir(), "chart.png")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-data", data, "-field", "income", "-out", out, "-log-level", "error"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 850 || b.Dy() != 500 {
		t.Fatalf("size %dx%d", b.Dx(), b.Dy())
	}
	if !strings.Contains(stdout.String(), "States: 2") || !strings.Contains(stdout.String(), "Annual Income ($)") {
		t.Fatalf("summary = %q", stdout.String())
	}
}

func TestRun_SVGFromExtension(t *testing.T) {
	data := writeSample(t)
	out := filepath.Join(t.TempDir(), "chart.svg")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-data", data, "-out", out, "-log-level", "error"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	b, err := os.ReadFile(out)
	if err != nil || !bytes.Contains(b, []byte("<svg")) {
		t.Fatalf("svg output: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	data := writeSample(t)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad field", []string{"-data", data, "-field", "healthcare"}, 2},
		{"bad format", []string{"-data", data, "-format", "gif"}, 2},
		{"bad level", []string{"-data", data, "-log-level", "loud"}, 2},
		{"missing data", []string{"-data", filepath.Join(t.TempDir(), "nope.csv"), "-log-level", "error"}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tc.args, &stdout, &stderr); code != tc.code {
				t.Fatalf("exit %d want %d (%s)", code, tc.code, stderr.String())
			}
		})
	}
}
