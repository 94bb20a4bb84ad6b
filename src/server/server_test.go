package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iafilius/StateScatter/src/dataset"
)

func testDataset() dataset.Dataset {
	return dataset.Dataset{
		{Abbr: "AL", State: "Alabama", Poverty: 10, Income: 43200, Healthcare: 12},
		{Abbr: "AK", State: "Alaska", Poverty: 20, Income: 70000, Healthcare: 24},
		{Abbr: "XX", Poverty: math.NaN(), Income: 50000, Healthcare: 8},
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(context.Background(), testDataset(), Config{CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postSelect(t *testing.T, base, field string) (int, stateResponse) {
	t.Helper()
	body, _ := json.Marshal(selectRequest{Field: field})
	resp, err := http.Post(base+"/api/v1/select", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST select: %v", err)
	}
	defer resp.Body.Close()
	var st stateResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatalf("decode select: %v", err)
		}
	}
	return resp.StatusCode, st
}

func activeField(st stateResponse) []string {
	var out []string
	for _, l := range st.Labels {
		if l.Active {
			out = append(out, l.Field)
		}
	}
	return out
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	var body map[string]any
	if code := getJSON(t, ts.URL+"/health", &body); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", code, body)
	}
}

func TestSelectRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	var st stateResponse
	getJSON(t, ts.URL+"/api/v1/state", &st)
	if st.SelectedX != "poverty" || *st.XDomain[0] != 8 || *st.XDomain[1] != 24 {
		t.Fatalf("initial state = %+v", st)
	}
	y0 := *st.YDomain[1]

	code, st := postSelect(t, ts.URL, "income")
	if code != http.StatusOK || st.SelectedX != "income" || st.Changed == nil || !*st.Changed {
		t.Fatalf("select income = %d %+v", code, st)
	}
	if got := activeField(st); len(got) != 1 || got[0] != "income" {
		t.Fatalf("active labels = %v", got)
	}
	if *st.YDomain[1] != y0 {
		t.Fatalf("y domain changed to %v", *st.YDomain[1])
	}

	code, st = postSelect(t, ts.URL, "income")
	if code != http.StatusOK || *st.Changed {
		t.Fatalf("reselect income = %d changed=%v", code, *st.Changed)
	}

	code, st = postSelect(t, ts.URL, "poverty")
	if code != http.StatusOK || *st.XDomain[0] != 8 || *st.XDomain[1] != 24 {
		t.Fatalf("back to poverty = %d %+v", code, st)
	}
}

func TestSelectUnknownField(t *testing.T) {
	_, ts := newTestServer(t)
	for _, f := range []string{"age", "healthcare", ""} {
		if code, _ := postSelect(t, ts.URL, f); code != http.StatusBadRequest {
			t.Fatalf("select %q = %d want 400", f, code)
		}
	}
	resp, err := http.Post(ts.URL+"/api/v1/select", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body = %d", resp.StatusCode)
	}
}

func TestPointsAndTooltip(t *testing.T) {
	_, ts := newTestServer(t)
	var pts []pointResponse
	if code := getJSON(t, ts.URL+"/api/v1/points", &pts); code != http.StatusOK {
		t.Fatalf("points = %d", code)
	}
	if len(pts) != 3 || pts[0].Abbr != "AL" || pts[0].Tooltip != "AL<br>Poverty (%): 10" {
		t.Fatalf("points = %+v", pts)
	}
	if pts[2].CX != nil {
		t.Fatalf("NaN position should encode as null, got %v", *pts[2].CX)
	}

	postSelect(t, ts.URL, "income")
	var tip tooltipResponse
	if code := getJSON(t, ts.URL+"/api/v1/points/0/tooltip", &tip); code != http.StatusOK {
		t.Fatalf("tooltip = %d", code)
	}
	if tip.HTML != "AL<br>Annual Income ($) 43200" {
		t.Fatalf("tooltip html = %q", tip.HTML)
	}
	if code := getJSON(t, ts.URL+"/api/v1/points/9/tooltip", nil); code != http.StatusNotFound {
		t.Fatalf("out of range tooltip = %d", code)
	}
}

func TestChartImageCached(t *testing.T) {
	_, ts := newTestServer(t)
	fetch := func(path string) (*http.Response, []byte) {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return resp, buf.Bytes()
	}
	resp, b := fetch("/api/v1/chart.png")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" || resp.Header.Get("X-Cache") != "MISS" {
		t.Fatalf("first png = %d %v", resp.StatusCode, resp.Header)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil || img.Bounds().Dx() != 850 {
		t.Fatalf("png decode: %v", err)
	}
	resp, _ = fetch("/api/v1/chart.png")
	if resp.Header.Get("X-Cache") != "HIT" {
		t.Fatalf("second png not cached")
	}
	resp, _ = fetch("/api/v1/chart.svg?field=income")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("svg = %d %v", resp.StatusCode, resp.Header)
	}
	if resp, _ = fetch("/api/v1/chart.gif"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("gif = %d", resp.StatusCode)
	}
	if resp, _ = fetch("/api/v1/chart.png?field=age"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field chart = %d", resp.StatusCode)
	}
}

func TestPage(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	body := buf.String()
	if !strings.Contains(body, `class="label active" data-value="poverty"`) || !strings.Contains(body, "Annual Income ($)") {
		t.Fatalf("page body missing labels:\n%s", body)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SCATTER_ADDR", ":9999")
	t.Setenv("SCATTER_CACHE_TTL", "30")
	t.Setenv("SCATTER_CORS_ORIGINS", "http://a.example, http://b.example")
	cfg, err := LoadConfig([]string{"-data", "x.csv"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.DataSource != "x.csv" || cfg.CacheTTL != 30*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
	if _, err := LoadConfig([]string{"-nope"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("SCATTER_TEST_VALUE=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCATTER_TEST_VALUE", "")
	os.Unsetenv("SCATTER_TEST_VALUE")
	got, err := LoadEnv(filepath.Join(dir, "missing.env"), p)
	if err != nil || got != p {
		t.Fatalf("LoadEnv = %q, %v", got, err)
	}
	if v := os.Getenv("SCATTER_TEST_VALUE"); v != "from-file" {
		t.Fatalf("env value = %q", v)
	}
	if got, err := LoadEnv(filepath.Join(dir, "none")); got != "" || err != nil {
		t.Fatalf("LoadEnv(none) = %q, %v", got, err)
	}
}
