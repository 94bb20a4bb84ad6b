package dataset

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `id,state,abbr,poverty,povertyMoe,income,healthcare
1,Alabama,AL,19.3,0.5,42830,13.9
2,Alaska,AK,11.2,0.9,71583,15
`

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestLoadDataset_File(t *testing.T) {
	ds, err := LoadDataset(context.Background(), writeCSV(t, sampleCSV))
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(ds))
	}
	al := ds[0]
	if al.Abbr != "AL" || al.State != "Alabama" || al.ID != "1" {
		t.Fatalf("unexpected identity fields: %+v", al)
	}
	if al.Poverty != 19.3 || al.Income != 42830 || al.Healthcare != 13.9 {
		t.Fatalf("unexpected numeric fields: %+v", al)
	}
	if ds[1].Healthcare != 15 {
		t.Fatalf("AK healthcare = %v", ds[1].Healthcare)
	}
}

func TestLoadDataset_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/data/data.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	ds, err := LoadDataset(context.Background(), srv.URL+"/assets/data/data.csv")
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if len(ds) != 2 || ds[1].Abbr != "AK" {
		t.Fatalf("unexpected dataset: %+v", ds)
	}

	_, err = LoadDataset(context.Background(), srv.URL+"/missing.csv")
	var le *LoadError
	if !errors.As(err, &le) || le.Stage != "fetch" {
		t.Fatalf("expected fetch LoadError, got %v", err)
	}
}

func TestLoadDataset_Errors(t *testing.T) {
	cases := []struct {
		name  string
		path  func(t *testing.T) string
		stage string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") }, "open"},
		{"empty file", func(t *testing.T) string { return writeCSV(t, "") }, "header"},
		{"missing column", func(t *testing.T) string { return writeCSV(t, "abbr,poverty,income\nAL,1,2\n") }, "header"},
		{"bad quoting", func(t *testing.T) string { return writeCSV(t, "abbr,poverty,income,healthcare\n\"AL,1,2,3\n") }, "read"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.path(t)
			ds, err := LoadDataset(context.Background(), p)
			if ds != nil {
				t.Fatalf("expected no dataset on error, got %d rows", len(ds))
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %T %v", err, err)
			}
			if le.Stage != tc.stage {
				t.Fatalf("stage = %q want %q", le.Stage, tc.stage)
			}
			if le.Source != p {
				t.Fatalf("source = %q want %q", le.Source, p)
			}
		})
	}
}

func TestParse_MissingColumnIsWrapped(t *testing.T) {
	_, err := Parse(strings.NewReader("abbr,poverty,healthcare\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "income") {
		t.Fatalf("error should name the column: %v", err)
	}
}

func TestParse_HeaderCaseAndBOM(t *testing.T) {
	ds, err := Parse(strings.NewReader("\ufeffAbbr, Poverty ,INCOME,Healthcare\nTX,14.9,53035,22.1\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ds) != 1 || ds[0].Abbr != "TX" || ds[0].Income != 53035 {
		t.Fatalf("unexpected parse result: %+v", ds)
	}
}

func TestParse_MalformedRowPropagatesNaN(t *testing.T) {
	ds, err := Parse(strings.NewReader("abbr,poverty,income,healthcare\nXX,n/a,,12\nYY,3\n"))
	if err != nil {
		t.Fatalf("malformed rows must not fail the load: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("expected both rows kept, got %d", len(ds))
	}
	if !math.IsNaN(ds[0].Poverty) {
		t.Fatalf("expected NaN poverty, got %v", ds[0].Poverty)
	}
	if ds[0].Income != 0 {
		t.Fatalf("blank income should coerce to 0, got %v", ds[0].Income)
	}
	// short row: missing cells behave like blanks
	if ds[1].Poverty != 3 || ds[1].Income != 0 || ds[1].Healthcare != 0 {
		t.Fatalf("short row coerced unexpectedly: %+v", ds[1])
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		nan  bool
	}{
		{"12.5", 12.5, false},
		{"  7 ", 7, false},
		{"", 0, false},
		{"-3e2", -300, false},
		{"abc", 0, true},
		{"12%", 0, true},
	}
	for _, c := range cases {
		got := Coerce(c.in)
		if c.nan {
			if !math.IsNaN(got) {
				t.Fatalf("Coerce(%q) = %v, want NaN", c.in, got)
			}
			continue
		}
		if got != c.want {
			t.Fatalf("Coerce(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestExtentSkipsNaN(t *testing.T) {
	ds := Dataset{{Poverty: 10}, {Poverty: math.NaN()}, {Poverty: 20}}
	min, max := ds.Extent(FieldPoverty)
	if min != 10 || max != 20 {
		t.Fatalf("extent = [%v,%v] want [10,20]", min, max)
	}
	min, max = Dataset{}.Extent(FieldIncome)
	if !math.IsNaN(min) || !math.IsNaN(max) {
		t.Fatalf("empty extent should be NaN, got [%v,%v]", min, max)
	}
}

func TestParseField(t *testing.T) {
	if f, ok := ParseField(" Income "); !ok || f != FieldIncome {
		t.Fatalf("ParseField income = %q %v", f, ok)
	}
	if _, ok := ParseField("age"); ok {
		t.Fatalf("age should not parse")
	}
	if FieldHealthcare.IsSelectableX() {
		t.Fatalf("healthcare must not be selectable on x")
	}
}
