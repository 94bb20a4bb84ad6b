// Package dataset loads the per-state poverty / income / healthcare table.
//
// Rows are never rejected: numeric columns are coerced the way a browser
// coerces text to a number (blank is 0, garbage is NaN), so a malformed row
// flows through to the scales as NaN. Only an unreadable resource or a
// table without the required columns is an error.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iafilius/StateScatter/src/logging"
)

// DefaultSource is the CSV location used when no path is configured.
const DefaultSource = "assets/data/data.csv"

// Field names a numeric column of the dataset.
type Field string

const (
	FieldPoverty    Field = "poverty"
	FieldIncome     Field = "income"
	FieldHealthcare Field = "healthcare"
)

// SelectableX lists the fields that can drive the x-axis, in label order.
var SelectableX = []Field{FieldPoverty, FieldIncome}

// ParseField maps a label value (case-insensitive) to a Field.
func ParseField(s string) (Field, bool) {
	switch Field(strings.ToLower(strings.TrimSpace(s))) {
	case FieldPoverty:
		return FieldPoverty, true
	case FieldIncome:
		return FieldIncome, true
	case FieldHealthcare:
		return FieldHealthcare, true
	}
	return "", false
}

// IsSelectableX reports whether f may be bound to the x-axis.
func (f Field) IsSelectableX() bool {
	return f == FieldPoverty || f == FieldIncome
}

// DataPoint is one state row.
type DataPoint struct {
	ID         string
	State      string
	Abbr       string
	Poverty    float64
	Income     float64
	Healthcare float64
}

// Value returns the numeric value of field f (NaN for an unknown field).
func (p DataPoint) Value(f Field) float64 {
	switch f {
	case FieldPoverty:
		return p.Poverty
	case FieldIncome:
		return p.Income
	case FieldHealthcare:
		return p.Healthcare
	}
	return math.NaN()
}

// Dataset is the ordered, read-only table.
type Dataset []DataPoint

// Extent returns min and max of field f. NaN values are skipped; when no
// value is finite both results are NaN.
func (d Dataset) Extent(f Field) (float64, float64) {
	min, max := math.NaN(), math.NaN()
	for _, p := range d {
		v := p.Value(f)
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return min, max
}

// Values returns field f for every point, in dataset order.
func (d Dataset) Values(f Field) []float64 {
	out := make([]float64, len(d))
	for i, p := range d {
		out[i] = p.Value(f)
	}
	return out
}

// LoadError reports why the dataset could not be loaded.
type LoadError struct {
	Source string
	Stage  string // open, fetch, header, read
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s stage: %v", e.Source, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrMissingColumn is wrapped by a header-stage LoadError.
var ErrMissingColumn = errors.New("missing required column")

var requiredColumns = []string{"abbr", "poverty", "income", "healthcare"}

// fetchTimeout bounds a remote fetch including the body transfer.
var fetchTimeout = 30 * time.Second

// LoadDataset reads the CSV at source, a file path or an http(s) URL.
func LoadDataset(ctx context.Context, source string) (Dataset, error) {
	defer logging.TimeTrack(time.Now(), "load "+source)
	rc, err := open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	ds, err := Parse(rc)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = source
		}
		return nil, err
	}
	logging.Infof("loaded %d rows from %s", len(ds), source)
	return ds, nil
}

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, &LoadError{Source: source, Stage: "open", Err: err}
		}
		return f, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, &LoadError{Source: source, Stage: "fetch", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "text/csv, */*")
	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: source, Stage: "fetch", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &LoadError{Source: source, Stage: "fetch", Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}
	return resp.Body, nil
}

// Parse reads a CSV table with a header row. Column names are matched
// case-insensitively; extra columns are ignored.
func Parse(r io.Reader) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			err = errors.New("empty input")
		}
		return nil, &LoadError{Stage: "header", Err: err}
	}
	headerMap := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := headerMap[h]; !dup {
			headerMap[h] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := headerMap[c]; !ok {
			return nil, &LoadError{Stage: "header", Err: fmt.Errorf("%w: %s", ErrMissingColumn, c)}
		}
	}
	cell := func(row []string, name string) string {
		if idx, ok := headerMap[name]; ok && idx < len(row) {
			return row[idx]
		}
		return ""
	}

	var ds Dataset
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Stage: "read", Err: err}
		}
		p := DataPoint{
			ID:         strings.TrimSpace(cell(row, "id")),
			State:      strings.TrimSpace(cell(row, "state")),
			Abbr:       strings.TrimSpace(cell(row, "abbr")),
			Poverty:    Coerce(cell(row, "poverty")),
			Income:     Coerce(cell(row, "income")),
			Healthcare: Coerce(cell(row, "healthcare")),
		}
		if math.IsNaN(p.Poverty) || math.IsNaN(p.Income) || math.IsNaN(p.Healthcare) {
			logging.Debugf("line %d (%s): non-numeric value kept as NaN", line, p.Abbr)
		}
		ds = append(ds, p)
	}
	return ds, nil
}

// Coerce converts CSV text to a number: surrounding space is ignored, blank
// text is 0, anything unparsable is NaN.
func Coerce(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// ParseFloat reports out-of-range values as ±Inf with an error; keep them.
		var ne *strconv.NumError
		if errors.As(err, &ne) && ne.Err == strconv.ErrRange {
			return v
		}
		return math.NaN()
	}
	return v
}
