// Package scale maps numeric data domains onto pixel ranges.
package scale

import (
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
)

// Linear is a continuous linear scale. The zero value maps everything to 0.
// Range may be inverted (y-axis: pixel rows grow downward).
type Linear struct {
	Domain [2]float64
	Range  [2]float64
}

// NewLinear builds a scale from domain [d0,d1] to range [r0,r1].
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{Domain: [2]float64{d0, d1}, Range: [2]float64{r0, r1}}
}

// Apply maps v from the domain to the range. Values outside the domain are
// extrapolated; NaN stays NaN. A zero-width domain maps to the range midpoint.
func (s Linear) Apply(v float64) float64 {
	d0, d1 := s.Domain[0], s.Domain[1]
	r0, r1 := s.Range[0], s.Range[1]
	if d1 == d0 {
		return (r0 + r1) / 2
	}
	t := (v - d0) / (d1 - d0)
	return r0 + t*(r1-r0)
}

// Invert maps a pixel position back to a domain value.
func (s Linear) Invert(px float64) float64 {
	d0, d1 := s.Domain[0], s.Domain[1]
	r0, r1 := s.Range[0], s.Range[1]
	if r1 == r0 {
		return (d0 + d1) / 2
	}
	t := (px - r0) / (r1 - r0)
	return d0 + t*(d1-d0)
}

// Equal reports bit-for-bit equality of domain and range.
func (s Linear) Equal(o Linear) bool {
	return s.Domain == o.Domain && s.Range == o.Range
}

// IsValid reports whether domain and range are finite.
func (s Linear) IsValid() bool {
	for _, v := range []float64{s.Domain[0], s.Domain[1], s.Range[0], s.Range[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Ticks returns roughly n tick values inside the domain, on a 1/2/2.5/5·10^k grid.
func (s Linear) Ticks(n int) []float64 {
	lo, hi := s.Domain[0], s.Domain[1]
	if hi < lo {
		lo, hi = hi, lo
	}
	if n < 2 || !s.IsValid() {
		return nil
	}
	if hi == lo {
		return []float64{round6(lo)}
	}
	step := tickStep(hi-lo, n)
	start := math.Ceil(lo/step) * step
	var out []float64
	for i := 0; ; i++ {
		v := start + float64(i)*step
		if v > hi+step*1e-9 {
			break
		}
		out = append(out, round6(v))
		if i > 4*n { // guard against pathological float steps
			break
		}
	}
	return out
}

// tickStep picks the candidate step whose tick count is closest to n.
func tickStep(span float64, n int) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	best := mag
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Floor(span/step) + 1
		score := math.Abs(count - float64(n))
		if score < bestScore {
			bestScore = score
			best = step
		}
	}
	return best
}

// round6 stabilises tick values against float accumulation (0.30000000000000004).
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// FormatTick renders a tick label compactly: integers without decimals,
// small magnitudes with up to two.
func FormatTick(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	av := math.Abs(v)
	switch {
	case av >= 100:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case av >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

// ContinuousRange adapts the domain to go-chart's axis range type.
func (s Linear) ContinuousRange() *chart.ContinuousRange {
	lo, hi := s.Domain[0], s.Domain[1]
	if hi < lo {
		lo, hi = hi, lo
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// ChartTicks returns n ticks as go-chart ticks with FormatTick labels.
func (s Linear) ChartTicks(n int) []chart.Tick {
	vals := s.Ticks(n)
	out := make([]chart.Tick, 0, len(vals))
	for _, v := range vals {
		out = append(out, chart.Tick{Value: v, Label: FormatTick(v)})
	}
	return out
}
