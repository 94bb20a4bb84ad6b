package scene

import (
	"math"
	"time"
)

// tween is one animated scalar attribute.
type tween struct {
	from, to float64
	start    time.Time
	dur      time.Duration
}

func still(v float64) tween { return tween{from: v, to: v} }

// at samples the tween at now with cubic in-out easing.
func (t tween) at(now time.Time) float64 {
	if t.dur <= 0 || t.from == t.to || math.IsNaN(t.from) || math.IsNaN(t.to) {
		return t.to
	}
	p := float64(now.Sub(t.start)) / float64(t.dur)
	switch {
	case p <= 0:
		return t.from
	case p >= 1:
		return t.to
	}
	return t.from + (t.to-t.from)*easeCubicInOut(p)
}

func (t tween) done(now time.Time) bool {
	return t.dur <= 0 || !now.Before(t.start.Add(t.dur))
}

// retarget starts a new tween from wherever t currently is.
func (t tween) retarget(now time.Time, to float64, d time.Duration) tween {
	from := t.at(now)
	if math.IsNaN(from) {
		// Nothing sensible to interpolate from; jump.
		return still(to)
	}
	return tween{from: from, to: to, start: now, dur: d}
}

// freeze stops the tween at its current value.
func (t tween) freeze(now time.Time) tween { return still(t.at(now)) }

func easeCubicInOut(p float64) float64 {
	p *= 2
	if p <= 1 {
		return p * p * p / 2
	}
	p -= 2
	return (p*p*p + 2) / 2
}
