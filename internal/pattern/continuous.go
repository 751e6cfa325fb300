package pattern

import (
	"math"

	"github.com/schollz/collidertracker/internal/rational"
)

// Sine is a continuous signal oscillating in [0, 1] once per cycle.
func Sine() Pattern {
	return Signal(func(pos float64) Value {
		return NumValue((math.Sin(2*math.Pi*pos) + 1) / 2)
	})
}

// Saw is a continuous ramp from 0 to 1 once per cycle.
func Saw() Pattern {
	return Signal(func(pos float64) Value { return NumValue(pos) })
}

// Isoramp is a continuous ramp from 1 down to 0 once per cycle.
func Isoramp() Pattern {
	return Signal(func(pos float64) Value { return NumValue(1 - pos) })
}

// Perlin is a continuous, deterministic pseudo-noise signal in [0, 1],
// seeded from the query context rather than a global generator so repeated
// queries of the same arc reproduce identically (per spec: "splittable PRNG
// seeded per-cycle").
func Perlin() Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		part := TimeSpan{Begin: from, End: to}
		cycle := from.Floor()
		seed := seedForCycle(ctx, cycle, 0xA5A5A5A5)
		rng := newSplitmix64(seed)
		pos := from.Frac().Float64()
		// Smooth-interpolate between two deterministic lattice values so the
		// signal is continuous within a cycle, not just per-cycle noise.
		a := rng.Float64()
		b := newSplitmix64(seed + 1).Float64()
		t := smoothstep(pos)
		v := a + (b-a)*t
		var data VoiceData
		data.Value = NumValue(v)
		return []Event{{Part: part, Whole: nil, Data: data}}
	})
}

func smoothstep(t float64) float64 { return t * t * (3 - 2*t) }

// Rand emits a deterministic per-cycle random value in [0, 1).
func Rand() Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		part := TimeSpan{Begin: from, End: to}
		cycle := from.Floor()
		seed := seedForCycle(ctx, cycle, 0x1234567)
		v := newSplitmix64(seed).Float64()
		var data VoiceData
		data.Value = NumValue(v)
		return []Event{{Part: part, Whole: nil, Data: data}}
	})
}
