package pattern

import "github.com/schollz/collidertracker/internal/rational"

// MapData transforms only an event's VoiceData, leaving Part and Whole
// copied verbatim — the "data transform" category shared by every
// attribute setter in the DSL surface (gain, note, sound, adsr, filters...).
func MapData(child Pattern, f func(VoiceData) VoiceData) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		events := child.Query(from, to, ctx)
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e.WithData(f(e.Data))
		}
		return out
	})
}

// Range rescales a numeric-valued pattern from its native [0, 1] domain
// (as produced by Sine/Saw/Perlin/Rand) into [lo, hi].
func Range(child Pattern, lo, hi float64) Pattern {
	return MapData(child, func(d VoiceData) VoiceData {
		if d.Value.HasNum {
			d.Value = NumValue(lo + d.Value.Num*(hi-lo))
		}
		return d
	})
}

// Rev reverses the position of events within each cycle: an event that
// occupied [s, e) within a cycle starting at c now occupies
// [c + (c+1-e), c + (c+1-s)).
func Rev(child Pattern) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		var out []Event
		for _, cycleArc := range (TimeSpan{Begin: from, End: to}).CycleArcs() {
			c := rational.FromInt(cycleArc.Begin.Floor())
			next := c.Add(rational.One)
			reflect := func(t rational.Rational) rational.Rational { return c.Add(next).Sub(t) }
			queryS := reflect(cycleArc.End)
			queryE := reflect(cycleArc.Begin)
			events := child.Query(queryS, queryE, ctx)
			for _, e := range events {
				newPart := TimeSpan{Begin: reflect(e.Part.End), End: reflect(e.Part.Begin)}
				ne := e.WithPart(newPart)
				if e.Whole != nil {
					nw := TimeSpan{Begin: reflect(e.Whole.End), End: reflect(e.Whole.Begin)}
					ne = ne.WithWhole(&nw)
				}
				out = append(out, ne)
			}
		}
		return out
	})
}

// Segment samples child (typically a continuous signal) into n discrete
// per-cycle steps, giving each step an onset — the mechanism that turns a
// continuous signal into a triggerable control pattern.
func Segment(child Pattern, n int) Pattern {
	if n <= 0 {
		return Silence
	}
	return Struct(Euclid(Pure(VoiceData{}), n, n, 0), child)
}
