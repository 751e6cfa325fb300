// Package pattern implements the TidalCycles/Strudel-family pattern algebra:
// an immutable tree of query-based combinators over Rational cycle time,
// producing timed Events carrying VoiceData payloads.
package pattern

import "github.com/schollz/collidertracker/internal/rational"

// TimeSpan is a half-open interval [Begin, End) of cycle time, Begin <= End.
type TimeSpan struct {
	Begin rational.Rational
	End   rational.Rational
}

// NewTimeSpan builds a TimeSpan, swapping the arguments if given in reverse
// order so the Begin <= End invariant always holds.
func NewTimeSpan(begin, end rational.Rational) TimeSpan {
	if end.Lt(begin) {
		begin, end = end, begin
	}
	return TimeSpan{Begin: begin, End: end}
}

// Duration returns End - Begin.
func (s TimeSpan) Duration() rational.Rational { return s.End.Sub(s.Begin) }

// Shift translates both endpoints by delta.
func (s TimeSpan) Shift(delta rational.Rational) TimeSpan {
	return TimeSpan{Begin: s.Begin.Add(delta), End: s.End.Add(delta)}
}

// Scale multiplies both endpoints by k.
func (s TimeSpan) Scale(k rational.Rational) TimeSpan {
	return TimeSpan{Begin: s.Begin.Mul(k), End: s.End.Mul(k)}
}

// WithCycle shifts s so that its Begin's cycle (floor) becomes cycle c,
// preserving the offset within the cycle, so a span computed relative to
// cycle zero can be re-anchored onto another cycle.
func (s TimeSpan) WithCycle(c int64) TimeSpan {
	delta := rational.FromInt(c).Sub(rational.FromInt(s.Begin.Floor()))
	return s.Shift(delta)
}

// ClipTo intersects s with other, returning ok=false when they are disjoint.
func (s TimeSpan) ClipTo(other TimeSpan) (TimeSpan, bool) {
	begin := s.Begin.Max(other.Begin)
	end := s.End.Min(other.End)
	if begin.Gt(end) {
		return TimeSpan{}, false
	}
	// Half-open spans that only touch at one end share no point; a
	// zero-width result is kept only when it lies inside a zero-width input.
	if begin.Equal(end) {
		if begin.Equal(s.End) && s.Begin.Lt(s.End) {
			return TimeSpan{}, false
		}
		if begin.Equal(other.End) && other.Begin.Lt(other.End) {
			return TimeSpan{}, false
		}
	}
	return TimeSpan{Begin: begin, End: end}, true
}

// Overlaps reports whether s and other share any point, treating a
// zero-width span as overlapping a half-open arc that contains its Begin.
func (s TimeSpan) Overlaps(other TimeSpan) bool {
	if s.Begin.Equal(s.End) {
		return s.Begin.Gte(other.Begin) && s.Begin.Lt(other.End)
	}
	return s.Begin.Lt(other.End) && s.End.Gt(other.Begin)
}

// CycleArcs splits s into one sub-TimeSpan per cycle it touches, so
// per-cycle combinators (sequence, alternation, euclid) can process one
// cycle at a time and merge results. A query spanning cycles [0,2) yields
// [0,1) and [1,2).
func (s TimeSpan) CycleArcs() []TimeSpan {
	if s.Begin.Equal(s.End) {
		return []TimeSpan{s}
	}
	var arcs []TimeSpan
	cur := s.Begin
	for cur.Lt(s.End) {
		nextCycle := rational.FromInt(cur.Floor() + 1)
		end := nextCycle.Min(s.End)
		arcs = append(arcs, TimeSpan{Begin: cur, End: end})
		cur = end
	}
	return arcs
}
