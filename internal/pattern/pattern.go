package pattern

import "github.com/schollz/collidertracker/internal/rational"

// Pattern is a pure function of time: querying it with the same arc and
// context always yields the same events, with no hidden state carried
// across calls. Every combinator in this package implements Pattern by
// wrapping zero or more child patterns.
type Pattern interface {
	Query(from, to rational.Rational, ctx QueryContext) []Event
}

// Func adapts a plain function to the Pattern interface, the sum-type /
// single-method-vtable dispatch the design calls for instead of deep
// combinator inheritance.
type Func func(from, to rational.Rational, ctx QueryContext) []Event

// Query implements Pattern.
func (f Func) Query(from, to rational.Rational, ctx QueryContext) []Event {
	return f(from, to, ctx)
}

// Silence is the empty pattern: it never produces events.
var Silence Pattern = Func(func(rational.Rational, rational.Rational, QueryContext) []Event {
	return nil
})

// Pure builds an atom pattern: one event per cycle covering exactly that
// cycle, carrying data unchanged across cycles.
func Pure(data VoiceData) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		var events []Event
		for _, arc := range (TimeSpan{Begin: from, End: to}).CycleArcs() {
			cycleStart := rational.FromInt(arc.Begin.Floor())
			cycleEnd := cycleStart.Add(rational.One)
			whole := TimeSpan{Begin: cycleStart, End: cycleEnd}
			part, ok := whole.ClipTo(arc)
			if !ok {
				continue
			}
			events = append(events, Event{Part: part, Whole: &whole, Data: data})
		}
		return events
	})
}

// Signal builds a continuous pattern from a function of cycle-phase
// position (0 = start of a cycle, approaching 1 = end). Continuous patterns
// never have a Whole and are never gated by onset filtering; they exist to
// be sampled by another pattern via query-time evaluation. A signal queried
// over an arc is evaluated at the arc's Begin — see DESIGN.md for the
// discretization decision.
func Signal(f func(cyclePos float64) Value) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		part := TimeSpan{Begin: from, End: to}
		pos := from.Frac().Float64()
		v := f(pos)
		var data VoiceData
		data.Value = v
		return []Event{{Part: part, Whole: nil, Data: data}}
	})
}

// QueryAll is a convenience for querying an exact number of whole cycles
// starting at cycle zero.
func QueryAll(p Pattern, cycles int64, ctx QueryContext) []Event {
	return p.Query(rational.Zero, rational.FromInt(cycles), ctx)
}
