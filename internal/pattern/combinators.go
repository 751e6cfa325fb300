package pattern

import (
	"math"

	"github.com/schollz/collidertracker/internal/rational"
)

// Stack layers patterns in parallel: every child is queried over the same
// arc and its events pass through unchanged, concatenated.
func Stack(children ...Pattern) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		var out []Event
		for _, c := range children {
			out = append(out, c.Query(from, to, ctx)...)
		}
		return out
	})
}

// focusSpan maps one cycle's worth of child's output onto the absolute span,
// anchoring child's "cycle" at floor(span.Begin). It is the shared primitive
// behind weighted sequencing, euclidean pulse placement and squeeze-join:
// all three need to compress one unit of child pattern into an arbitrary
// sub-arc of outer time without looping.
func focusSpan(child Pattern, span TimeSpan) Pattern {
	width := span.Duration()
	anchor := rational.FromInt(span.Begin.Floor())
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		if width.Sign() <= 0 {
			return nil
		}
		queryArc := TimeSpan{Begin: from, End: to}
		clipped, ok := queryArc.ClipTo(span)
		if !ok {
			return nil
		}
		toChild := func(t rational.Rational) rational.Rational {
			return t.Sub(span.Begin).Div(width).Add(anchor)
		}
		toOuter := func(t rational.Rational) rational.Rational {
			return t.Sub(anchor).Mul(width).Add(span.Begin)
		}
		childEvents := child.Query(toChild(clipped.Begin), toChild(clipped.End), ctx)
		var out []Event
		for _, e := range childEvents {
			newPart := TimeSpan{Begin: toOuter(e.Part.Begin), End: toOuter(e.Part.End)}
			clippedPart, ok := newPart.ClipTo(span)
			if !ok {
				continue
			}
			ne := e.WithPart(clippedPart)
			if e.Whole != nil {
				nw := TimeSpan{Begin: toOuter(e.Whole.Begin), End: toOuter(e.Whole.End)}
				ne = ne.WithWhole(&nw)
			}
			out = append(out, ne)
		}
		return out
	})
}

// Weighted pairs a pattern with its proportional share of a sequence's cycle.
type Weighted struct {
	Pattern Pattern
	Weight  rational.Rational
}

// Equal builds an unweighted (weight 1) sequence entry.
func Equal(p Pattern) Weighted { return Weighted{Pattern: p, Weight: rational.One} }

// WeightedSequence concatenates children end-to-end within each cycle,
// each occupying a width proportional to its weight (duration_i =
// w_i / sum(w)).
func WeightedSequence(items []Weighted) Pattern {
	if len(items) == 0 {
		return Silence
	}
	total := rational.Zero
	for _, it := range items {
		total = total.Add(it.Weight)
	}
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		var out []Event
		for _, cycleArc := range (TimeSpan{Begin: from, End: to}).CycleArcs() {
			c := cycleArc.Begin.Floor()
			cur := rational.Zero
			for _, it := range items {
				w := it.Weight.Div(total)
				s := rational.FromInt(c).Add(cur)
				e := s.Add(w.Mul(rational.One))
				span := TimeSpan{Begin: s, End: e}
				out = append(out, focusSpan(it.Pattern, span).Query(cycleArc.Begin, cycleArc.End, ctx)...)
				cur = cur.Add(w)
			}
		}
		return out
	})
}

// Sequence builds an unweighted sequence ("a b c"): children split a cycle
// into equal slices in order.
func Sequence(children ...Pattern) Pattern {
	items := make([]Weighted, len(children))
	for i, c := range children {
		items[i] = Equal(c)
	}
	return WeightedSequence(items)
}

// FastCat is an alias for Sequence, matching the combinator's name in the
// taxonomy table.
func FastCat(children ...Pattern) Pattern { return Sequence(children...) }

// Alternate builds "<a b c>": one child is chosen per cycle, cycling
// through the list; an empty alternation yields zero events per cycle.
func Alternate(children ...Pattern) Pattern {
	n := int64(len(children))
	if n == 0 {
		return Silence
	}
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		var out []Event
		for _, cycleArc := range (TimeSpan{Begin: from, End: to}).CycleArcs() {
			c := cycleArc.Begin.Floor()
			idx := c % n
			if idx < 0 {
				idx += n
			}
			out = append(out, children[idx].Query(cycleArc.Begin, cycleArc.End, ctx)...)
		}
		return out
	})
}

// scale multiplies the query arc by factor and the result events by 1/factor,
// the shared implementation behind Fast and Slow.
func scale(child Pattern, factor rational.Rational) Pattern {
	inv := rational.One.Div(factor)
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		events := child.Query(from.Mul(factor), to.Mul(factor), ctx)
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e.Scale(inv)
		}
		return out
	})
}

// Fast compresses child by factor k (k cycles of child per one outer cycle).
// k must be non-zero: a zero factor has an infinite inverse and would yield
// NaN event times. Callers validate before constructing — the DSL surface
// rejects a zero factor at build time in dsl.Fast/dsl.Slow/dsl.Hurry.
func Fast(child Pattern, k rational.Rational) Pattern { return scale(child, k) }

// Slow stretches child by factor k (one cycle of child per k outer cycles).
func Slow(child Pattern, k rational.Rational) Pattern { return scale(child, rational.One.Div(k)) }

// shift translates the query arc by -delta and the result events by +delta,
// the shared implementation behind Early and Late.
func shift(child Pattern, delta rational.Rational) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		events := child.Query(from.Sub(delta), to.Sub(delta), ctx)
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e.Shift(delta)
		}
		return out
	})
}

// Early shifts child earlier in time by delta.
func Early(child Pattern, delta rational.Rational) Pattern { return shift(child, delta.Neg()) }

// Late shifts child later in time by delta.
func Late(child Pattern, delta rational.Rational) Pattern { return shift(child, delta) }

// Hurry is fast combined with a gain compensation left to the caller (the
// DSL surface composes Fast with a Gain multiply); the core-algebra half is
// just Fast.
func Hurry(child Pattern, k rational.Rational) Pattern { return Fast(child, k) }

// isActive reports whether an Event's Value should be treated as a "hit" by
// Struct/Mask: explicit false wins, otherwise any event counts as active
// (mirroring how a plain atom used as a boolean mask is always "on", while
// "~"/silence never emits an event to begin with).
func isActive(d VoiceData) bool {
	if d.Value.HasBool {
		return d.Value.Bool
	}
	if d.Value.HasNum {
		return d.Value.Num != 0
	}
	return true
}

// Struct takes event structure (onsets, whole spans) from mask and data
// values from source: for each active mask span, every source event
// overlapping it is clipped to the mask's part and stamped with the mask's
// whole, so only the first such event (whose part begins at the whole's
// begin) carries an onset.
func Struct(mask, source Pattern) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		maskEvents := mask.Query(from, to, ctx)
		var out []Event
		for _, me := range maskEvents {
			if !isActive(me.Data) {
				continue
			}
			srcEvents := source.Query(me.Part.Begin, me.Part.End, ctx)
			for _, se := range srcEvents {
				clipped, ok := se.Part.ClipTo(me.Part)
				if !ok {
					continue
				}
				ne := se.WithPart(clipped)
				if me.Whole != nil {
					w := *me.Whole
					ne = ne.WithWhole(&w)
				} else {
					ne = ne.WithWhole(nil)
				}
				out = append(out, ne)
			}
		}
		return out
	})
}

// Mask clips source's events to the active spans of maskPat, preserving
// source's own whole verbatim (unlike Struct, which takes whole from the
// mask).
func Mask(source, maskPat Pattern) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		srcEvents := source.Query(from, to, ctx)
		maskEvents := maskPat.Query(from, to, ctx)
		var out []Event
		for _, se := range srcEvents {
			for _, me := range maskEvents {
				if !isActive(me.Data) {
					continue
				}
				clipped, ok := se.Part.ClipTo(me.Part)
				if !ok {
					continue
				}
				out = append(out, se.WithPart(clipped))
			}
		}
		return out
	})
}

// Pick selects one of options per outer event of indexPat, using the
// numeric Value rounded and taken modulo len(options); it clips the chosen
// pattern's events to the selector event's part while preserving the chosen
// pattern's own whole, per the "clipping / structural join" contract.
func Pick(indexPat Pattern, options []Pattern) Pattern {
	n := len(options)
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		if n == 0 {
			return nil
		}
		selEvents := indexPat.Query(from, to, ctx)
		var out []Event
		for _, se := range selEvents {
			if !se.Data.Value.HasNum {
				continue
			}
			idx := int(math.Round(se.Data.Value.Num)) % n
			if idx < 0 {
				idx += n
			}
			chosen := options[idx].Query(se.Part.Begin, se.Part.End, ctx)
			for _, ce := range chosen {
				clipped, ok := ce.Part.ClipTo(se.Part)
				if !ok {
					continue
				}
				out = append(out, ce.WithPart(clipped))
			}
		}
		return out
	})
}

// Bind implements the inner join: for each outer event carrying a
// sub-pattern Value, the inner pattern is queried over the outer event's
// part, and the outer data's Value is replaced by the inner event's Value.
// This is the mechanism that makes a DSL function argument pattern-valued
// ("control patterns") instead of scalar-only.
func Bind(outer Pattern) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		outerEvents := outer.Query(from, to, ctx)
		var out []Event
		for _, e := range outerEvents {
			if !e.Data.Value.HasSub {
				out = append(out, e)
				continue
			}
			inner := e.Data.Value.SubPattern
			innerEvents := inner.Query(e.Part.Begin, e.Part.End, ctx)
			for _, ie := range innerEvents {
				clipped, ok := ie.Part.ClipTo(e.Part)
				if !ok {
					continue
				}
				nd := e.Data
				nd.Value = ie.Data.Value
				out = append(out, Event{Part: clipped, Whole: e.Whole, Data: nd})
			}
		}
		return out
	})
}

// SqueezeBind implements the squeeze join: for each outer event, the inner
// pattern is focused onto the outer event's whole span (compressed into it,
// not just queried over its part), and each resulting event merges the
// outer envelope with the inner event's Value.
func SqueezeBind(outer Pattern) Pattern {
	return Func(func(from, to rational.Rational, ctx QueryContext) []Event {
		outerEvents := outer.Query(from, to, ctx)
		var out []Event
		for _, e := range outerEvents {
			if !e.Data.Value.HasSub || e.Whole == nil {
				out = append(out, e)
				continue
			}
			inner := e.Data.Value.SubPattern
			focused := focusSpan(inner, *e.Whole)
			innerEvents := focused.Query(e.Part.Begin, e.Part.End, ctx)
			for _, ie := range innerEvents {
				nd := e.Data
				nd.Value = ie.Data.Value
				out = append(out, Event{Part: ie.Part, Whole: ie.Whole, Data: nd})
			}
		}
		return out
	})
}
