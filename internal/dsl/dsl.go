// Package dsl is the programmatic constructor surface a mini-notation parser
// or embeddable scripting host builds patterns through. It wraps
// internal/pattern's combinator algebra with named, VoiceData-aware
// constructors instead of exposing bare Pattern values.
package dsl

import (
	"fmt"
	"runtime"

	"github.com/schollz/collidertracker/internal/pattern"
	"github.com/schollz/collidertracker/internal/rational"
)

// Re-exported core combinators: a caller building patterns only needs to
// import internal/dsl, not internal/pattern directly.
var (
	Silence = pattern.Silence
)

func Stack(children ...pattern.Pattern) pattern.Pattern { return pattern.Stack(children...) }
func Sequence(children ...pattern.Pattern) pattern.Pattern {
	return stamp(pattern.Sequence(children...))
}
func FastCat(children ...pattern.Pattern) pattern.Pattern { return Sequence(children...) }
func Alternate(children ...pattern.Pattern) pattern.Pattern {
	return stamp(pattern.Alternate(children...))
}
func Fast(child pattern.Pattern, k float64) pattern.Pattern {
	return pattern.Fast(child, nonZeroFactor(k, "fast"))
}
func Slow(child pattern.Pattern, k float64) pattern.Pattern {
	return pattern.Slow(child, nonZeroFactor(k, "slow"))
}
func Early(child pattern.Pattern, delta float64) pattern.Pattern {
	return pattern.Early(child, rational.FromFloat(delta))
}
func Late(child pattern.Pattern, delta float64) pattern.Pattern {
	return pattern.Late(child, rational.FromFloat(delta))
}
func Hurry(child pattern.Pattern, k float64) pattern.Pattern {
	return Gain(pattern.Hurry(child, nonZeroFactor(k, "hurry")), k)
}

// nonZeroFactor converts a scale factor to a rational, panicking at build
// time on zero — its inverse is infinite, which would poison every queried
// span with NaN times instead of producing a pattern. Construction happens
// off the audio thread, so this panics like NoteAtom does on a bad token;
// callers needing a recoverable check can test the factor themselves.
func nonZeroFactor(k float64, name string) rational.Rational {
	if k == 0 {
		panic(fmt.Errorf("dsl: %s factor must be non-zero", name))
	}
	return rational.FromFloat(k)
}
func Rev(child pattern.Pattern) pattern.Pattern { return pattern.Rev(child) }
func Euclid(child pattern.Pattern, k, n, rotation int) pattern.Pattern {
	return stamp(pattern.Euclid(child, k, n, rotation))
}
func Struct(mask, source pattern.Pattern) pattern.Pattern { return pattern.Struct(mask, source) }
func Mask(source, maskPat pattern.Pattern) pattern.Pattern { return pattern.Mask(source, maskPat) }
func Pick(indexPat pattern.Pattern, options []pattern.Pattern) pattern.Pattern {
	return pattern.Pick(indexPat, options)
}
func Bind(outer pattern.Pattern) pattern.Pattern       { return pattern.Bind(outer) }
func SqueezeBind(outer pattern.Pattern) pattern.Pattern { return pattern.SqueezeBind(outer) }
func Range(child pattern.Pattern, lo, hi float64) pattern.Pattern {
	return pattern.Range(child, lo, hi)
}
func Segment(child pattern.Pattern, n int) pattern.Pattern { return pattern.Segment(child, n) }
func Sine() pattern.Pattern                                { return pattern.Sine() }
func Saw() pattern.Pattern                                  { return pattern.Saw() }
func Perlin() pattern.Pattern                               { return pattern.Perlin() }
func Rand() pattern.Pattern                                 { return pattern.Rand() }

// Atom builds a single-cycle pattern carrying s as its sound name, the
// common case of a bare word in mini-notation ("bd", a sample name). Every
// word, "~" included, becomes a sound event; a rest is Silence.
func Atom(sound string) pattern.Pattern {
	var d pattern.VoiceData
	d.Sound = sound
	d.Value = pattern.StrValue(sound)
	return stamp(pattern.Pure(d))
}

// stamp records the caller's source location on the pattern's Meta field
// for error messages. It's a breadcrumb only: it never affects Query
// results, equality, or DSP, and introduces no dependency since the
// standard library's runtime package already provides everything needed.
func stamp(p pattern.Pattern) pattern.Pattern {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return p
	}
	return pattern.MapData(p, func(d pattern.VoiceData) pattern.VoiceData {
		if d.Meta == (pattern.SourceLocation{}) {
			d.Meta = pattern.SourceLocation{File: file, Line: line}
		}
		return d
	})
}

// attachControl zips a VoiceData setter's value from ctrl onto source via an
// inner join: for every source event, ctrl is queried over that event's
// part and each overlapping control value is applied, clipped to the
// intersection. This is what makes a setter's argument pattern-valued
// instead of scalar-only; it generalizes internal/pattern's Bind to work on
// an arbitrary field instead of replacing the whole Value.
func attachControl(source, ctrl pattern.Pattern, apply func(d pattern.VoiceData, v pattern.Value) pattern.VoiceData) pattern.Pattern {
	return pattern.Func(func(from, to rational.Rational, ctx pattern.QueryContext) []pattern.Event {
		srcEvents := source.Query(from, to, ctx)
		var out []pattern.Event
		for _, se := range srcEvents {
			ctrlEvents := ctrl.Query(se.Part.Begin, se.Part.End, ctx)
			for _, ce := range ctrlEvents {
				clipped, ok := se.Part.ClipTo(ce.Part)
				if !ok {
					continue
				}
				out = append(out, se.WithData(apply(se.Data, ce.Data.Value)).WithPart(clipped))
			}
		}
		return out
	})
}
