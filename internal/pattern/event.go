package pattern

import "github.com/schollz/collidertracker/internal/rational"

// ADSR holds the four envelope stage parameters, each in seconds except
// Sustain which is a 0..1 level. A nil *ADSR on VoiceData means "unset";
// resolution to a concrete envelope happens in the voice factory.
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// FilterDef describes one filter stage in a VoiceData's filter chain.
type FilterDef struct {
	Kind      FilterKind
	Cutoff    float64 // Hz
	Resonance float64 // Q, 0..1 normalized
	EnvDepth  float64 // control-rate envelope modulation depth, 0 = static
}

// FilterKind enumerates the filter types the DSP pipeline can build.
type FilterKind int

const (
	FilterLowPass FilterKind = iota
	FilterHighPass
	FilterBandPass
	FilterNotch
	FilterFormant
)

// SourceLocation is a breadcrumb recorded by the DSL surface at pattern
// construction time, carried purely for diagnostics. It never affects
// equality, hashing, or DSP and is not copied by data transforms that
// replace it explicitly.
type SourceLocation struct {
	File string
	Line int
	Col  int
}

// Value is the computed numeric/textual/boolean/sub-pattern payload a
// control-pattern combinator reads and writes. Exactly one field should be
// set at a time; SubPattern is populated when a VoiceData participates in
// pattern-of-patterns flattening (see Bind/SqueezeBind in combinators.go).
type Value struct {
	Num        float64
	Str        string
	Bool       bool
	SubPattern Pattern
	HasNum     bool
	HasStr     bool
	HasBool    bool
	HasSub     bool
}

// NumValue builds a Value carrying a float.
func NumValue(n float64) Value { return Value{Num: n, HasNum: true} }

// StrValue builds a Value carrying a string.
func StrValue(s string) Value { return Value{Str: s, HasStr: true} }

// VoiceData is the open record of musical/DSP attributes an Event carries.
// All fields are optional; a zero value never implies a meaningful default —
// resolution of defaults happens downstream in the voice factory.
type VoiceData struct {
	Note     *float64 // semitone offset from middle C, or absolute note number
	FreqHz   *float64
	Scale    string
	Sound    string // sample bank/name
	Index    *int   // sample index within the bank
	Gain     *float64
	Pan      *float64
	Orbit    int
	Cut      *int
	ADSR     *ADSR
	Filters  []FilterDef
	Delay    *float64 // send amount 0..1
	Reverb   *float64 // send amount 0..1
	Crush    *float64 // effective bit depth
	Coarse   *int     // sample-rate reduction factor
	Distort  *float64 // drive amount
	Vibrato  *Vibrato
	PitchEnv *PitchEnvelope
	Accel    *float64 // exponential pitch acceleration over the gate, 2^(accel*progress)
	FM       *FMParams
	Phaser   *PhaserParams
	Tremolo  *TremoloParams
	Duck     *float64 // sidechain ducking amount, 0..1
	Compress *CompressorParams
	Legato   *float64
	Begin    *float64 // sample slice start, 0..1
	End      *float64 // sample slice end, 0..1
	Loop     bool

	Value Value
	Meta  SourceLocation
}

// Clone returns a shallow copy of d; pointer fields are copied by reference
// since VoiceData is treated as immutable after emission.
func (d VoiceData) Clone() VoiceData { return d }

// Vibrato describes an LFO applied to pitch.
type Vibrato struct {
	Rate  float64 // Hz
	Depth float64 // fraction of a semitone
}

// PitchEnvelope describes attack/decay pitch-sweep shaping, expressed as a
// ratio relative to the note's base frequency (1.0 = no offset).
type PitchEnvelope struct {
	Anchor float64
	Attack float64 // seconds
	Decay  float64 // seconds
}

// FMParams describes a single FM modulator operator: ratio to the carrier's
// base frequency and modulation index.
type FMParams struct {
	Ratio float64
	Index float64
}

// PhaserParams describes a cascaded all-pass phaser's LFO rate and wet depth.
type PhaserParams struct {
	Rate  float64 // Hz
	Depth float64 // 0..1
}

// TremoloParams describes an amplitude LFO's rate and depth.
type TremoloParams struct {
	Rate  float64 // Hz
	Depth float64 // 0..1
}

// CompressorParams describes a feed-forward peak compressor.
type CompressorParams struct {
	Threshold float64
	Ratio     float64
	Attack    float64 // seconds
	Release   float64 // seconds
}

// Event is the atomic unit a Pattern query produces.
type Event struct {
	Part  TimeSpan
	Whole *TimeSpan // nil for continuous signals with no onset
	Data  VoiceData
}

// HasOnset reports whether this event is visible at the very start of its
// whole span — the only events the scheduler promotes for playback.
func (e Event) HasOnset() bool {
	return e.Whole != nil && e.Whole.Begin.Equal(e.Part.Begin)
}

// WithPart returns a copy of e with Part replaced; Whole and Data are
// unchanged, matching the clipping-never-touches-whole invariant.
func (e Event) WithPart(part TimeSpan) Event {
	e.Part = part
	return e
}

// WithWhole returns a copy of e with Whole replaced.
func (e Event) WithWhole(whole *TimeSpan) Event {
	e.Whole = whole
	return e
}

// WithData returns a copy of e with Data replaced; temporal fields are
// copied verbatim, matching the data-transform invariant.
func (e Event) WithData(d VoiceData) Event {
	e.Data = d
	return e
}

// Shift translates Part and, if present, Whole by delta.
func (e Event) Shift(delta rational.Rational) Event {
	e.Part = e.Part.Shift(delta)
	if e.Whole != nil {
		w := e.Whole.Shift(delta)
		e.Whole = &w
	}
	return e
}

// Scale multiplies Part and, if present, Whole by k.
func (e Event) Scale(k rational.Rational) Event {
	e.Part = e.Part.Scale(k)
	if e.Whole != nil {
		w := e.Whole.Scale(k)
		e.Whole = &w
	}
	return e
}
