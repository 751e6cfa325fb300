package dsl

import (
	"github.com/schollz/collidertracker/internal/pattern"
)

func setFloatPtr(dst **float64, v float64) { f := v; *dst = &f }
func setIntPtr(dst **int, v int)           { n := v; *dst = &n }

// Note sets a constant semitone/note-number offset on every event.
func Note(source pattern.Pattern, n float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Note, n)
		return d
	})
}

// NoteP sets a patterned note value, sampled once per source event from ctrl.
func NoteP(source, ctrl pattern.Pattern) pattern.Pattern {
	return attachControl(source, ctrl, func(d pattern.VoiceData, v pattern.Value) pattern.VoiceData {
		if v.HasNum {
			setFloatPtr(&d.Note, v.Num)
		}
		return d
	})
}

// Sound sets the sample bank/synth name.
func Sound(source pattern.Pattern, name string) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.Sound = name
		return d
	})
}

// Index sets the sample index within Sound's bank.
func Index(source pattern.Pattern, i int) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setIntPtr(&d.Index, i)
		return d
	})
}

// Gain sets a constant linear gain multiplier.
func Gain(source pattern.Pattern, g float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Gain, g)
		return d
	})
}

// GainP sets a patterned gain multiplier.
func GainP(source, ctrl pattern.Pattern) pattern.Pattern {
	return attachControl(source, ctrl, func(d pattern.VoiceData, v pattern.Value) pattern.VoiceData {
		if v.HasNum {
			setFloatPtr(&d.Gain, v.Num)
		}
		return d
	})
}

// Pan sets stereo position in [-1, 1].
func Pan(source pattern.Pattern, p float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Pan, p)
		return d
	})
}

// Orbit routes the event to the given orbit/bus index.
func Orbit(source pattern.Pattern, n int) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.Orbit = n
		return d
	})
}

// Cut assigns a cut-group id: voices sharing a group hard-stop each other.
func Cut(source pattern.Pattern, group int) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setIntPtr(&d.Cut, group)
		return d
	})
}

// ADSR sets the envelope stage parameters.
func ADSR(source pattern.Pattern, attack, decay, sustain, release float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.ADSR = &pattern.ADSR{Attack: attack, Decay: decay, Sustain: sustain, Release: release}
		return d
	})
}

func addFilter(source pattern.Pattern, kind pattern.FilterKind, cutoff, resonance, envDepth float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		filters := make([]pattern.FilterDef, len(d.Filters), len(d.Filters)+1)
		copy(filters, d.Filters)
		d.Filters = append(filters, pattern.FilterDef{Kind: kind, Cutoff: cutoff, Resonance: resonance, EnvDepth: envDepth})
		return d
	})
}

// LPF appends a low-pass filter stage.
func LPF(source pattern.Pattern, cutoff, resonance float64) pattern.Pattern {
	return addFilter(source, pattern.FilterLowPass, cutoff, resonance, 0)
}

// LPFEnv appends a low-pass filter stage whose cutoff is modulated at
// control rate by the voice's envelope, scaled by envDepth.
func LPFEnv(source pattern.Pattern, cutoff, resonance, envDepth float64) pattern.Pattern {
	return addFilter(source, pattern.FilterLowPass, cutoff, resonance, envDepth)
}

// HPF appends a high-pass filter stage.
func HPF(source pattern.Pattern, cutoff, resonance float64) pattern.Pattern {
	return addFilter(source, pattern.FilterHighPass, cutoff, resonance, 0)
}

// BPF appends a band-pass filter stage.
func BPF(source pattern.Pattern, cutoff, resonance float64) pattern.Pattern {
	return addFilter(source, pattern.FilterBandPass, cutoff, resonance, 0)
}

// Notch appends a notch filter stage.
func Notch(source pattern.Pattern, cutoff, resonance float64) pattern.Pattern {
	return addFilter(source, pattern.FilterNotch, cutoff, resonance, 0)
}

// Formant appends a formant filter stage.
func Formant(source pattern.Pattern, cutoff, resonance float64) pattern.Pattern {
	return addFilter(source, pattern.FilterFormant, cutoff, resonance, 0)
}

// Delay sets the delay-send amount, 0..1.
func Delay(source pattern.Pattern, amount float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Delay, amount)
		return d
	})
}

// Reverb sets the reverb-send amount, 0..1.
func Reverb(source pattern.Pattern, amount float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Reverb, amount)
		return d
	})
}

// Crush sets effective bit depth for bitcrush distortion.
func Crush(source pattern.Pattern, bits float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Crush, bits)
		return d
	})
}

// Coarse sets the sample-rate reduction factor.
func Coarse(source pattern.Pattern, factor int) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setIntPtr(&d.Coarse, factor)
		return d
	})
}

// Distort sets drive amount for waveshaping distortion.
func Distort(source pattern.Pattern, amount float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Distort, amount)
		return d
	})
}

// Vibrato sets pitch-LFO rate (Hz) and depth (fraction of a semitone).
func Vibrato(source pattern.Pattern, rate, depth float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.Vibrato = &pattern.Vibrato{Rate: rate, Depth: depth}
		return d
	})
}

// PitchEnv sets an attack/decay pitch-sweep envelope relative to the note's
// base frequency.
func PitchEnv(source pattern.Pattern, anchor, attack, decay float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.PitchEnv = &pattern.PitchEnvelope{Anchor: anchor, Attack: attack, Decay: decay}
		return d
	})
}

// Legato sets the fraction of an event's whole duration the voice actually
// sounds for, 0..1 (1 = full duration, drone-style).
func Legato(source pattern.Pattern, fraction float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Legato, fraction)
		return d
	})
}

// Begin sets the sample playback start point, 0..1.
func Begin(source pattern.Pattern, point float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Begin, point)
		return d
	})
}

// End sets the sample playback end point, 0..1.
func End(source pattern.Pattern, point float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.End, point)
		return d
	})
}

// Loop marks the sample as looping between Begin and End.
func Loop(source pattern.Pattern, loop bool) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.Loop = loop
		return d
	})
}

// FM attaches an FM modulator operator (ratio relative to carrier, index).
func FM(source pattern.Pattern, ratio, index float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.FM = &pattern.FMParams{Ratio: ratio, Index: index}
		return d
	})
}

// PhaserFX attaches a cascaded all-pass phaser (rate in Hz, wet depth 0..1).
func PhaserFX(source pattern.Pattern, rate, depth float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.Phaser = &pattern.PhaserParams{Rate: rate, Depth: depth}
		return d
	})
}

// TremoloFX attaches an amplitude LFO (rate in Hz, depth 0..1).
func TremoloFX(source pattern.Pattern, rate, depth float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.Tremolo = &pattern.TremoloParams{Rate: rate, Depth: depth}
		return d
	})
}

// Accel sets an exponential pitch-acceleration amount applied over the
// voice's gate duration: multiplier = 2^(accel * progress).
func Accel(source pattern.Pattern, amount float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Accel, amount)
		return d
	})
}

// Duck sets a static sidechain-ducking amount, 0..1.
func Duck(source pattern.Pattern, amount float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		setFloatPtr(&d.Duck, amount)
		return d
	})
}

// CompressorFX attaches a feed-forward peak compressor.
func CompressorFX(source pattern.Pattern, threshold, ratio, attack, release float64) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		d.Compress = &pattern.CompressorParams{Threshold: threshold, Ratio: ratio, Attack: attack, Release: release}
		return d
	})
}

// Scale quantizes every event's Note field (if set) onto the named scale
// rooted at scaleRoot, using the scale tables in internal/modulation.
func Scale(source pattern.Pattern, scaleName string, scaleRoot int) pattern.Pattern {
	return pattern.MapData(source, func(d pattern.VoiceData) pattern.VoiceData {
		if d.Note != nil {
			q := QuantizeToScale(*d.Note, scaleName, scaleRoot)
			d.Note = &q
		}
		d.Scale = scaleName
		return d
	})
}
