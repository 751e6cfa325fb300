// Package voicefactory builds a concrete, renderable Voice from a scheduled
// pattern event plus whatever sample PCM the registry has resolved for it.
// Settings resolve in layers: a per-event value falls back to the sample's
// own default, which falls back to the synth default.
package voicefactory

import (
	"fmt"
	"math"

	"github.com/schollz/collidertracker/internal/dsp"
	"github.com/schollz/collidertracker/internal/pattern"
	"github.com/schollz/collidertracker/internal/sampleregistry"
	"github.com/schollz/collidertracker/internal/scheduler"
)

// synth-default ADSR, used when neither the pattern event nor (for sample
// voices) the sample itself specifies one.
var defaultADSR = pattern.ADSR{Attack: 0.005, Decay: 0.08, Sustain: 0.8, Release: 0.15}

// filterStage is one resolved filter in a voice's chain: the biquad/formant
// instance plus its control-rate modulation parameters (once per block, the
// cutoff is set to base*(1+depth*env) from the envelope at block start).
type filterStage struct {
	biquad      *dsp.Biquad
	formant     *dsp.FormantBank
	baseCutoff  float64
	resonance   float64
	envDepth    float64
}

// Voice is a fully resolved, renderable instance of one scheduled pattern
// event: either an oscillator voice or a sample-playback voice, with its
// ADSR, filter chain, and optional modulation stages built and ready.
type Voice struct {
	ID         scheduler.VoiceID
	Orbit      int
	Cut        *int
	Gain       float64
	Pan        float64
	DelaySend  float64
	ReverbSend float64
	SampleRate float64

	IsSample bool

	// Oscillator path.
	Osc    *dsp.Oscillator
	FreqHz float64

	// Sample path.
	Sample      *sampleregistry.Sample
	PlayPos     float64 // fractional frame index into Sample.Frames
	PlayRate    float64 // frames advanced per output sample
	LoopBegin   int
	LoopEnd     int
	Loop        bool

	Envelope *dsp.Envelope
	GateEnd  int64 // absolute sample frame the note releases at
	EndFrame int64 // absolute sample frame the voice is fully silent and reapable

	Filters []filterStage

	CrushBits  float64
	Coarse     *dsp.SampleHold
	DistortAmt float64

	Vibrato      *dsp.LFO
	VibratoDepth float64
	PitchEnv     *dsp.PitchEnvelope
	AccelAmount  float64
	FM           *dsp.FMOperator

	Phaser       *dsp.Phaser
	Tremolo      *dsp.LFO
	TremoloDepth float64
	DuckAmount   float64
	Compressor   *dsp.Compressor

	startSamp int64
}

// New resolves sv into a renderable Voice. cursorFrame is the absolute
// sample frame at which the voice is being activated (used to compute the
// voice's gate/end frames from its VoiceData). It requires a Complete
// sample in registry for sample-path voices; a missing/NotFound sample is
// reported as an error so the caller can drop the voice silently without
// disturbing other voices.
func New(sv scheduler.ScheduledVoice, cursorFrame int64, sampleRate float64, gateFrames int64, registry *sampleregistry.Registry) (*Voice, error) {
	d := sv.Data
	v := &Voice{
		ID:         sv.ID,
		Orbit:      d.Orbit,
		Cut:        d.Cut,
		SampleRate: sampleRate,
		startSamp:  sv.StartSamp,
	}
	if d.Gain != nil {
		v.Gain = *d.Gain
	} else {
		v.Gain = 1
	}
	if d.Pan != nil {
		v.Pan = *d.Pan
	}
	if d.Delay != nil {
		v.DelaySend = *d.Delay
	}
	if d.Reverb != nil {
		v.ReverbSend = *d.Reverb
	}

	adsr := defaultADSR
	var sample *sampleregistry.Sample
	if d.Sound != "" && !IsSynthSound(d.Sound) {
		key := sampleKey(d)
		s, ok := registry.Get(key)
		if !ok || s.State == sampleregistry.NotFound {
			return nil, fmt.Errorf("voicefactory: sample %q not found", key)
		}
		if s.State != sampleregistry.Complete {
			return nil, fmt.Errorf("voicefactory: sample %q not yet complete", key)
		}
		sample = &s
		v.IsSample = true
		v.Sample = sample
	}
	if d.ADSR != nil {
		adsr = *d.ADSR
	}

	legato := 1.0
	if d.Legato != nil {
		legato = clamp(*d.Legato, 0, 1)
	}
	gateLen := int64(math.Round(float64(gateFrames) * legato))
	if gateLen < 1 {
		gateLen = 1
	}
	v.GateEnd = cursorFrame + gateLen
	v.EndFrame = v.GateEnd + int64(adsr.Release*sampleRate) + 1
	v.Envelope = dsp.NewEnvelope(sampleRate, adsr.Attack, adsr.Decay, adsr.Sustain, adsr.Release)

	if v.IsSample {
		if err := resolveSampleVoice(v, d, sample, sampleRate); err != nil {
			return nil, err
		}
	} else {
		resolveOscillatorVoice(v, d, sampleRate)
	}

	v.Filters = resolveFilters(d, sampleRate)
	if d.Crush != nil {
		v.CrushBits = *d.Crush
	}
	if d.Coarse != nil {
		v.Coarse = &dsp.SampleHold{Factor: *d.Coarse}
	}
	if d.Distort != nil {
		v.DistortAmt = *d.Distort
	}
	if d.Vibrato != nil {
		v.Vibrato = dsp.NewLFO(d.Vibrato.Rate, sampleRate)
		v.VibratoDepth = d.Vibrato.Depth
	}
	if d.PitchEnv != nil {
		v.PitchEnv = &dsp.PitchEnvelope{SampleRate: sampleRate, Anchor: d.PitchEnv.Anchor, Attack: d.PitchEnv.Attack, Decay: d.PitchEnv.Decay}
	}
	if d.Accel != nil {
		v.AccelAmount = *d.Accel
	}
	if d.FM != nil {
		v.FM = dsp.NewFMOperator(sampleRate, d.FM.Ratio, d.FM.Index)
	}
	if d.Phaser != nil {
		v.Phaser = dsp.NewPhaser(sampleRate, 4, d.Phaser.Rate, d.Phaser.Depth)
	}
	if d.Tremolo != nil {
		v.Tremolo = dsp.NewLFO(d.Tremolo.Rate, sampleRate)
		v.TremoloDepth = d.Tremolo.Depth
	}
	if d.Duck != nil {
		v.DuckAmount = *d.Duck
	}
	if d.Compress != nil {
		v.Compressor = &dsp.Compressor{
			Threshold: d.Compress.Threshold, Ratio: d.Compress.Ratio,
			Attack: d.Compress.Attack, Release: d.Compress.Release, SampleRate: sampleRate,
		}
	}
	return v, nil
}

// sampleKey renders the (bank, index) identity a registry request was keyed
// by, matching the format the engine's lazy RequestSample feedback uses.
func sampleKey(d pattern.VoiceData) string {
	idx := 0
	if d.Index != nil {
		idx = *d.Index
	}
	return fmt.Sprintf("%s:%d", d.Sound, idx)
}

// synthWaveforms maps the sound names the DSL reserves for the built-in
// oscillators; any other sound name is a sample-bank lookup.
var synthWaveforms = map[string]dsp.Waveform{
	"":         dsp.WaveSine,
	"sine":     dsp.WaveSine,
	"saw":      dsp.WaveSaw,
	"sawtooth": dsp.WaveSaw,
	"tri":      dsp.WaveTriangle,
	"triangle": dsp.WaveTriangle,
	"square":   dsp.WaveSquare,
	"pulse":    dsp.WaveSquare,
	"supersaw": dsp.WaveSupersaw,
	"white":    dsp.WaveNoiseWhite,
	"pink":     dsp.WaveNoisePink,
	"brown":    dsp.WaveNoiseBrown,
}

// IsSynthSound reports whether name selects a built-in oscillator waveform
// rather than a sample bank.
func IsSynthSound(name string) bool {
	_, ok := synthWaveforms[name]
	return ok
}

func resolveOscillatorVoice(v *Voice, d pattern.VoiceData, sampleRate float64) {
	v.FreqHz = resolveFreq(d)
	wave := synthWaveforms[d.Sound]
	v.Osc = dsp.NewOscillator(wave, sampleRate)
}

// resolveFreq resolves a note/scale or explicit FreqHz into Hz, middle C
// (note 60) at 261.6256 Hz per the standard 12-TET MIDI mapping.
func resolveFreq(d pattern.VoiceData) float64 {
	if d.FreqHz != nil {
		return *d.FreqHz
	}
	if d.Note != nil {
		return 261.6256 * math.Pow(2, (*d.Note-60)/12)
	}
	return 261.6256
}

// resolveSampleVoice computes playback rate as
// (sampleRate/targetSampleRate) * pitchRatio * userSpeed, clamped to +/-5
// octaves, and the start/loop positions from Begin/End/Loop.
func resolveSampleVoice(v *Voice, d pattern.VoiceData, sample *sampleregistry.Sample, engineRate float64) error {
	if len(sample.Frames) == 0 {
		return fmt.Errorf("voicefactory: sample %q has no frames", d.Sound)
	}
	pitchRatio := 1.0
	if d.Note != nil {
		if sample.PitchHz > 0 && sample.Note != 0 {
			// A tuned sample plays at unity for its anchor note; other
			// notes shift relative to that anchor.
			pitchRatio = math.Pow(2, (*d.Note-sample.Note)/12)
		} else {
			pitchRatio = math.Pow(2, *d.Note/12)
		}
	}
	userSpeed := 1.0
	if d.FreqHz != nil && *d.FreqHz > 0 {
		userSpeed = *d.FreqHz
	}
	srcRate := float64(sample.SampleRate)
	if srcRate <= 0 {
		srcRate = engineRate
	}
	rate := (srcRate / engineRate) * pitchRatio * userSpeed
	const maxOctaves = 5
	minRate, maxRate := math.Pow(2, -maxOctaves), math.Pow(2, maxOctaves)
	if rate > maxRate {
		rate = maxRate
	} else if rate < minRate && rate > -minRate {
		if rate >= 0 {
			rate = minRate
		} else {
			rate = -minRate
		}
	} else if rate < -maxRate {
		rate = -maxRate
	}
	v.PlayRate = rate

	n := len(sample.Frames)
	begin, end := 0.0, 1.0
	if d.Begin != nil {
		begin = clamp(*d.Begin, 0, 1)
	}
	if d.End != nil {
		end = clamp(*d.End, 0, 1)
	}
	v.LoopBegin = int(begin * float64(n))
	v.LoopEnd = int(end * float64(n))
	if v.LoopEnd <= v.LoopBegin {
		v.LoopEnd = n
	}
	v.PlayPos = float64(v.LoopBegin)
	v.Loop = d.Loop
	return nil
}

func resolveFilters(d pattern.VoiceData, sampleRate float64) []filterStage {
	stages := make([]filterStage, 0, len(d.Filters))
	for _, fd := range d.Filters {
		var fs filterStage
		fs.baseCutoff = fd.Cutoff
		fs.resonance = fd.Resonance
		fs.envDepth = fd.EnvDepth
		switch fd.Kind {
		case pattern.FilterFormant:
			fs.formant = dsp.NewFormantBank(sampleRate, int(fd.Cutoff), fd.Resonance)
		default:
			fs.biquad = dsp.NewBiquad(toDSPKind(fd.Kind), sampleRate)
			fs.biquad.SetParams(fd.Cutoff, fd.Resonance)
		}
		stages = append(stages, fs)
	}
	return stages
}

func toDSPKind(k pattern.FilterKind) dsp.FilterKind {
	switch k {
	case pattern.FilterHighPass:
		return dsp.HighPass
	case pattern.FilterBandPass:
		return dsp.BandPass
	case pattern.FilterNotch:
		return dsp.Notch
	default:
		return dsp.LowPass
	}
}

// UpdateFilterCutoffs re-evaluates each filter stage's envelope-modulated
// cutoff at block rate — once per block, not per sample. Formant stages are
// static; EnvDepth only applies to biquads.
func (v *Voice) UpdateFilterCutoffs(envLevel float64) {
	for i := range v.Filters {
		fs := &v.Filters[i]
		if fs.biquad == nil || fs.envDepth == 0 {
			continue
		}
		cutoff := fs.baseCutoff * (1 + fs.envDepth*envLevel)
		fs.biquad.SetParams(cutoff, fs.resonance)
	}
}

// Processors returns the voice's filter chain as the generic processors the
// dsp render pipeline expects.
func (v *Voice) Processors() []dsp.FilterProcessor {
	procs := make([]dsp.FilterProcessor, len(v.Filters))
	for i, fs := range v.Filters {
		if fs.formant != nil {
			procs[i] = fs.formant
		} else {
			procs[i] = fs.biquad
		}
	}
	return procs
}

// StartFrame returns the absolute sample frame this voice was scheduled to
// begin at; the driver skips frames before it when the voice starts
// mid-block.
func (v *Voice) StartFrame() int64 { return v.startSamp }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
