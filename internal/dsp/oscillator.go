// Package dsp implements the per-voice render pipeline: oscillator/sample
// playback, pre-filters, the main filter chain, the VCA envelope,
// post-filters, and equal-power panning into an orbit's buffers.
package dsp

import "math"

// Waveform enumerates the built-in oscillator waveforms.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveTriangle
	WaveSquare
	WaveSupersaw
	WaveNoiseWhite
	WaveNoisePink
	WaveNoiseBrown
)

// Oscillator generates one waveform from a running phase in [0, 1),
// filling a buffer at a time.
type Oscillator struct {
	Wave       Waveform
	SampleRate float64
	Detune     float64 // supersaw: semitone spread between the 7 sub-oscillators
	phase      float64
	subPhase   [7]float64 // supersaw sub-oscillator phases
	noiseState uint32     // LCG state for white noise
	pinkState  [7]float64 // Paul Kellet pink-noise filter bank state
	brownState float64
}

// NewOscillator builds an Oscillator of the given waveform at sampleRate.
func NewOscillator(wave Waveform, sampleRate float64) *Oscillator {
	return &Oscillator{Wave: wave, SampleRate: sampleRate, Detune: 0.11, noiseState: 0x2545F491}
}

// Reset zeroes the oscillator's phase, used when a voice retriggers.
func (o *Oscillator) Reset() {
	o.phase = 0
	for i := range o.subPhase {
		o.subPhase[i] = 0
	}
}

// Process fills buf with length samples at the given base frequency,
// modulated per-sample by pitchMod (a multiplier, 1.0 = no modulation; pass
// nil for no modulation). The phase is kept on the oscillator, so the caller
// need not track generator state across blocks itself.
func (o *Oscillator) Process(buf []float32, freqHz float64, pitchMod []float64) {
	for i := range buf {
		f := freqHz
		if pitchMod != nil && i < len(pitchMod) {
			f *= pitchMod[i]
		}
		inc := f / o.SampleRate
		buf[i] = float32(o.sample(f, inc))
		o.phase += inc
		if o.phase >= 1 {
			o.phase -= math.Floor(o.phase)
		}
	}
}

func (o *Oscillator) sample(freq, inc float64) float64 {
	switch o.Wave {
	case WaveSine:
		return math.Sin(2 * math.Pi * o.phase)
	case WaveSaw:
		return 2*o.phase - 1
	case WaveTriangle:
		if o.phase < 0.5 {
			return 4*o.phase - 1
		}
		return 3 - 4*o.phase
	case WaveSquare:
		if o.phase < 0.5 {
			return 1
		}
		return -1
	case WaveSupersaw:
		return o.supersaw(freq, inc)
	case WaveNoiseWhite:
		return o.whiteNoise()
	case WaveNoisePink:
		return o.pinkNoise()
	case WaveNoiseBrown:
		return o.brownNoise()
	default:
		return 0
	}
}

// supersaw sums 7 detuned sawtooth sub-oscillators, the classic
// detune+spread unison patch.
func (o *Oscillator) supersaw(freq, inc float64) float64 {
	const voices = 7
	spread := []float64{-1, -0.667, -0.333, 0, 0.333, 0.667, 1}
	sum := 0.0
	for i := 0; i < voices; i++ {
		detuneRatio := math.Pow(2, spread[i]*o.Detune/12)
		subInc := inc * detuneRatio
		o.subPhase[i] += subInc
		if o.subPhase[i] >= 1 {
			o.subPhase[i] -= math.Floor(o.subPhase[i])
		}
		sum += 2*o.subPhase[i] - 1
	}
	return sum / voices
}

func (o *Oscillator) whiteNoise() float64 {
	o.noiseState = o.noiseState*1664525 + 1013904223
	return float64(int32(o.noiseState))/float64(1<<31)
}

// pinkNoise applies the Paul Kellet one-pole cascade to white noise, a
// standard -3dB/octave approximation cheap enough for per-sample use.
func (o *Oscillator) pinkNoise() float64 {
	white := o.whiteNoise()
	o.pinkState[0] = 0.99886*o.pinkState[0] + white*0.0555179
	o.pinkState[1] = 0.99332*o.pinkState[1] + white*0.0750759
	o.pinkState[2] = 0.96900*o.pinkState[2] + white*0.1538520
	o.pinkState[3] = 0.86650*o.pinkState[3] + white*0.3104856
	o.pinkState[4] = 0.55000*o.pinkState[4] + white*0.5329522
	o.pinkState[5] = -0.7616*o.pinkState[5] - white*0.0168980
	sum := o.pinkState[0] + o.pinkState[1] + o.pinkState[2] + o.pinkState[3] +
		o.pinkState[4] + o.pinkState[5] + white*0.5362
	return sum * 0.11
}

// brownNoise integrates white noise with leak, giving the random-walk
// "brown" (red) spectrum.
func (o *Oscillator) brownNoise() float64 {
	white := o.whiteNoise()
	o.brownState += white * 0.02
	if o.brownState > 1 {
		o.brownState = 1
	} else if o.brownState < -1 {
		o.brownState = -1
	}
	return o.brownState
}
