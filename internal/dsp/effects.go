package dsp

import "math"

// Crush quantizes a sample to an effective bit depth, a destructive
// pre-filter stage.
func Crush(x float64, bits float64) float64 {
	if bits <= 0 || bits >= 24 {
		return x
	}
	levels := math.Pow(2, bits)
	return math.Round(x*levels) / levels
}

// SampleHold reduces effective sample rate by holding the last output for
// `factor` input samples, the "sample-rate reducer" pre-filter stage.
// hold/counter are caller-owned state advanced one call per input sample.
type SampleHold struct {
	Factor  int
	counter int
	held    float64
}

// Process advances the hold-and-output reducer by one sample.
func (s *SampleHold) Process(x float64) float64 {
	if s.Factor <= 1 {
		return x
	}
	if s.counter == 0 {
		s.held = x
	}
	s.counter++
	if s.counter >= s.Factor {
		s.counter = 0
	}
	return s.held
}

// Distort applies tanh waveshaping with the given drive amount (>= 0).
func Distort(x, drive float64) float64 {
	if drive <= 0 {
		return x
	}
	k := 1 + drive*9
	return math.Tanh(x * k)
}

// LFO is a simple sine low-frequency oscillator driving vibrato, tremolo and
// phaser modulation, distinct from the audio-rate Oscillator type since it
// always runs at a musical rate and never needs the full waveform set.
type LFO struct {
	Rate       float64
	SampleRate float64
	phase      float64
}

// NewLFO builds an LFO at the given rate (Hz).
func NewLFO(rate, sampleRate float64) *LFO { return &LFO{Rate: rate, SampleRate: sampleRate} }

// Next advances the LFO by one sample and returns sin(phase) in [-1, 1].
func (l *LFO) Next() float64 {
	v := math.Sin(2 * math.Pi * l.phase)
	l.phase += l.Rate / l.SampleRate
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
	}
	return v
}

// Tremolo applies an amplitude LFO: output = x * (1 - depth*(1-lfo)/2).
func Tremolo(x float64, lfoValue, depth float64) float64 {
	mod := 1 - depth*(1-lfoValue)/2
	return x * mod
}

// Phaser is a cascade of first-order all-pass stages with an LFO-modulated
// center frequency, sweeping a notch through the spectrum.
type Phaser struct {
	SampleRate float64
	Stages     int
	Depth      float64
	lfo        *LFO
	z          []float64
}

// NewPhaser builds a Phaser with the given stage count, rate (Hz) and depth.
func NewPhaser(sampleRate float64, stages int, rate, depth float64) *Phaser {
	if stages <= 0 {
		stages = 4
	}
	return &Phaser{SampleRate: sampleRate, Stages: stages, Depth: depth, lfo: NewLFO(rate, sampleRate), z: make([]float64, stages)}
}

// Process runs one sample through the all-pass cascade.
func (p *Phaser) Process(x float64) float64 {
	lfoVal := p.lfo.Next()
	centerHz := 200 + (lfoVal+1)/2*2000
	a := (math.Tan(math.Pi*centerHz/p.SampleRate) - 1) / (math.Tan(math.Pi*centerHz/p.SampleRate) + 1)
	y := x
	for i := 0; i < p.Stages; i++ {
		out := a*y + p.z[i]
		p.z[i] = y - a*out
		y = out
	}
	return x + p.Depth*y
}

// Pan computes equal-power stereo gains for pan in [-1, 1] (theta =
// (pan+1)/2 * pi/2 maps the input range onto a quarter turn), each scaled
// by gain.
func Pan(signal float64, pan, gain float64) (left, right float64) {
	p := (pan + 1) / 2
	theta := p * math.Pi / 2
	return signal * math.Cos(theta) * gain, signal * math.Sin(theta) * gain
}

// PitchEnvelope evaluates an attack/decay pitch-sweep as a frequency ratio
// relative to the note's base frequency: attack ramps from anchor to 1.0,
// decay ramps back to anchor, sustain holds anchor.
type PitchEnvelope struct {
	SampleRate     float64
	Anchor, Attack, Decay float64
	pos            float64
}

// Next advances by one sample and returns the current ratio.
func (p *PitchEnvelope) Next() float64 {
	dt := 1 / p.SampleRate
	p.pos += dt
	if p.pos < p.Attack {
		if p.Attack <= 0 {
			return 1
		}
		t := p.pos / p.Attack
		return p.Anchor + (1-p.Anchor)*t
	}
	decayPos := p.pos - p.Attack
	if decayPos < p.Decay {
		if p.Decay <= 0 {
			return p.Anchor
		}
		t := decayPos / p.Decay
		return 1 - (1-p.Anchor)*t
	}
	return p.Anchor
}

// Accelerate computes the exponential-acceleration pitch multiplier
// 2^(accel * progress), progress in [0, 1].
func Accelerate(accel, progress float64) float64 {
	return math.Pow(2, accel*progress)
}

// FMOperator is a single modulator oscillator whose output scales a
// carrier's pitch multiplier.
type FMOperator struct {
	Ratio, Index float64
	osc          *Oscillator
}

// NewFMOperator builds an FM modulator running at baseFreq*ratio.
func NewFMOperator(sampleRate, ratio, index float64) *FMOperator {
	return &FMOperator{Ratio: ratio, Index: index, osc: NewOscillator(WaveSine, sampleRate)}
}

// Next returns the pitch multiplier for one sample at the given carrier
// base frequency.
func (f *FMOperator) Next(baseFreq float64) float64 {
	buf := make([]float32, 1)
	f.osc.Process(buf, baseFreq*f.Ratio, nil)
	return 1 + f.Index*float64(buf[0])
}

// Ducking attenuates x by the given 0..1 sidechain envelope amount.
func Ducking(x, amount float64) float64 {
	return x * (1 - amount)
}

// Compressor is a simple feed-forward peak compressor used as an optional
// post-filter stage.
type Compressor struct {
	Threshold, Ratio float64
	envelope         float64
	Attack, Release  float64
	SampleRate       float64
}

// Process compresses one sample, tracking a peak envelope with separate
// attack/release coefficients.
func (c *Compressor) Process(x float64) float64 {
	level := math.Abs(x)
	coeff := c.Release
	if level > c.envelope {
		coeff = c.Attack
	}
	alpha := math.Exp(-1 / (coeff * c.SampleRate))
	c.envelope = alpha*c.envelope + (1-alpha)*level
	if c.envelope <= c.Threshold || c.Threshold <= 0 {
		return x
	}
	over := c.envelope / c.Threshold
	gain := math.Pow(over, 1/c.Ratio-1)
	return x * gain
}
