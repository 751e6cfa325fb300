package dsp

// RenderVoice advances one sample of a voice's DSP chain and returns the
// panned stereo output, running the stages in order: pre-filters, the main
// filter chain, the VCA envelope, post-filters, and equal-power panning.
// The raw sample arrives already generated (oscillator or sample playback)
// with FM/vibrato/pitch-envelope/acceleration folded into its pitch by the
// caller, since those stages need fields only voicefactory.Voice carries;
// this keeps dsp itself free of any dependency on the pattern/voicefactory
// packages.
func RenderVoice(raw float64, env float64, crushBits float64, coarse *SampleHold, filters []FilterProcessor, distortAmt float64, tremoloLFO, tremoloDepth float64, phaser *Phaser, duckAmount float64, compressor *Compressor, pan, gain float64) (left, right float64) {
	x := raw

	if coarse != nil {
		x = coarse.Process(x)
	}
	x = Crush(x, crushBits)

	for _, f := range filters {
		x = f.Process(x)
	}

	x *= env

	if distortAmt > 0 {
		x = Distort(x, distortAmt)
	}
	if tremoloDepth > 0 {
		x = Tremolo(x, tremoloLFO, tremoloDepth)
	}
	if phaser != nil {
		x = phaser.Process(x)
	}
	if duckAmount > 0 {
		x = Ducking(x, duckAmount)
	}
	if compressor != nil {
		x = compressor.Process(x)
	}

	return Pan(x, pan, gain)
}

// FilterProcessor is satisfied by both *Biquad and *FormantBank, letting the
// main filter chain mix plain and formant stages freely.
type FilterProcessor interface {
	Process(x float64) float64
}
