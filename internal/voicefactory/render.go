package voicefactory

import (
	"math"

	"github.com/schollz/collidertracker/internal/dsp"
)

// Render advances the voice by exactly one sample at absolute frame
// frameIdx and returns its panned stereo contribution. alive is false once
// the voice has fully decayed past EndFrame or (for non-looping samples)
// run off the end of its PCM; the caller should reap it at that point,
// matching the scheduler's swap-remove reaping style.
func (v *Voice) Render(frameIdx int64) (left, right float64, alive bool) {
	if frameIdx >= v.EndFrame {
		return 0, 0, false
	}
	if frameIdx >= v.GateEnd && v.Envelope.Done() == false {
		v.Envelope.ReleaseNow()
	}

	pitchMult := v.pitchMultiplier(frameIdx)

	var raw float64
	if v.IsSample {
		var ok bool
		raw, ok = v.nextSampleFrame(pitchMult)
		if !ok {
			return 0, 0, false
		}
	} else {
		raw = v.nextOscFrame(pitchMult)
	}

	envLevel := v.Envelope.Next()
	if v.Envelope.Done() {
		return 0, 0, false
	}

	var tremLFO float64
	if v.Tremolo != nil {
		tremLFO = v.Tremolo.Next()
	}

	l, r := dsp.RenderVoice(raw, envLevel, v.CrushBits, v.Coarse, v.Processors(), v.DistortAmt, tremLFO, v.TremoloDepth, v.Phaser, v.DuckAmount, v.Compressor, v.Pan, v.Gain)
	return l, r, true
}

// pitchMultiplier folds vibrato, pitch envelope, acceleration and FM into a
// single multiplier applied to the voice's base frequency/playback rate.
func (v *Voice) pitchMultiplier(frameIdx int64) float64 {
	mult := 1.0
	if v.Vibrato != nil {
		mult *= 1 + v.VibratoDepth*semitoneRatio(v.Vibrato.Next())
	}
	if v.PitchEnv != nil {
		mult *= v.PitchEnv.Next()
	}
	if v.AccelAmount != 0 {
		progress := 0.0
		if span := v.GateEnd - v.startSamp; span > 0 {
			progress = clamp(float64(frameIdx-v.startSamp)/float64(span), 0, 1)
		}
		mult *= dsp.Accelerate(v.AccelAmount, progress)
	}
	if v.FM != nil {
		mult *= v.FM.Next(v.FreqHz)
	}
	return mult
}

// semitoneRatio converts an LFO output in [-1, 1] into a frequency ratio
// offset of up to one semitone, the unit vibrato depth is expressed in.
func semitoneRatio(lfo float64) float64 {
	return math.Pow(2, lfo/12) - 1
}

func (v *Voice) nextOscFrame(pitchMult float64) float64 {
	buf := make([]float32, 1)
	v.Osc.Process(buf, v.FreqHz*pitchMult, nil)
	return float64(buf[0])
}

// nextSampleFrame reads one linearly-interpolated sample at the voice's
// current PlayPos, advances it by PlayRate*pitchMult, and handles loop wrap
// or end-of-slice. Non-looping playback stops at the Begin/End slice
// bounds, not just at the physical ends of the PCM.
func (v *Voice) nextSampleFrame(pitchMult float64) (float64, bool) {
	frames := v.Sample.Frames
	pos := v.PlayPos
	i0 := int(math.Floor(pos))
	if i0 < 0 || i0 >= len(frames) {
		return 0, false
	}
	if !v.Loop {
		if v.PlayRate >= 0 && pos >= float64(v.LoopEnd) {
			return 0, false
		}
		if v.PlayRate < 0 && pos < float64(v.LoopBegin) {
			return 0, false
		}
	}
	i1 := i0 + 1
	frac := pos - float64(i0)
	var s0, s1 float32
	s0 = (frames[i0][0] + frames[i0][1]) / 2
	if i1 < len(frames) {
		s1 = (frames[i1][0] + frames[i1][1]) / 2
	} else {
		s1 = s0
	}
	out := float64(s0) + (float64(s1)-float64(s0))*frac

	v.PlayPos += v.PlayRate * pitchMult
	if v.Loop {
		if v.PlayRate >= 0 && v.PlayPos >= float64(v.LoopEnd) {
			v.PlayPos = float64(v.LoopBegin) + (v.PlayPos - float64(v.LoopEnd))
		} else if v.PlayRate < 0 && v.PlayPos < float64(v.LoopBegin) {
			v.PlayPos = float64(v.LoopEnd) - (float64(v.LoopBegin) - v.PlayPos)
		}
	}
	return out, true
}
