package voicefactory

import (
	"math"
	"testing"

	"github.com/schollz/collidertracker/internal/pattern"
	"github.com/schollz/collidertracker/internal/sampleregistry"
	"github.com/schollz/collidertracker/internal/scheduler"
)

const testRate = 8000.0

func sv(data pattern.VoiceData) scheduler.ScheduledVoice {
	return scheduler.ScheduledVoice{ID: 1, StartSamp: 0, Data: data}
}

func TestOscillatorVoiceFromNote(t *testing.T) {
	note := 69.0 // A above middle C
	v, err := New(sv(pattern.VoiceData{Note: &note}), 0, testRate, 800, sampleregistry.New())
	if err != nil {
		t.Fatal(err)
	}
	if v.IsSample {
		t.Fatalf("a bare note should build an oscillator voice")
	}
	if math.Abs(v.FreqHz-440) > 0.01 {
		t.Errorf("note 69 resolves to %v Hz, want 440", v.FreqHz)
	}
}

func TestSynthSoundSelectsWaveform(t *testing.T) {
	for _, name := range []string{"sine", "saw", "square", "supersaw", "pink"} {
		v, err := New(sv(pattern.VoiceData{Sound: name}), 0, testRate, 800, sampleregistry.New())
		if err != nil {
			t.Fatalf("synth sound %q: %v", name, err)
		}
		if v.IsSample {
			t.Errorf("%q must be an oscillator voice, not a sample lookup", name)
		}
	}
}

func TestMissingSampleErrors(t *testing.T) {
	if _, err := New(sv(pattern.VoiceData{Sound: "bd"}), 0, testRate, 800, sampleregistry.New()); err == nil {
		t.Errorf("missing sample should be an error the caller drops silently")
	}
}

func TestPartialSampleErrors(t *testing.T) {
	reg := sampleregistry.New()
	reg.AppendChunk("bd:0", 0, 8000, 1, [][2]float32{{0.5, 0.5}})
	if _, err := New(sv(pattern.VoiceData{Sound: "bd"}), 0, testRate, 800, reg); err == nil {
		t.Errorf("a partial sample must not materialize a voice")
	}
}

func completeSample(reg *sampleregistry.Registry, key string, n int) {
	frames := make([][2]float32, n)
	for i := range frames {
		frames[i] = [2]float32{0.5, 0.5}
	}
	reg.Complete(key, int(testRate), 2, frames)
}

func TestSampleVoiceRateClampedToFiveOctaves(t *testing.T) {
	reg := sampleregistry.New()
	completeSample(reg, "bd:0", 1000)
	note := 120.0 // ten octaves up from offset zero
	v, err := New(sv(pattern.VoiceData{Sound: "bd", Note: &note}), 0, testRate, 800, reg)
	if err != nil {
		t.Fatal(err)
	}
	if v.PlayRate > math.Pow(2, 5)+1e-9 {
		t.Errorf("rate %v exceeds the +5 octave clamp", v.PlayRate)
	}
}

func TestSampleVoiceSliceBounds(t *testing.T) {
	reg := sampleregistry.New()
	completeSample(reg, "bd:0", 1000)
	begin, end := 0.25, 0.75
	v, err := New(sv(pattern.VoiceData{Sound: "bd", Begin: &begin, End: &end}), 0, testRate, 800, reg)
	if err != nil {
		t.Fatal(err)
	}
	if v.LoopBegin != 250 || v.LoopEnd != 750 {
		t.Errorf("slice = [%d, %d), want [250, 750)", v.LoopBegin, v.LoopEnd)
	}
	if v.PlayPos != 250 {
		t.Errorf("playhead starts at %v, want the slice begin", v.PlayPos)
	}
}

func TestSamplePlayheadNeverReadsOutOfBounds(t *testing.T) {
	reg := sampleregistry.New()
	completeSample(reg, "bd:0", 100)
	v, err := New(sv(pattern.VoiceData{Sound: "bd"}), 0, testRate, 8000, reg)
	if err != nil {
		t.Fatal(err)
	}
	// Render far past the sample end; the voice must terminate instead of
	// reading beyond its PCM.
	alive := true
	for frame := int64(0); frame < 1000 && alive; frame++ {
		_, _, alive = v.Render(frame)
	}
	if alive {
		t.Errorf("non-looping voice should finish when PCM runs out")
	}
}

func TestLoopingSampleWraps(t *testing.T) {
	reg := sampleregistry.New()
	completeSample(reg, "bd:0", 100)
	v, err := New(sv(pattern.VoiceData{Sound: "bd", Loop: true}), 0, testRate, 8000, reg)
	if err != nil {
		t.Fatal(err)
	}
	for frame := int64(0); frame < 500; frame++ {
		if _, _, alive := v.Render(frame); !alive {
			t.Fatalf("looping voice died at frame %d", frame)
		}
	}
	if v.PlayPos < float64(v.LoopBegin) || v.PlayPos >= float64(v.LoopEnd) {
		t.Errorf("playhead %v escaped the loop [%d, %d)", v.PlayPos, v.LoopBegin, v.LoopEnd)
	}
}

func TestLegatoScalesGate(t *testing.T) {
	legato := 0.5
	note := 60.0
	v, err := New(sv(pattern.VoiceData{Note: &note, Legato: &legato}), 0, testRate, 800, sampleregistry.New())
	if err != nil {
		t.Fatal(err)
	}
	if v.GateEnd != 400 {
		t.Errorf("legato 0.5 over 800 gate frames = %d, want 400", v.GateEnd)
	}
}

func TestEndFrameCoversRelease(t *testing.T) {
	note := 60.0
	adsr := &pattern.ADSR{Attack: 0.01, Decay: 0.01, Sustain: 0.5, Release: 0.5}
	v, err := New(sv(pattern.VoiceData{Note: &note, ADSR: adsr}), 0, testRate, 800, sampleregistry.New())
	if err != nil {
		t.Fatal(err)
	}
	wantMin := v.GateEnd + int64(0.5*testRate)
	if v.EndFrame < wantMin {
		t.Errorf("EndFrame %d does not cover the release tail (want >= %d)", v.EndFrame, wantMin)
	}
}

func TestTunedSampleAnchorsPitch(t *testing.T) {
	reg := sampleregistry.New()
	completeSample(reg, "bass:0", 1000)
	reg.SetTuning("bass:0", 220, 57) // sample recorded at A3
	note := 57.0
	v, err := New(sv(pattern.VoiceData{Sound: "bass", Note: &note}), 0, testRate, 800, reg)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v.PlayRate-1) > 1e-9 {
		t.Errorf("playing a tuned sample at its anchor note should be unity rate, got %v", v.PlayRate)
	}
}

func TestFilterChainBuilt(t *testing.T) {
	note := 60.0
	d := pattern.VoiceData{
		Note: &note,
		Filters: []pattern.FilterDef{
			{Kind: pattern.FilterLowPass, Cutoff: 800, Resonance: 0.5, EnvDepth: 1},
			{Kind: pattern.FilterFormant, Cutoff: 1, Resonance: 0.5},
		},
	}
	v, err := New(sv(d), 0, testRate, 800, sampleregistry.New())
	if err != nil {
		t.Fatal(err)
	}
	procs := v.Processors()
	if len(procs) != 2 {
		t.Fatalf("got %d filter processors, want 2", len(procs))
	}
	// Control-rate modulation touches only env-depth biquads; it must not
	// panic on the formant stage.
	v.UpdateFilterCutoffs(0.7)
}

func TestNonLoopingSampleStopsAtEndSlice(t *testing.T) {
	reg := sampleregistry.New()
	completeSample(reg, "bd:0", 100)
	end := 0.5
	v, err := New(sv(pattern.VoiceData{Sound: "bd", End: &end}), 0, testRate, 8000, reg)
	if err != nil {
		t.Fatal(err)
	}
	alive := true
	played := 0
	for frame := int64(0); frame < 200 && alive; frame++ {
		_, _, alive = v.Render(frame)
		if alive {
			played++
		}
	}
	if alive {
		t.Fatalf("voice kept playing past its End slice")
	}
	if played > 50 {
		t.Errorf("played %d frames, want at most the 50-frame End slice", played)
	}
}
