package dsl

import (
	"testing"

	"github.com/schollz/collidertracker/internal/pattern"
	"github.com/schollz/collidertracker/internal/rational"
)

func TestParseNoteNumeric(t *testing.T) {
	n, err := ParseNote("60")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 60 {
		t.Errorf("ParseNote(60) = %f, want 60", n)
	}
}

func TestParseNoteMiddleC(t *testing.T) {
	n, err := ParseNote("c4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 60 {
		t.Errorf("ParseNote(c4) = %f, want 60 (middle C)", n)
	}
}

func TestParseNoteSharp(t *testing.T) {
	n, err := ParseNote("c#4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 61 {
		t.Errorf("ParseNote(c#4) = %f, want 61", n)
	}
}

func TestParseNoteDefaultsToOctaveFour(t *testing.T) {
	n, err := ParseNote("c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 60 {
		t.Errorf("ParseNote(c) = %f, want 60", n)
	}
}

func TestParseNoteRejectsGarbage(t *testing.T) {
	if _, err := ParseNote("zz9"); err == nil {
		t.Errorf("expected an error for an unrecognized note name")
	}
}

func TestQuantizeToScaleSnapsToNearestScaleTone(t *testing.T) {
	// C# (61) is not in C major; nearest scale tones are C (60) and D (62),
	// both distance 1 — quantization picks the first match found while
	// scanning the scale's notes in order, which for major (0,2,4,5,7,9,11)
	// checks 0 before 2, so C# should resolve to C.
	got := QuantizeToScale(61, "major", 0)
	if got != 60 {
		t.Errorf("QuantizeToScale(61, major, 0) = %f, want 60", got)
	}
}

func TestQuantizeToScalePassesThroughAllScale(t *testing.T) {
	if got := QuantizeToScale(61, "all", 0); got != 61 {
		t.Errorf("QuantizeToScale with scale=all should be a no-op, got %f", got)
	}
}

func TestNoteAtomSetsNoteField(t *testing.T) {
	p := NoteAtom("c4")
	events := p.Query(rational.Zero, rational.One, pattern.NewQueryContext(1))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Data.Note == nil || *events[0].Data.Note != 60 {
		t.Errorf("NoteAtom(c4) note = %v, want 60", events[0].Data.Note)
	}
}

func TestNotesSequencesTokens(t *testing.T) {
	p := Notes("c4", "e4", "g4")
	events := p.Query(rational.Zero, rational.One, pattern.NewQueryContext(1))
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	want := []float64{60, 64, 67}
	for i, e := range events {
		if e.Data.Note == nil || *e.Data.Note != want[i] {
			t.Errorf("event %d note = %v, want %f", i, e.Data.Note, want[i])
		}
	}
}

func TestGainSetsConstant(t *testing.T) {
	p := Gain(Atom("bd"), 0.5)
	events := p.Query(rational.Zero, rational.One, pattern.NewQueryContext(1))
	if len(events) != 1 || events[0].Data.Gain == nil || *events[0].Data.Gain != 0.5 {
		t.Fatalf("Gain setter did not apply: %+v", events)
	}
}

func TestGainPAppliesPatternedControl(t *testing.T) {
	ctrl := Sequence(
		patternNum(0.2),
		patternNum(0.8),
	)
	p := GainP(Sequence(Atom("bd"), Atom("sn")), ctrl)
	events := p.Query(rational.Zero, rational.One, pattern.NewQueryContext(1))
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Data.Gain == nil || *events[0].Data.Gain != 0.2 {
		t.Errorf("event 0 gain = %v, want 0.2", events[0].Data.Gain)
	}
	if events[1].Data.Gain == nil || *events[1].Data.Gain != 0.8 {
		t.Errorf("event 1 gain = %v, want 0.8", events[1].Data.Gain)
	}
}

func patternNum(n float64) pattern.Pattern {
	var d pattern.VoiceData
	d.Value = pattern.NumValue(n)
	return pattern.Pure(d)
}

func TestLPFAppendsFilterStage(t *testing.T) {
	p := LPF(Atom("bd"), 800, 0.3)
	p = HPF(p, 200, 0.1)
	events := p.Query(rational.Zero, rational.One, pattern.NewQueryContext(1))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	filters := events[0].Data.Filters
	if len(filters) != 2 {
		t.Fatalf("got %d filters, want 2", len(filters))
	}
	if filters[0].Kind != pattern.FilterLowPass || filters[0].Cutoff != 800 {
		t.Errorf("filter 0 = %+v, want LowPass@800", filters[0])
	}
	if filters[1].Kind != pattern.FilterHighPass || filters[1].Cutoff != 200 {
		t.Errorf("filter 1 = %+v, want HighPass@200", filters[1])
	}
}

func TestScaleSetterQuantizesNote(t *testing.T) {
	p := Scale(NoteAtom("c#4"), "major", 0)
	events := p.Query(rational.Zero, rational.One, pattern.NewQueryContext(1))
	if len(events) != 1 || events[0].Data.Note == nil {
		t.Fatalf("expected one event with a note set: %+v", events)
	}
	if *events[0].Data.Note != 60 {
		t.Errorf("Scale(c#4, major) note = %f, want 60", *events[0].Data.Note)
	}
}

func TestEuclidRetainsStamp(t *testing.T) {
	p := Euclid(Atom("bd"), 3, 8, 0)
	events := p.Query(rational.Zero, rational.One, pattern.NewQueryContext(1))
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, e := range events {
		if e.Data.Meta.File == "" {
			t.Errorf("event %d missing source stamp", i)
		}
	}
}

func TestFastZeroIsBuildError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Fast with a zero factor should panic at build time")
		}
	}()
	Fast(Atom("bd"), 0)
}

func TestSlowZeroIsBuildError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Slow with a zero factor should panic at build time")
		}
	}()
	Slow(Atom("bd"), 0)
}
