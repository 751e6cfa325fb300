package pattern

import (
	"testing"

	"github.com/schollz/collidertracker/internal/rational"
)

func noteData(n string) VoiceData {
	var d VoiceData
	d.Value = StrValue(n)
	return d
}

func r(n, d int64) rational.Rational { return rational.New(n, d) }

func queryCycle(t *testing.T, p Pattern, from, to rational.Rational) []Event {
	t.Helper()
	return p.Query(from, to, NewQueryContext(42))
}

// Scenario 1: note("c d e f") queried over [0, 1) -> four quarter-cycle
// onsets in order.
func TestScenarioSequenceOfFour(t *testing.T) {
	p := Sequence(Pure(noteData("c")), Pure(noteData("d")), Pure(noteData("e")), Pure(noteData("f")))
	events := queryCycle(t, p, rational.Zero, rational.One)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	wantStarts := []rational.Rational{r(0, 4), r(1, 4), r(2, 4), r(3, 4)}
	wantNotes := []string{"c", "d", "e", "f"}
	for i, e := range events {
		if !e.Part.Begin.Equal(wantStarts[i]) {
			t.Errorf("event %d begin = %s, want %s", i, e.Part.Begin, wantStarts[i])
		}
		if !e.Part.Duration().Equal(r(1, 4)) {
			t.Errorf("event %d duration = %s, want 1/4", i, e.Part.Duration())
		}
		if e.Data.Value.Str != wantNotes[i] {
			t.Errorf("event %d note = %s, want %s", i, e.Data.Value.Str, wantNotes[i])
		}
		if !e.HasOnset() {
			t.Errorf("event %d has no onset", i)
		}
	}
}

// Scenario 2: note("c e").struct("x") over [0, 1) -> two events sharing one
// whole; only the first has an onset.
func TestScenarioStructSharesWhole(t *testing.T) {
	source := Sequence(Pure(noteData("c")), Pure(noteData("e")))
	mask := Pure(VoiceData{Value: Value{HasBool: true, Bool: true}})
	p := Struct(mask, source)
	events := queryCycle(t, p, rational.Zero, rational.One)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.Whole == nil || !e.Whole.Begin.Equal(rational.Zero) || !e.Whole.End.Equal(rational.One) {
			t.Errorf("event whole = %v, want [0,1)", e.Whole)
		}
	}
	if !events[0].HasOnset() {
		t.Errorf("first event should have onset")
	}
	if events[1].HasOnset() {
		t.Errorf("second event should not have onset")
	}
}

// Scenario 3: note("c").late(0.5) over [0, 2) shifts every whole-cycle atom
// later by half a cycle. The middle event keeps its whole cycle intact as a
// single onset event at [0.5, 1.5); querying this arc also surfaces the
// partial tail/lead of the neighboring cycles on either side. See
// DESIGN.md's note on Early/Late boundary events for why a literal query over [0,2) here
// is not clipped back down to exactly the two fragments a bar-aligned
// reading of "late" might expect.
func TestScenarioLateShift(t *testing.T) {
	p := Late(Pure(noteData("c")), r(1, 2))
	events := queryCycle(t, p, rational.Zero, r(2, 1))

	findEvent := func(begin, end rational.Rational) *Event {
		for _, e := range events {
			if e.Part.Begin.Equal(begin) && e.Part.End.Equal(end) {
				return &e
			}
		}
		return nil
	}

	onsetEvent := findEvent(r(1, 2), r(3, 2))
	if onsetEvent == nil {
		t.Fatalf("missing expected onset event part=[0.5,1.5) in %v", events)
	}
	if !onsetEvent.HasOnset() {
		t.Errorf("expected onset event to have onset")
	}
	if onsetEvent.Whole == nil || !onsetEvent.Whole.Begin.Equal(r(1, 2)) || !onsetEvent.Whole.End.Equal(r(3, 2)) {
		t.Errorf("onset event whole = %v, want [0.5, 1.5)", onsetEvent.Whole)
	}

	leadEvent := findEvent(rational.Zero, r(1, 2))
	if leadEvent == nil {
		t.Fatalf("missing expected lead fragment part=[0,0.5) in %v", events)
	}
	if leadEvent.HasOnset() {
		t.Errorf("lead fragment should not have onset (its whole starts before the queried arc)")
	}
}

// Scenario 4: note("bd(3,8)") over [0, 1) -> three events at 0, 3/8, 6/8.
func TestScenarioEuclid3of8(t *testing.T) {
	p := Euclid(Pure(noteData("bd")), 3, 8, 0)
	events := queryCycle(t, p, rational.Zero, rational.One)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %v", len(events), events)
	}
	want := []rational.Rational{r(0, 8), r(3, 8), r(6, 8)}
	for i, e := range events {
		if !e.Part.Begin.Equal(want[i]) {
			t.Errorf("event %d begin = %s, want %s", i, e.Part.Begin, want[i])
		}
		if !e.Part.Duration().Equal(r(1, 8)) {
			t.Errorf("event %d duration = %s, want 1/8", i, e.Part.Duration())
		}
	}
}

// Scenario 5: note("a@3 b") over [0, 1) -> a occupies 3/4, b occupies 1/4.
func TestScenarioWeightedSequence(t *testing.T) {
	p := WeightedSequence([]Weighted{
		{Pattern: Pure(noteData("a")), Weight: r(3, 1)},
		{Pattern: Pure(noteData("b")), Weight: r(1, 1)},
	})
	events := queryCycle(t, p, rational.Zero, rational.One)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[0].Part.Duration().Equal(r(3, 4)) {
		t.Errorf("a duration = %s, want 3/4", events[0].Part.Duration())
	}
	if !events[1].Part.Duration().Equal(r(1, 4)) {
		t.Errorf("b duration = %s, want 1/4", events[1].Part.Duration())
	}
}

// Scenario 6: note("c").fast(2) over [0, 1) -> two half-cycle onset events.
func TestScenarioFastTwo(t *testing.T) {
	p := Fast(Pure(noteData("c")), rational.FromInt(2))
	events := queryCycle(t, p, rational.Zero, rational.One)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(events), events)
	}
	for i, e := range events {
		if !e.Part.Duration().Equal(r(1, 2)) {
			t.Errorf("event %d duration = %s, want 1/2", i, e.Part.Duration())
		}
		if !e.HasOnset() {
			t.Errorf("event %d should have onset", i)
		}
	}
}

func TestPartAlwaysSubsetOfWhole(t *testing.T) {
	patterns := []Pattern{
		Sequence(Pure(noteData("a")), Pure(noteData("b")), Pure(noteData("c"))),
		Euclid(Pure(noteData("x")), 5, 8, 1),
		Late(Pure(noteData("x")), r(1, 3)),
		Fast(Sequence(Pure(noteData("a")), Pure(noteData("b"))), r(3, 2)),
	}
	for _, p := range patterns {
		for _, e := range p.Query(rational.Zero, rational.FromInt(4), NewQueryContext(7)) {
			if e.Whole == nil {
				continue
			}
			if e.Part.Begin.Lt(e.Whole.Begin) || e.Part.End.Gt(e.Whole.End) {
				t.Errorf("part %v not subset of whole %v", e.Part, *e.Whole)
			}
		}
	}
}

func TestOnsetRuleMatchesDefinition(t *testing.T) {
	p := Late(Sequence(Pure(noteData("a")), Pure(noteData("b"))), r(1, 4))
	for _, e := range p.Query(rational.Zero, rational.FromInt(3), NewQueryContext(7)) {
		want := e.Whole != nil && e.Whole.Begin.Equal(e.Part.Begin)
		if e.HasOnset() != want {
			t.Errorf("HasOnset() = %v, want %v for event %+v", e.HasOnset(), want, e)
		}
	}
}

// fast(k) . slow(k) = id, checked here on each event's part.
func TestScalingIdentity(t *testing.T) {
	base := Sequence(Pure(noteData("a")), Pure(noteData("b")), Pure(noteData("c")))
	k := r(3, 1)
	roundTrip := Slow(Fast(base, k), k)
	want := base.Query(rational.Zero, rational.FromInt(2), NewQueryContext(1))
	got := roundTrip.Query(rational.Zero, rational.FromInt(2), NewQueryContext(1))
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Part.Begin.Equal(want[i].Part.Begin) || !got[i].Part.End.Equal(want[i].Part.End) {
			t.Errorf("event %d part = %v, want %v", i, got[i].Part, want[i].Part)
		}
	}
}

// early(d) . late(d) = id.
func TestShiftIdentity(t *testing.T) {
	base := Pure(noteData("a"))
	d := r(1, 3)
	roundTrip := Early(Late(base, d), d)
	want := base.Query(rational.Zero, rational.FromInt(2), NewQueryContext(1))
	got := roundTrip.Query(rational.Zero, rational.FromInt(2), NewQueryContext(1))
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Part.Begin.Equal(want[i].Part.Begin) {
			t.Errorf("event %d begin = %s, want %s", i, got[i].Part.Begin, want[i].Part.Begin)
		}
	}
}

// Weight conservation: sum of durations of a sequence's children over one
// cycle equals 1.
func TestWeightConservation(t *testing.T) {
	p := WeightedSequence([]Weighted{
		{Pattern: Pure(noteData("a")), Weight: r(2, 1)},
		{Pattern: Pure(noteData("b")), Weight: r(5, 1)},
		{Pattern: Pure(noteData("c")), Weight: r(1, 1)},
	})
	events := queryCycle(t, p, rational.Zero, rational.One)
	total := rational.Zero
	for _, e := range events {
		total = total.Add(e.Part.Duration())
	}
	if !total.Equal(rational.One) {
		t.Errorf("total duration = %s, want 1", total)
	}
}

func TestEmptyAlternationYieldsNothing(t *testing.T) {
	p := Alternate()
	events := queryCycle(t, p, rational.Zero, rational.FromInt(4))
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

// Monotone query: query(a,c) equals query(a,b) U query(b,c) up to duplicates
// on the boundary.
func TestMonotoneQuerySplit(t *testing.T) {
	p := Euclid(Pure(noteData("x")), 3, 8, 0)
	whole := p.Query(rational.Zero, rational.FromInt(2), NewQueryContext(9))
	part1 := p.Query(rational.Zero, rational.One, NewQueryContext(9))
	part2 := p.Query(rational.One, rational.FromInt(2), NewQueryContext(9))

	key := func(e Event) string { return e.Part.Begin.String() + ":" + e.Part.End.String() }
	seen := map[string]bool{}
	for _, e := range whole {
		seen[key(e)] = true
	}
	for _, e := range append(part1, part2...) {
		if !seen[key(e)] {
			t.Errorf("split query produced event %v missing from whole-arc query", e.Part)
		}
	}
}

func TestBindInnerJoinAppliesControlPattern(t *testing.T) {
	gainPattern := Sequence(
		Pure(VoiceData{Value: NumValue(0.2)}),
		Pure(VoiceData{Value: NumValue(0.8)}),
	)
	outer := MapData(Pure(noteData("c")), func(d VoiceData) VoiceData {
		d.Value = Value{SubPattern: gainPattern, HasSub: true}
		return d
	})
	bound := Bind(outer)
	events := queryCycle(t, bound, rational.Zero, rational.One)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (control pattern should split the outer event)", len(events))
	}
	if events[0].Data.Value.Num != 0.2 || events[1].Data.Value.Num != 0.8 {
		t.Errorf("bound values = %v, %v, want 0.2, 0.8", events[0].Data.Value.Num, events[1].Data.Value.Num)
	}
}

func TestSqueezeBindCompressesInnerIntoOuterWhole(t *testing.T) {
	inner := Sequence(Pure(VoiceData{Value: NumValue(1)}), Pure(VoiceData{Value: NumValue(2)}))
	outer := MapData(Pure(noteData("c")), func(d VoiceData) VoiceData {
		d.Value = Value{SubPattern: inner, HasSub: true}
		return d
	})
	squeezed := SqueezeBind(outer)
	events := queryCycle(t, squeezed, rational.Zero, rational.One)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[0].Part.Duration().Equal(r(1, 2)) || !events[1].Part.Duration().Equal(r(1, 2)) {
		t.Errorf("squeezed events should each be half the outer whole: %v", events)
	}
}

func TestRevReversesWithinCycle(t *testing.T) {
	p := Rev(Sequence(Pure(noteData("a")), Pure(noteData("b")), Pure(noteData("c")), Pure(noteData("d"))))
	events := queryCycle(t, p, rational.Zero, rational.One)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	byBegin := make(map[string]string, len(events))
	for _, e := range events {
		byBegin[e.Part.Begin.String()] = e.Data.Value.Str
	}
	want := map[string]string{
		"0":   "d",
		"1/4": "c",
		"1/2": "b",
		"3/4": "a",
	}
	for begin, note := range want {
		if byBegin[begin] != note {
			t.Errorf("event at %s = %s, want %s", begin, byBegin[begin], note)
		}
	}
}

func TestMaskFiltersWithoutChangingWhole(t *testing.T) {
	source := Pure(noteData("a"))
	maskPat := Euclid(Pure(VoiceData{Value: Value{HasBool: true, Bool: true}}), 1, 2, 0)
	p := Mask(source, maskPat)
	events := queryCycle(t, p, rational.Zero, rational.One)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Whole == nil || !events[0].Whole.Begin.Equal(rational.Zero) || !events[0].Whole.End.Equal(rational.One) {
		t.Errorf("mask should preserve source whole verbatim, got %v", events[0].Whole)
	}
	if !events[0].Part.Begin.Equal(rational.Zero) || !events[0].Part.End.Equal(r(1, 2)) {
		t.Errorf("mask should clip part to the active span, got %v", events[0].Part)
	}
}

func TestEuclidRotation(t *testing.T) {
	base := Euclid(Pure(noteData("x")), 3, 8, 0)
	rotated := Euclid(Pure(noteData("x")), 3, 8, 1)
	baseEvents := queryCycle(t, base, rational.Zero, rational.One)
	rotEvents := queryCycle(t, rotated, rational.Zero, rational.One)
	if len(baseEvents) != len(rotEvents) {
		t.Fatalf("rotation should preserve pulse count: %d vs %d", len(baseEvents), len(rotEvents))
	}
	if rotEvents[0].Part.Begin.Equal(baseEvents[0].Part.Begin) {
		t.Errorf("rotation by 1 should change the first pulse position")
	}
}
