package pattern

import (
	"reflect"
	"testing"

	"github.com/schollz/collidertracker/internal/rational"
)

func TestBjorklund(t *testing.T) {
	cases := []struct {
		k, n int
		want []bool
	}{
		{3, 8, []bool{true, false, false, true, false, false, true, false}},
		{0, 4, []bool{false, false, false, false}},
		{4, 4, []bool{true, true, true, true}},
		{1, 1, []bool{true}},
		{2, 5, []bool{true, false, true, false, false}},
	}
	for _, c := range cases {
		got := bjorklund(c.k, c.n)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("bjorklund(%d,%d) = %v, want %v", c.k, c.n, got, c.want)
		}
	}
}

func TestRotate(t *testing.T) {
	bits := []bool{true, false, false, false}
	got := rotate(bits, 1)
	want := []bool{false, false, false, true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rotate by 1 = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(rotate(bits, 0), bits) {
		t.Errorf("rotate by 0 should be identity")
	}
	if !reflect.DeepEqual(rotate(bits, 4), bits) {
		t.Errorf("rotate by n should be identity")
	}
	if !reflect.DeepEqual(rotate(bits, -1), []bool{false, true, false, false}) {
		t.Errorf("negative rotation should wrap")
	}
}

func TestEuclidZeroStepsIsSilence(t *testing.T) {
	p := Euclid(Pure(noteData("x")), 3, 0, 0)
	events := queryCycle(t, p, rational.Zero, rational.One)
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestEuclidKGreaterThanNFillsAllSteps(t *testing.T) {
	p := Euclid(Pure(noteData("x")), 9, 4, 0)
	events := queryCycle(t, p, rational.Zero, rational.One)
	if len(events) != 4 {
		t.Errorf("got %d events, want 4 (k>=n means every step fires)", len(events))
	}
}
