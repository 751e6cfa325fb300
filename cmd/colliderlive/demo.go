package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schollz/collidertracker/internal/dsl"
	"github.com/schollz/collidertracker/internal/pattern"
)

// demos maps the built-in demo names to their pattern constructors. With the
// mini-notation parser out of scope, these exercise the programmatic DSL the
// way a parser or scripting host would.
var demos = map[string]func() pattern.Pattern{
	"melody": demoMelody,
	"acid":   demoAcid,
	"drums":  demoDrums,
	"drone":  demoDrone,
}

func demoNames() string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func demoPattern(name string) (pattern.Pattern, error) {
	build, ok := demos[name]
	if !ok {
		return nil, fmt.Errorf("unknown demo %q, have: %s", name, demoNames())
	}
	return build(), nil
}

// demoMelody is a four-note arpeggio with a second slower voice a fifth up,
// sent through the shared delay.
func demoMelody() pattern.Pattern {
	arp := dsl.Notes("c4", "e4", "g4", "b4")
	arp = dsl.Sound(arp, "triangle")
	arp = dsl.Gain(arp, 0.7)
	arp = dsl.Delay(arp, 0.3)

	lead := dsl.Slow(dsl.Notes("g4", "e5"), 2)
	lead = dsl.Sound(lead, "sine")
	lead = dsl.Gain(lead, 0.5)
	lead = dsl.Pan(lead, 0.7)
	lead = dsl.Reverb(lead, 0.4)
	lead = dsl.Orbit(lead, 1)

	return dsl.Stack(arp, lead)
}

// demoAcid is a squelchy square-wave line: an alternating bass figure with
// an envelope-modulated low-pass and a patterned gain from a sine signal.
func demoAcid() pattern.Pattern {
	line := dsl.Alternate(
		dsl.Notes("c2", "c2", "d#2", "c2"),
		dsl.Notes("c2", "g2", "c2", "a#1"),
	)
	line = dsl.Sound(line, "square")
	line = dsl.LPFEnv(line, 800, 0.6, 2.5)
	line = dsl.ADSR(line, 0.002, 0.1, 0.3, 0.08)
	line = dsl.Legato(line, 0.6)
	line = dsl.Distort(line, 0.4)
	line = dsl.GainP(line, dsl.Range(dsl.Sine(), 0.5, 0.9))
	return line
}

// demoDrums is a euclidean kit: needs a sample directory with bd/sn/hh WAVs;
// without one the voices degrade to silence.
func demoDrums() pattern.Pattern {
	bd := dsl.Euclid(dsl.Atom("bd"), 3, 8, 0)
	bd = dsl.Gain(bd, 0.9)
	bd = dsl.Cut(bd, 1)

	sn := dsl.Late(dsl.Atom("sn"), 0.5)
	sn = dsl.Gain(sn, 0.7)

	hh := dsl.Fast(dsl.Atom("hh"), 4)
	hh = dsl.Gain(hh, 0.4)
	hh = dsl.Pan(hh, 0.65)
	hh = dsl.Orbit(hh, 1)

	return dsl.Stack(bd, sn, hh)
}

// demoDrone layers a slow supersaw chord under pink noise, all reverb.
func demoDrone() pattern.Pattern {
	pad := dsl.Slow(dsl.Notes("c3", "g3"), 4)
	pad = dsl.Sound(pad, "supersaw")
	pad = dsl.ADSR(pad, 1.5, 0.5, 0.8, 2.0)
	pad = dsl.LPF(pad, 1200, 0.3)
	pad = dsl.Reverb(pad, 0.6)

	air := dsl.Slow(dsl.Atom("pink"), 4)
	air = dsl.Gain(air, 0.15)
	air = dsl.HPF(air, 3000, 0.2)
	air = dsl.Reverb(air, 0.8)
	air = dsl.Orbit(air, 1)

	return dsl.Stack(pad, air)
}
