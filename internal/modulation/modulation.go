// Package modulation applies deterministic note-level modulation: scale
// quantization, fixed transposition, and seeded random variation with a
// probability gate. Randomness always flows through a caller-supplied
// generator — never a global or time-based source — so a modulated pattern
// replays identically for the same seed.
package modulation

import (
	"math/rand"
	"sort"
)

// ModulateSettings represents the settings for a single modulation entry.
type ModulateSettings struct {
	Seed        int    `json:"seed"`        // Seed the caller builds its generator from: -1 for "none" (no randomization), 1-128 for a fixed seed
	IRandom     int    `json:"irandom"`     // Random range: 0-128 (0 means no randomization)
	Sub         int    `json:"sub"`         // Subtract value: 0-120
	Add         int    `json:"add"`         // Add value: 0-120
	ScaleRoot   int    `json:"scaleRoot"`   // Scale root note: 0-11 (C, C#, D, D#, E, F, F#, G, G#, A, A#, B)
	Scale       string `json:"scale"`       // Scale selection: "all", "major", "minor", etc.
	Probability int    `json:"probability"` // Probability percentage: 0-100 (100 = always apply modulation)
}

// NewModulateSettings creates a ModulateSettings with pass-through defaults.
func NewModulateSettings() ModulateSettings {
	return ModulateSettings{
		Seed:        -1,
		IRandom:     0,
		Sub:         0,
		Add:         0,
		ScaleRoot:   0,
		Scale:       "all",
		Probability: 100,
	}
}

// Scale represents a musical scale.
type Scale struct {
	Name  string
	Notes []int // MIDI note offsets within an octave (0-11)
}

// Predefined scales.
var Scales = map[string]Scale{
	"all": {
		Name:  "All Notes",
		Notes: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	},
	"major": {
		Name:  "Major",
		Notes: []int{0, 2, 4, 5, 7, 9, 11},
	},
	"minor": {
		Name:  "Minor",
		Notes: []int{0, 2, 3, 5, 7, 8, 10},
	},
	"dorian": {
		Name:  "Dorian",
		Notes: []int{0, 2, 3, 5, 7, 9, 10},
	},
	"mixolydian": {
		Name:  "Mixolydian",
		Notes: []int{0, 2, 4, 5, 7, 9, 10},
	},
	"pentatonic": {
		Name:  "Pentatonic",
		Notes: []int{0, 2, 4, 7, 9},
	},
	"blues": {
		Name:  "Blues",
		Notes: []int{0, 3, 5, 6, 7, 10},
	},
	"chromatic": {
		Name:  "Chromatic",
		Notes: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	},
}

// GetScaleNames returns all available scale names, sorted for stable
// iteration.
func GetScaleNames() []string {
	names := make([]string, 0, len(Scales))
	for name := range Scales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyModulation applies modulation to a MIDI note value. rng supplies all
// randomness; it may be nil when the settings use none (IRandom == 0 and
// Probability == 100), and settings that need randomness degrade to their
// deterministic parts when rng is nil.
func ApplyModulation(originalNote int, settings ModulateSettings, rng *rand.Rand) int {
	// The probability gate decides whether any modulation happens at all.
	if settings.Probability < 100 {
		if rng == nil {
			return originalNote
		}
		if rng.Intn(100)+1 > settings.Probability {
			return originalNote
		}
	}

	result := originalNote
	if settings.IRandom > 0 && rng != nil {
		result += rng.Intn(settings.IRandom + 1)
	}
	result -= settings.Sub
	result += settings.Add

	if settings.Scale != "all" && settings.Scale != "" {
		result = quantizeToScale(result, settings.Scale, settings.ScaleRoot)
	}
	return result
}

// quantizeToScale quantizes a MIDI note to the closest note in the
// specified scale.
func quantizeToScale(note int, scaleName string, scaleRoot int) int {
	scale, exists := Scales[scaleName]
	if !exists {
		return note
	}

	// Handle negative notes by wrapping to a positive octave.
	if note < 0 {
		octaves := (-note / 12) + 1
		note += octaves * 12
	}

	octave := note / 12
	noteInOctave := note % 12

	// Transpose into the scale's natural form, snap, transpose back.
	transposedNote := (noteInOctave - scaleRoot + 12) % 12

	minDistance := 12
	closestNote := transposedNote
	for _, scaleNote := range scale.Notes {
		distance := abs(transposedNote - scaleNote)
		if distance < minDistance {
			minDistance = distance
			closestNote = scaleNote
		}
	}

	finalNote := (closestNote + scaleRoot) % 12
	return octave*12 + finalNote
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
