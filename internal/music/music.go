// Package music converts between MIDI note numbers and compact note names.
// Rendering keeps the tracker-style fixed three-character form ("c-4",
// "f#3"); parsing additionally accepts the loose forms pattern notation
// uses ("c4", "a#", "e2").
package music

import (
	"fmt"
	"strings"
)

// NoteNames lists the twelve pitch classes, natural before sharp.
var NoteNames = []string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}

// MidiToNoteName converts MIDI note number (0-127) to note name like "c-1", "c#4", etc.
// For negative octaves: natural notes show minus (e.g., "c-1"), sharp notes drop minus (e.g., "f#1") - all stay 3 chars
// MIDI note 60 = C4, note 21 = A0, etc.
func MidiToNoteName(midiNote int) string {
	if midiNote < 0 || midiNote > 127 {
		return "---"
	}

	// Calculate octave (MIDI note 12 = C0)
	octave := (midiNote / 12) - 1

	noteName := NoteNames[midiNote%12]

	// Always maintain exactly 3 characters for all notes
	if strings.Contains(noteName, "#") {
		// Sharp notes: "c#4", "f#1" (already 3 chars for most cases)
		if octave < 0 {
			return fmt.Sprintf("%s%d", noteName, -octave) // "c#1" for negative
		}
		return fmt.Sprintf("%s%d", noteName, octave) // "c#4" for positive
	}
	// Natural notes: always use minus separator to reach 3 chars
	if octave < 0 {
		return fmt.Sprintf("%s-%d", noteName, -octave) // "c-1" for negative
	}
	return fmt.Sprintf("%s-%d", noteName, octave) // "c-4" for positive
}

// NoteNameToMidi parses a note name back into a MIDI note number. It accepts
// the loose pattern forms ("c4", "a#3", bare "c" defaulting to octave 4) and
// the tracker-rendered form, treating a single '-' as the octave separator
// ("c-4" = C4). A doubled minus reaches negative octaves ("c--1" = MIDI 0).
func NoteNameToMidi(name string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return 0, fmt.Errorf("empty note name")
	}

	pitch := s[:1]
	rest := s[1:]
	if len(rest) > 0 && rest[0] == '#' {
		pitch += "#"
		rest = rest[1:]
	}
	idx := -1
	for i, n := range NoteNames {
		if n == pitch {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("unrecognized pitch class in %q", name)
	}

	octave := 4
	if rest != "" {
		if rest[0] == '-' && len(rest) > 1 {
			rest = rest[1:]
		}
		var o int
		if _, err := fmt.Sscanf(rest, "%d", &o); err != nil {
			return 0, fmt.Errorf("unrecognized octave in %q: %w", name, err)
		}
		octave = o
	}
	return 12*(octave+1) + idx, nil
}
