package dsl

import (
	"fmt"
	"strconv"

	"github.com/schollz/collidertracker/internal/modulation"
	"github.com/schollz/collidertracker/internal/music"
)

// ParseNote turns a note-name token ("c4", "a#3", "e2") or a bare number
// ("60", "61.5") into a MIDI-style note value (60 = middle C). Fractional
// numeric input survives for detune-style use; note names delegate to the
// music package's parser.
func ParseNote(token string) (float64, error) {
	if n, err := strconv.ParseFloat(token, 64); err == nil {
		return n, nil
	}
	midi, err := music.NoteNameToMidi(token)
	if err != nil {
		return 0, fmt.Errorf("parse note %q: %w", token, err)
	}
	return float64(midi), nil
}

// QuantizeToScale snaps a semitone value to the nearest note in the named
// scale, delegating to the scale tables and quantization logic in
// internal/modulation rather than re-deriving them.
func QuantizeToScale(note float64, scaleName string, scaleRoot int) float64 {
	if scaleName == "" || scaleName == "all" {
		return note
	}
	if _, ok := modulation.Scales[scaleName]; !ok {
		return note
	}
	settings := modulation.NewModulateSettings()
	settings.Scale = scaleName
	settings.ScaleRoot = scaleRoot
	quantized := modulation.ApplyModulation(int(note), settings, nil)
	return float64(quantized)
}
