package dsl

import "github.com/schollz/collidertracker/internal/pattern"

// NoteAtom builds a single-cycle pattern whose Note field is parsed from a
// note-name or numeric token ("c4", "a#3", "60"). It panics on an
// unparseable token since DSL construction happens at build time, not on
// the audio thread — callers that need a recoverable parse should call
// ParseNote directly.
func NoteAtom(token string) pattern.Pattern {
	n, err := ParseNote(token)
	if err != nil {
		panic(err)
	}
	var d pattern.VoiceData
	d.Note = &n
	d.Value = pattern.NumValue(n)
	return stamp(pattern.Pure(d))
}

// Notes builds a sequence of NoteAtom tokens, one per equal slice of a cycle
// — the common "note(\"c e g\")" shape, expressed without a parser.
func Notes(tokens ...string) pattern.Pattern {
	children := make([]pattern.Pattern, len(tokens))
	for i, tok := range tokens {
		children[i] = NoteAtom(tok)
	}
	return Sequence(children...)
}
