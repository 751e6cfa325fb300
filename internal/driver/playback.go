package driver

import (
	"github.com/schollz/collidertracker/internal/link"
	"github.com/schollz/collidertracker/internal/pattern"
	"github.com/schollz/collidertracker/internal/rational"
)

// Playback queries one pattern over a rolling window and converts its onset
// events into Schedule commands. It runs on a producer goroutine, never the
// audio thread; the only coupling is the link's command channel.
type Playback struct {
	ID      string
	Pattern pattern.Pattern
	CPS     float64
	Seed    uint64

	pos rational.Rational
}

// NewPlayback builds a Playback starting at cycle zero.
func NewPlayback(id string, p pattern.Pattern, cps float64, seed uint64) *Playback {
	return &Playback{ID: id, Pattern: p, CPS: cps, Seed: seed, pos: rational.Zero}
}

// Position returns the next cycle position Advance will query from.
func (pb *Playback) Position() rational.Rational { return pb.pos }

// Advance queries the next window cycles of the pattern and sends a Schedule
// command for every onset event, then moves the position forward. Continuous
// events (no whole) are control values, never triggered. A full command
// channel drops the remainder of the window's events — overload degrades to
// silence rather than blocking the producer, matching the engine's own lag
// policy. It returns how many commands were sent.
func (pb *Playback) Advance(l *link.Link, window rational.Rational) int {
	from := pb.pos
	to := from.Add(window)
	pb.pos = to

	ctx := pattern.NewQueryContext(pb.Seed)
	sent := 0
	for _, ev := range pb.Pattern.Query(from, to, ctx) {
		if !ev.HasOnset() {
			continue
		}
		cmd := link.Schedule{
			Playback:       pb.ID,
			StartTimeSec:   ev.Whole.Begin.Float64() / pb.CPS,
			GateEndTimeSec: ev.Whole.End.Float64() / pb.CPS,
			Data:           ev.Data,
		}
		if !l.Send(cmd) {
			break
		}
		sent++
	}
	return sent
}

// Stop sends the playback's Cleanup command.
func (pb *Playback) Stop(l *link.Link) bool {
	return l.Send(link.Cleanup{Playback: pb.ID})
}
