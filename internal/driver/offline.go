package driver

import (
	"math"

	"github.com/schollz/collidertracker/internal/link"
	"github.com/schollz/collidertracker/internal/pattern"
	"github.com/schollz/collidertracker/internal/rational"
	"github.com/schollz/collidertracker/internal/voicefactory"
)

// SampleResolver answers a sample request with a PCM-bearing command (a
// SampleComplete or a final SampleChunk). Returning false marks the sample
// not found.
type SampleResolver func(req link.SampleRequest) (link.Command, bool)

// offlineTailSec is how long rendering continues past the last cycle so
// release tails and effect tails ring out.
const offlineTailSec = 2.0

// RenderOffline plays pat for the given number of cycles through a private
// link and engine, resolving sample requests synchronously via resolve, and
// returns the rendered stereo frames. Rendering is deterministic: the same
// pattern, config, seed and resolver yield bit-identical output.
func RenderOffline(pat pattern.Pattern, cycles float64, cfg Config, seed uint64, resolve SampleResolver) ([][2]float32, error) {
	l := link.New(4096)
	e, err := NewEngine(cfg, l)
	if err != nil {
		return nil, err
	}
	pb := NewPlayback("offline", pat, cfg.CPS, seed)

	// Pre-resolve every sample the pattern will need: a real-time engine
	// may miss a sample's very first onset while its PCM is in flight, but
	// an offline render has no reason to.
	if resolve != nil {
		prefetchSamples(pat, cycles, seed, l, resolve)
	}

	totalSec := cycles/cfg.CPS + offlineTailSec
	totalFrames := int(math.Ceil(totalSec * float64(cfg.SampleRate)))
	out := make([][2]float32, 0, totalFrames+cfg.BlockSize)
	block := make([][2]float32, cfg.BlockSize)

	// Scheduling runs one second ahead of the render cursor so sample
	// requests resolve before their voices are due.
	const lookaheadSec = 1.0
	for len(out) < totalFrames {
		for pb.Position().Float64() < cycles &&
			pb.Position().Float64()/cfg.CPS < e.CursorSec()+lookaheadSec {
			window := rational.One
			if remaining := rational.FromFloat(cycles).Sub(pb.Position()); remaining.Lt(window) {
				window = remaining
			}
			pb.Advance(l, window)
		}
		l.DrainFeedback(64, func(f link.Feedback) {
			rs, ok := f.(link.RequestSample)
			if !ok {
				return
			}
			if resolve != nil {
				if cmd, found := resolve(rs.Req); found {
					l.Send(cmd)
					return
				}
			}
			l.Send(link.SampleNotFound{Req: rs.Req})
		})
		if err := e.ProcessBlock(block); err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	return out[:totalFrames], nil
}

func prefetchSamples(pat pattern.Pattern, cycles float64, seed uint64, l *link.Link, resolve SampleResolver) {
	ctx := pattern.NewQueryContext(seed)
	span := rational.FromInt(int64(math.Ceil(cycles)))
	seen := make(map[string]bool)
	for _, ev := range pat.Query(rational.Zero, span, ctx) {
		s := ev.Data.Sound
		if s == "" || voicefactory.IsSynthSound(s) {
			continue
		}
		req := link.SampleRequest{Sound: s}
		if ev.Data.Index != nil {
			req.Index = *ev.Data.Index
		}
		if ev.Data.Note != nil {
			req.Note = *ev.Data.Note
		}
		if seen[req.Key()] {
			continue
		}
		seen[req.Key()] = true
		if cmd, ok := resolve(req); ok {
			l.Send(cmd)
		} else {
			l.Send(link.SampleNotFound{Req: req})
		}
	}
}
