// Package link is the command/feedback channel between the pattern engine's
// producer threads and the audio thread: a typed, closed sum of commands
// delivered over buffered channels. The audio thread drains inbound
// commands with bounded work per block and emits sample requests outbound,
// never blocking on either side.
package link

import (
	"fmt"

	"github.com/schollz/collidertracker/internal/pattern"
)

// SampleRequest identifies one sample the audio side wants PCM for.
type SampleRequest struct {
	Bank  string
	Sound string
	Index int
	Note  float64
}

// Key renders the registry key this request resolves under. Bank is folded
// in only when set, so bare sound names stay readable ("bd:0").
func (r SampleRequest) Key() string {
	if r.Bank != "" {
		return fmt.Sprintf("%s/%s:%d", r.Bank, r.Sound, r.Index)
	}
	return fmt.Sprintf("%s:%d", r.Sound, r.Index)
}

// Command is the closed set of messages the audio thread ingests at the
// start of each block. Implementations are value types; the audio thread
// never mutates them.
type Command interface{ isCommand() }

// SampleComplete delivers a sample's full PCM in one message.
type SampleComplete struct {
	Req        SampleRequest
	PitchHz    float64
	Note       float64
	SampleRate int
	Channels   int
	Frames     [][2]float32
}

// SampleChunk delivers one slice of a sample's PCM at a frame offset; IsLast
// promotes the accumulated buffer to complete. Chunking keeps per-message
// work bounded when the transport stutters on large transfers.
type SampleChunk struct {
	Req         SampleRequest
	Offset      int
	TotalFrames int
	PitchHz     float64
	Note        float64
	SampleRate  int
	Channels    int
	Frames      [][2]float32
	IsLast      bool
}

// SampleNotFound reports that the loader cannot resolve a request; the
// audio side marks the registry entry terminal and drops voices that need it.
type SampleNotFound struct {
	Req SampleRequest
}

// Schedule asks the audio thread to play one voice. StartTimeSec and
// GateEndTimeSec are in the playback's own timeline, anchored to "now" the
// first time the audio thread sees this playback id.
type Schedule struct {
	Playback       string
	StartTimeSec   float64
	GateEndTimeSec float64
	Data           pattern.VoiceData
}

// Cleanup tears down one playback: its epoch anchor and any pending or
// active voices it scheduled.
type Cleanup struct {
	Playback string
}

// SetBackendStart fixes the audio backend's start time, the single mutable
// global clock anchor all absolute times derive from.
type SetBackendStart struct {
	StartTimeSec float64
}

func (SampleComplete) isCommand()  {}
func (SampleChunk) isCommand()     {}
func (SampleNotFound) isCommand()  {}
func (Schedule) isCommand()        {}
func (Cleanup) isCommand()         {}
func (SetBackendStart) isCommand() {}

// Feedback is the closed set of messages the audio thread emits back to the
// producer side.
type Feedback interface{ isFeedback() }

// RequestSample asks the loader to deliver PCM for one sample identity. It
// is emitted at most once per identity; the registry suppresses duplicates.
type RequestSample struct {
	Playback string
	Req      SampleRequest
}

func (RequestSample) isFeedback() {}

// Link pairs the two buffered channels. Sends never block: a full channel
// reports failure to the caller instead of stalling a producer or, worse,
// the audio thread.
type Link struct {
	commands chan Command
	feedback chan Feedback
}

// New builds a Link whose channels each buffer capacity messages.
func New(capacity int) *Link {
	if capacity < 1 {
		capacity = 1
	}
	return &Link{
		commands: make(chan Command, capacity),
		feedback: make(chan Feedback, capacity),
	}
}

// Send enqueues a command for the audio thread, reporting false if the
// channel is full.
func (l *Link) Send(c Command) bool {
	select {
	case l.commands <- c:
		return true
	default:
		return false
	}
}

// Drain hands up to max pending commands to fn, in arrival order, and
// returns how many were processed. The audio thread calls this once per
// block with a bound so ingest work stays deterministic.
func (l *Link) Drain(max int, fn func(Command)) int {
	n := 0
	for n < max {
		select {
		case c := <-l.commands:
			fn(c)
			n++
		default:
			return n
		}
	}
	return n
}

// Emit enqueues feedback for the producer side, reporting false if the
// channel is full.
func (l *Link) Emit(f Feedback) bool {
	select {
	case l.feedback <- f:
		return true
	default:
		return false
	}
}

// DrainFeedback hands up to max pending feedback messages to fn and returns
// how many were processed.
func (l *Link) DrainFeedback(max int, fn func(Feedback)) int {
	n := 0
	for n < max {
		select {
		case f := <-l.feedback:
			fn(f)
			n++
		default:
			return n
		}
	}
	return n
}
