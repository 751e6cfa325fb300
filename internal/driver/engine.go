// Package driver converts the host's block-aligned audio callback into the
// engine's per-block cycle: drain commands, promote due voices, render the
// active set into orbit buses, and sum the buses to stereo out.
package driver

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/schollz/collidertracker/internal/link"
	"github.com/schollz/collidertracker/internal/orbit"
	"github.com/schollz/collidertracker/internal/sampleregistry"
	"github.com/schollz/collidertracker/internal/scheduler"
	"github.com/schollz/collidertracker/internal/voicefactory"
)

// OrbitConfig holds the effect parameters every lazily-allocated orbit bus
// is built with.
type OrbitConfig struct {
	DelayTimeSec  float64
	DelayFeedback float64
	RoomSize      float64
	Damping       float64
}

// Config fixes the engine's immutable render parameters.
type Config struct {
	SampleRate          int
	BlockSize           int
	CPS                 float64 // cycles per second, the tempo
	MaxCommandsPerBlock int
	Orbit               OrbitConfig
}

// DefaultConfig returns the parameters the CLI starts from: 48 kHz, 256-frame
// blocks, half a cycle per second (120 BPM at 4 beats per cycle).
func DefaultConfig() Config {
	return Config{
		SampleRate:          48000,
		BlockSize:           256,
		CPS:                 0.5,
		MaxCommandsPerBlock: 64,
		Orbit: OrbitConfig{
			DelayTimeSec:  0.375,
			DelayFeedback: 0.4,
			RoomSize:      0.6,
			Damping:       0.3,
		},
	}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("driver: sample rate must be positive, got %d", c.SampleRate)
	}
	if c.BlockSize < 1 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("driver: block size must be a power of two, got %d", c.BlockSize)
	}
	if c.CPS <= 0 {
		return fmt.Errorf("driver: cycles-per-second must be positive, got %v", c.CPS)
	}
	return nil
}

// Stats is the engine's diagnostic snapshot: the scheduler occupancy plus
// the render cursor.
type Stats struct {
	scheduler.Stats
	CursorSec  float64
	OrbitCount int
}

// Engine owns the audio-thread state: the scheduler, the built voices, the
// orbit buses, and the playback-epoch anchors. All methods other than Stats
// must be called from the single render goroutine.
type Engine struct {
	cfg      Config
	link     *link.Link
	registry *sampleregistry.Registry
	sched    *scheduler.Scheduler

	voices     map[scheduler.VoiceID]*voicefactory.Voice
	buses      map[int]*orbit.Bus
	orbitOrder []int

	epochs           map[string]int64 // playback id -> anchor frame
	backendStartSec  float64
	haveBackendStart bool
	cursor           atomic.Int64 // written by ProcessBlock, read by Stats pollers
	orbitCount       atomic.Int32

	// per-block scratch, reused to keep the hot path allocation-free
	finished  map[scheduler.VoiceID]bool
	activeIDs map[scheduler.VoiceID]bool
}

// NewEngine builds an Engine reading commands from l.
func NewEngine(cfg Config, l *link.Link) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxCommandsPerBlock < 1 {
		cfg.MaxCommandsPerBlock = 64
	}
	return &Engine{
		cfg:       cfg,
		link:      l,
		registry:  sampleregistry.New(),
		sched:     scheduler.New(),
		voices:    make(map[scheduler.VoiceID]*voicefactory.Voice),
		buses:     make(map[int]*orbit.Bus),
		epochs:    make(map[string]int64),
		finished:  make(map[scheduler.VoiceID]bool),
		activeIDs: make(map[scheduler.VoiceID]bool),
	}, nil
}

// Registry exposes the engine's sample store, for offline renderers and
// tests that pre-load PCM instead of answering RequestSample feedback.
func (e *Engine) Registry() *sampleregistry.Registry { return e.registry }

// CursorSec returns the render cursor in seconds since the first block.
func (e *Engine) CursorSec() float64 {
	return float64(e.cursor.Load()) / float64(e.cfg.SampleRate)
}

// Stats returns a diagnostic snapshot safe to call from another goroutine.
func (e *Engine) Stats() Stats {
	return Stats{
		Stats:      e.sched.Stats(),
		CursorSec:  e.CursorSec(),
		OrbitCount: int(e.orbitCount.Load()),
	}
}

// ProcessBlock renders the next len(out) frames into out. The host must call
// it with a fixed power-of-two block length matching Config.BlockSize.
func (e *Engine) ProcessBlock(out [][2]float32) error {
	frames := len(out)
	if frames != e.cfg.BlockSize {
		return fmt.Errorf("driver: block of %d frames, engine configured for %d", frames, e.cfg.BlockSize)
	}
	for i := range out {
		out[i] = [2]float32{}
	}
	blockStart := e.cursor.Load()
	blockEnd := blockStart + int64(frames)

	e.ingestCommands()
	e.promote(blockStart, blockEnd)
	e.renderActive(out, blockStart, frames)
	e.reap()

	e.cursor.Store(blockEnd)
	return nil
}

// ingestCommands drains the inbound channel with bounded work per block.
func (e *Engine) ingestCommands() {
	e.link.Drain(e.cfg.MaxCommandsPerBlock, func(c link.Command) {
		switch v := c.(type) {
		case link.SetBackendStart:
			// Set once; all subsequent times derive from it.
			if !e.haveBackendStart {
				e.backendStartSec = v.StartTimeSec
				e.haveBackendStart = true
			}
		case link.SampleComplete:
			key := v.Req.Key()
			e.registry.Complete(key, v.SampleRate, v.Channels, v.Frames)
			if v.PitchHz != 0 || v.Note != 0 {
				e.registry.SetTuning(key, v.PitchHz, v.Note)
			}
		case link.SampleChunk:
			key := v.Req.Key()
			e.registry.AppendChunk(key, v.Offset, v.SampleRate, v.Channels, v.Frames)
			if v.PitchHz != 0 || v.Note != 0 {
				e.registry.SetTuning(key, v.PitchHz, v.Note)
			}
			if v.IsLast {
				e.registry.Complete(key, v.SampleRate, v.Channels, nil)
			}
		case link.SampleNotFound:
			e.registry.NotFound(v.Req.Key())
		case link.Schedule:
			e.schedule(v)
		case link.Cleanup:
			delete(e.epochs, v.Playback)
			e.sched.CleanupPlayback(v.Playback)
		}
	})
}

// schedule anchors the playback's timeline at the cursor the first time its
// id is seen, so a freshly-started playback begins now rather than in the
// past, then enqueues the voice and lazily requests its sample.
func (e *Engine) schedule(cmd link.Schedule) {
	sr := float64(e.cfg.SampleRate)
	anchor, ok := e.epochs[cmd.Playback]
	if !ok {
		anchor = e.cursor.Load()
		e.epochs[cmd.Playback] = anchor
	}
	start := anchor + int64(math.Round(cmd.StartTimeSec*sr))
	gate := anchor + int64(math.Round(cmd.GateEndTimeSec*sr))

	d := cmd.Data
	if d.Sound != "" && !voicefactory.IsSynthSound(d.Sound) {
		req := link.SampleRequest{Sound: d.Sound}
		if d.Index != nil {
			req.Index = *d.Index
		}
		if d.Note != nil {
			req.Note = *d.Note
		}
		if e.registry.Request(req.Key()) {
			e.link.Emit(link.RequestSample{Playback: cmd.Playback, Req: req})
		}
	}
	e.sched.ScheduleVoice(scheduler.ScheduledVoice{
		StartSamp: start,
		GateSamp:  gate,
		Playback:  cmd.Playback,
		Data:      d,
	})
}

// promote pops due voices off the heap and builds them. Voices more than one
// block late are dropped (graceful recovery from lag), as are voices whose
// sample never materialized.
func (e *Engine) promote(blockStart, blockEnd int64) {
	sr := float64(e.cfg.SampleRate)
	for _, sv := range e.sched.Process(blockEnd - 1) {
		if sv.StartSamp < blockStart-int64(e.cfg.BlockSize) {
			e.sched.Stop(sv.ID)
			continue
		}
		gateFrames := sv.GateSamp - sv.StartSamp
		if gateFrames <= 0 {
			gateFrames = int64(sr / float64(4*e.cfg.CPS)) // quarter cycle fallback
		}
		v, err := voicefactory.New(sv, sv.StartSamp, sr, gateFrames, e.registry)
		if err != nil {
			e.sched.Stop(sv.ID)
			continue
		}
		e.voices[sv.ID] = v
	}
}

// bus returns orbit n's bus, allocating it on first use.
func (e *Engine) bus(n int) *orbit.Bus {
	if b, ok := e.buses[n]; ok {
		return b
	}
	o := e.cfg.Orbit
	b := orbit.NewBus(e.cfg.BlockSize, float64(e.cfg.SampleRate), o.DelayTimeSec, o.DelayFeedback, o.RoomSize, o.Damping)
	e.buses[n] = b
	e.orbitOrder = append(e.orbitOrder, n)
	e.orbitCount.Store(int32(len(e.orbitOrder)))
	return b
}

func (e *Engine) renderActive(out [][2]float32, blockStart int64, frames int) {
	for _, n := range e.orbitOrder {
		e.buses[n].Reset()
	}
	for _, av := range e.sched.Active() {
		v, ok := e.voices[av.ID]
		if !ok {
			e.finished[av.ID] = true
			continue
		}
		b := e.bus(v.Orbit)
		v.UpdateFilterCutoffs(v.Envelope.Level())
		for i := 0; i < frames; i++ {
			frame := blockStart + int64(i)
			if frame < v.StartFrame() {
				continue
			}
			l, r, alive := v.Render(frame)
			if !alive {
				e.finished[av.ID] = true
				break
			}
			b.Add(i, l, r, v.DelaySend, v.ReverbSend)
		}
	}
	// Buses always tick, even voiceless, so delay and reverb tails keep
	// flowing after the dry signal stops.
	for _, n := range e.orbitOrder {
		b := e.buses[n]
		for i := 0; i < frames; i++ {
			l, r := b.Mix(i)
			out[i][0] += float32(l)
			out[i][1] += float32(r)
		}
	}
}

func (e *Engine) reap() {
	e.sched.Reap(func(sv scheduler.ScheduledVoice) bool {
		return e.finished[sv.ID]
	})
	for id := range e.activeIDs {
		delete(e.activeIDs, id)
	}
	for _, av := range e.sched.Active() {
		e.activeIDs[av.ID] = true
	}
	for id := range e.voices {
		if !e.activeIDs[id] {
			delete(e.voices, id)
		}
	}
	for id := range e.finished {
		delete(e.finished, id)
	}
}
