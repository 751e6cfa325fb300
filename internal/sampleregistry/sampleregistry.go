// Package sampleregistry tracks sample PCM data as it arrives, possibly in
// chunks, from an external loader, and serves it to the voice factory once
// complete. It never decodes audio itself on the hot path — decoding is a
// convenience adapter (DecodeWAV) for callers that want to feed a registry
// from a WAV file directly, such as the CLI's offline renderer and tests.
package sampleregistry

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// State is the lifecycle of one sample request.
type State int

const (
	Requested State = iota
	Partial
	Complete
	NotFound
)

func (s State) String() string {
	switch s {
	case Requested:
		return "requested"
	case Partial:
		return "partial"
	case Complete:
		return "complete"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Sample holds one sample's decoded PCM and playback metadata once complete.
// PitchHz/Note are the recorded root pitch of the sample, when the loader
// knows it; a zero PitchHz means "untuned" and the voice factory treats the
// sample as playing at unity rate for its anchor note.
type Sample struct {
	Key        string
	State      State
	SampleRate int
	Channels   int
	PitchHz    float64
	Note       float64
	Frames     [][2]float32 // interleaved-to-stereo, mono samples duplicated to both channels
}

// Registry is a concurrency-safe store of sample state, keyed by a caller-
// supplied string (bank/index pair rendered by the caller, e.g. "bd:3").
// A single mutex is enough here: the registry is touched by the command
// producer (writing) and the voice factory (reading) at event-build time,
// never from inside the audio-thread render loop itself — the render loop
// only touches Sample values it has already captured via Get.
type Registry struct {
	mu      sync.RWMutex
	samples map[string]*Sample
}

// New builds an empty Registry.
func New() *Registry { return &Registry{samples: make(map[string]*Sample)} }

// Request marks key as wanted, returning false if it was already requested
// or resolved; a request is issued at most once per identity.
func (r *Registry) Request(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.samples[key]; exists {
		return false
	}
	r.samples[key] = &Sample{Key: key, State: Requested}
	return true
}

// AppendChunk writes PCM frames into a sample in progress at the given frame
// offset, growing the buffer as needed, and transitions the sample from
// Requested to Partial. Chunks carry an explicit offset so a stuttering
// transport can deliver them out of order without corrupting the buffer.
// Appending to an unknown key implicitly requests it first.
func (r *Registry) AppendChunk(key string, offset, sampleRate, channels int, frames [][2]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.samples[key]
	if !ok {
		s = &Sample{Key: key}
		r.samples[key] = s
	}
	s.SampleRate = sampleRate
	s.Channels = channels
	if need := offset + len(frames); need > len(s.Frames) {
		grown := make([][2]float32, need)
		copy(grown, s.Frames)
		s.Frames = grown
	}
	copy(s.Frames[offset:], frames)
	if s.State != Complete {
		s.State = Partial
	}
}

// SetTuning records the sample's root pitch metadata, delivered alongside
// the PCM by the loader.
func (r *Registry) SetTuning(key string, pitchHz, note float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.samples[key]
	if !ok {
		s = &Sample{Key: key}
		r.samples[key] = s
	}
	s.PitchHz = pitchHz
	s.Note = note
}

// Complete marks a sample as fully arrived, replacing any partial data with
// the final frames given (or keeping what's accumulated if frames is nil).
func (r *Registry) Complete(key string, sampleRate, channels int, frames [][2]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.samples[key]
	if !ok {
		s = &Sample{Key: key}
		r.samples[key] = s
	}
	if frames != nil {
		s.Frames = frames
	}
	s.SampleRate = sampleRate
	s.Channels = channels
	s.State = Complete
}

// NotFound marks a sample request as permanently unresolvable; the voice
// factory treats this the same as a missing sample (degrade silently),
// without retrying the request.
func (r *Registry) NotFound(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.samples[key]
	if !ok {
		s = &Sample{Key: key}
		r.samples[key] = s
	}
	s.State = NotFound
}

// Get returns a copy of the sample's current state, or (Sample{}, false) if
// key has never been requested. Frames is shared, not copied — callers must
// treat it as read-only, matching the "PCM arrives pre-decoded, then is
// immutable" contract.
func (r *Registry) Get(key string) (Sample, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.samples[key]
	if !ok {
		return Sample{}, false
	}
	return *s, true
}

// DecodeWAV decodes a WAV payload into the interleaved-stereo frame format
// AppendChunk/Complete expect — the same go-audio stack internal/getbpm
// uses for header inspection, driven to a full PCM decode here for offline
// rendering and tests.
func DecodeWAV(payload []byte) (sampleRate, channels int, frames [][2]float32, err error) {
	d := wav.NewDecoder(bytes.NewReader(payload))
	if !d.IsValidFile() {
		return 0, 0, nil, fmt.Errorf("sampleregistry: invalid WAV payload")
	}
	buf, decErr := d.FullPCMBuffer()
	if decErr != nil {
		return 0, 0, nil, fmt.Errorf("sampleregistry: decode WAV: %w", decErr)
	}
	return framesFromBuffer(buf)
}

func framesFromBuffer(buf *audio.IntBuffer) (sampleRate, channels int, frames [][2]float32, err error) {
	format := buf.Format
	if format == nil {
		return 0, 0, nil, fmt.Errorf("sampleregistry: WAV buffer missing format")
	}
	sampleRate = format.SampleRate
	channels = format.NumChannels
	if channels <= 0 {
		return 0, 0, nil, fmt.Errorf("sampleregistry: invalid channel count %d", channels)
	}
	maxVal := float32(int(1) << (buf.SourceBitDepth - 1))
	if maxVal <= 0 {
		maxVal = 1 << 15
	}
	n := len(buf.Data) / channels
	frames = make([][2]float32, n)
	for i := 0; i < n; i++ {
		l := float32(buf.Data[i*channels]) / maxVal
		r := l
		if channels > 1 {
			r = float32(buf.Data[i*channels+1]) / maxVal
		}
		frames[i] = [2]float32{l, r}
	}
	return sampleRate, channels, frames, nil
}
