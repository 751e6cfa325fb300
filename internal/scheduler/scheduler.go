// Package scheduler turns pattern-onset events into voices ordered by
// absolute start time and hands them to the audio thread one render block
// at a time. A voice colliding with another in its cut group hard-stops the
// previous occupant rather than layering over it.
package scheduler

import (
	"container/heap"
	"fmt"
	"sync"

	"github.com/schollz/collidertracker/internal/pattern"
)

// VoiceID identifies one scheduled voice instance, used to cancel or look up
// a specific playing voice (e.g. from a cut-group collision).
type VoiceID uint64

// ScheduledVoice is one pattern event promoted for playback: a start time in
// absolute samples, the VoiceData needed to build it, and bookkeeping the
// scheduler itself owns.
type ScheduledVoice struct {
	ID        VoiceID
	StartSamp int64
	GateSamp  int64 // absolute sample frame the note's gate ends; 0 means "caller decides"
	Playback  string
	Data      pattern.VoiceData
	Epoch     uint64 // playback epoch this voice belongs to; see Scheduler.Epoch
}

// heapItems is a container/heap.Interface over ScheduledVoice ordered by
// StartSamp.
type heapItems []ScheduledVoice

func (h heapItems) Len() int { return len(h) }
func (h heapItems) Less(i, j int) bool {
	if h[i].StartSamp != h[j].StartSamp {
		return h[i].StartSamp < h[j].StartSamp
	}
	return h[i].ID < h[j].ID
}
func (h heapItems) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *heapItems) Push(x any)   { *h = append(*h, x.(ScheduledVoice)) }
func (h *heapItems) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ActiveVoice is a voice that has started and has not yet been removed by
// Process (either it finished or was cut).
type ActiveVoice struct {
	ScheduledVoice
	removed bool
}

// Stats is a read-only snapshot of scheduler occupancy, exposed for
// internal/statusview and internal/session diagnostics. It is built by
// copying fields under the scheduler's lock and must never be mutated
// after it's returned; the audio thread stays the only writer.
type Stats struct {
	PendingCount    int
	ActiveCount     int
	ActiveByOrbit   map[int]int
	NextStartSample int64
	HasNext         bool
}

// Scheduler holds the pending min-heap, the active voice list, and the
// cut-group occupancy map. Every method takes the same mutex, so a status
// view running on another goroutine can poll Stats safely.
type Scheduler struct {
	mu        sync.Mutex
	pending   heapItems
	active    []ActiveVoice
	cutGroups map[int]VoiceID // cut group id -> currently-holding voice id
	nextID    VoiceID
	epoch     uint64
}

// New builds an empty Scheduler.
func New() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.pending)
	s.cutGroups = make(map[int]VoiceID)
	return s
}

// Epoch returns the scheduler's current playback epoch. Every call to Reset
// increments it; voices scheduled under a stale epoch are never activated,
// which is how a hard reset (rewind, panic-stop) invalidates in-flight
// scheduling without having to walk and individually cancel the heap.
func (s *Scheduler) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Reset clears all pending and active voices and bumps the epoch.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = s.pending[:0]
	s.active = s.active[:0]
	s.cutGroups = make(map[int]VoiceID)
	s.epoch++
}

// Schedule enqueues one voice to start at startSamp, tagged with the
// scheduler's current epoch. It returns the assigned VoiceID.
func (s *Scheduler) Schedule(startSamp int64, data pattern.VoiceData) VoiceID {
	return s.ScheduleVoice(ScheduledVoice{StartSamp: startSamp, Data: data})
}

// ScheduleVoice enqueues sv, overwriting its ID and Epoch with the
// scheduler's own bookkeeping; GateSamp and Playback pass through untouched.
func (s *Scheduler) ScheduleVoice(sv ScheduledVoice) VoiceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sv.ID = s.nextID
	sv.Epoch = s.epoch
	heap.Push(&s.pending, sv)
	return sv.ID
}

// CleanupPlayback drops every pending and active voice belonging to the
// given playback id, without disturbing other playbacks or bumping the
// global epoch.
func (s *Scheduler) CleanupPlayback(playback string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pending[:0]
	for _, sv := range s.pending {
		if sv.Playback != playback {
			kept = append(kept, sv)
		}
	}
	s.pending = kept
	heap.Init(&s.pending)
	for i := range s.active {
		if s.active[i].Playback == playback {
			s.active[i].removed = true
		}
	}
}

// Process advances the scheduler to nowSamp: every pending voice whose
// StartSamp <= nowSamp is popped off the heap and promoted into the active
// list, with cut-group collisions resolved by hard-stopping the previous
// occupant (no fade) rather than queuing it. Voices
// from a stale epoch are silently dropped. It returns the voices newly
// activated this call, in start-time order, for the voice factory to build.
func (s *Scheduler) Process(nowSamp int64) []ScheduledVoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	var started []ScheduledVoice
	for s.pending.Len() > 0 && s.pending[0].StartSamp <= nowSamp {
		sv := heap.Pop(&s.pending).(ScheduledVoice)
		if sv.Epoch != s.epoch {
			continue
		}
		s.activateLocked(sv)
		started = append(started, sv)
	}
	return started
}

func (s *Scheduler) activateLocked(sv ScheduledVoice) {
	if sv.Data.Cut != nil {
		group := *sv.Data.Cut
		if heldID, ok := s.cutGroups[group]; ok {
			s.stopLocked(heldID)
		}
		s.cutGroups[group] = sv.ID
	}
	s.active = append(s.active, ActiveVoice{ScheduledVoice: sv})
}

// Stop hard-stops the active voice with the given id, if it is still
// active. A voice that has already been removed (finished naturally, or
// already stopped) is a no-op.
func (s *Scheduler) Stop(id VoiceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(id)
}

func (s *Scheduler) stopLocked(id VoiceID) {
	for i := range s.active {
		if s.active[i].ID == id && !s.active[i].removed {
			s.active[i].removed = true
			return
		}
	}
}

// Active returns the voices currently active (not yet removed). The
// returned slice is an internal-use snapshot; callers must not retain it
// across a subsequent Reap call.
func (s *Scheduler) Active() []ActiveVoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActiveVoice, 0, len(s.active))
	for _, v := range s.active {
		if !v.removed {
			out = append(out, v)
		}
	}
	return out
}

// Reap removes finished/stopped voices from the active list via swap-remove
// (order-agnostic, O(1) per removal), given a predicate reporting whether a
// still-present voice has finished
// rendering. isDone is evaluated only for voices not already marked
// removed by a cut-group collision.
func (s *Scheduler) Reap(isDone func(ScheduledVoice) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.active)
	for i := 0; i < n; {
		v := s.active[i]
		done := v.removed || isDone(v.ScheduledVoice)
		if done {
			if v.Data.Cut != nil {
				if held, ok := s.cutGroups[*v.Data.Cut]; ok && held == v.ID {
					delete(s.cutGroups, *v.Data.Cut)
				}
			}
			n--
			s.active[i] = s.active[n]
			continue
		}
		i++
	}
	s.active = s.active[:n]
}

// Stats returns a read-only occupancy snapshot.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	byOrbit := make(map[int]int)
	activeCount := 0
	for _, v := range s.active {
		if v.removed {
			continue
		}
		activeCount++
		byOrbit[v.Data.Orbit]++
	}
	st := Stats{
		PendingCount:  s.pending.Len(),
		ActiveCount:   activeCount,
		ActiveByOrbit: byOrbit,
	}
	if s.pending.Len() > 0 {
		st.HasNext = true
		st.NextStartSample = s.pending[0].StartSamp
	}
	return st
}

// String renders a one-line summary for logs and diagnostics.
func (st Stats) String() string {
	return fmt.Sprintf("pending=%d active=%d orbits=%d", st.PendingCount, st.ActiveCount, len(st.ActiveByOrbit))
}
