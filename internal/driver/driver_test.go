package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/collidertracker/internal/dsl"
	"github.com/schollz/collidertracker/internal/link"
	"github.com/schollz/collidertracker/internal/pattern"
	"github.com/schollz/collidertracker/internal/rational"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	cfg.BlockSize = 64
	cfg.CPS = 1
	return cfg
}

func TestConfigRejectsNonPowerOfTwoBlock(t *testing.T) {
	cfg := testConfig()
	cfg.BlockSize = 200
	_, err := NewEngine(cfg, link.New(16))
	assert.Error(t, err)
}

func TestProcessBlockRejectsWrongBlockLength(t *testing.T) {
	cfg := testConfig()
	e, err := NewEngine(cfg, link.New(16))
	require.NoError(t, err)
	assert.Error(t, e.ProcessBlock(make([][2]float32, 32)))
}

func TestScheduleProducesAudio(t *testing.T) {
	cfg := testConfig()
	l := link.New(64)
	e, err := NewEngine(cfg, l)
	require.NoError(t, err)

	note := 60.0
	l.Send(link.Schedule{
		Playback:       "pb",
		StartTimeSec:   0,
		GateEndTimeSec: 0.1,
		Data:           pattern.VoiceData{Note: &note, Sound: "sine"},
	})

	block := make([][2]float32, cfg.BlockSize)
	require.NoError(t, e.ProcessBlock(block))

	energy := 0.0
	for _, fr := range block {
		energy += float64(fr[0])*float64(fr[0]) + float64(fr[1])*float64(fr[1])
	}
	assert.Greater(t, energy, 0.0, "a scheduled sine voice should produce signal")
}

func TestPlaybackAnchorsAtFirstSight(t *testing.T) {
	cfg := testConfig()
	l := link.New(64)
	e, err := NewEngine(cfg, l)
	require.NoError(t, err)

	// Run the cursor forward before the playback's first event arrives.
	block := make([][2]float32, cfg.BlockSize)
	for i := 0; i < 4; i++ {
		require.NoError(t, e.ProcessBlock(block))
	}

	// An event at the playback's own time zero must play now, not be
	// treated as 4 blocks in the past and dropped.
	note := 60.0
	l.Send(link.Schedule{
		Playback:       "late-start",
		StartTimeSec:   0,
		GateEndTimeSec: 0.05,
		Data:           pattern.VoiceData{Note: &note, Sound: "sine"},
	})
	require.NoError(t, e.ProcessBlock(block))
	assert.Equal(t, 1, e.Stats().ActiveCount)
}

func TestSampleRequestEmittedOncePerIdentity(t *testing.T) {
	cfg := testConfig()
	l := link.New(64)
	e, err := NewEngine(cfg, l)
	require.NoError(t, err)

	data := pattern.VoiceData{Sound: "bd"}
	l.Send(link.Schedule{Playback: "pb", StartTimeSec: 0, GateEndTimeSec: 0.1, Data: data})
	l.Send(link.Schedule{Playback: "pb", StartTimeSec: 0.5, GateEndTimeSec: 0.6, Data: data})

	block := make([][2]float32, cfg.BlockSize)
	require.NoError(t, e.ProcessBlock(block))

	var reqs []link.RequestSample
	l.DrainFeedback(16, func(f link.Feedback) {
		reqs = append(reqs, f.(link.RequestSample))
	})
	require.Len(t, reqs, 1, "duplicate sample requests must be suppressed")
	assert.Equal(t, "bd:0", reqs[0].Req.Key())
}

func TestMissingSampleDegradesToSilence(t *testing.T) {
	cfg := testConfig()
	l := link.New(64)
	e, err := NewEngine(cfg, l)
	require.NoError(t, err)

	l.Send(link.Schedule{Playback: "pb", StartTimeSec: 0, GateEndTimeSec: 0.1, Data: pattern.VoiceData{Sound: "missing"}})
	block := make([][2]float32, cfg.BlockSize)
	require.NoError(t, e.ProcessBlock(block))

	for _, fr := range block {
		assert.Zero(t, fr[0])
		assert.Zero(t, fr[1])
	}
	// The voice must not linger active.
	require.NoError(t, e.ProcessBlock(block))
	assert.Equal(t, 0, e.Stats().ActiveCount)
}

func TestCleanupRemovesPendingVoices(t *testing.T) {
	cfg := testConfig()
	l := link.New(64)
	e, err := NewEngine(cfg, l)
	require.NoError(t, err)

	note := 60.0
	l.Send(link.Schedule{Playback: "pb", StartTimeSec: 10, GateEndTimeSec: 10.1, Data: pattern.VoiceData{Note: &note}})
	block := make([][2]float32, cfg.BlockSize)
	require.NoError(t, e.ProcessBlock(block))
	assert.Equal(t, 1, e.Stats().PendingCount)

	l.Send(link.Cleanup{Playback: "pb"})
	require.NoError(t, e.ProcessBlock(block))
	assert.Equal(t, 0, e.Stats().PendingCount)
}

func TestPlaybackAdvanceSchedulesOnsetsOnly(t *testing.T) {
	l := link.New(64)
	// One discrete note stacked with a continuous signal: only the note
	// triggers.
	pat := dsl.Stack(dsl.Notes("c4"), dsl.Sine())
	pb := NewPlayback("pb", pat, 1, 1)

	sent := pb.Advance(l, rational.One)
	assert.Equal(t, 1, sent)
	assert.True(t, pb.Position().Equal(rational.One))

	var cmds []link.Schedule
	l.Drain(16, func(c link.Command) { cmds = append(cmds, c.(link.Schedule)) })
	require.Len(t, cmds, 1)
	assert.Equal(t, 0.0, cmds[0].StartTimeSec)
	assert.Equal(t, 1.0, cmds[0].GateEndTimeSec)
}

func TestRenderOfflineIsDeterministic(t *testing.T) {
	cfg := testConfig()
	pat := dsl.Notes("c4", "e4", "g4", "c5")

	a, err := RenderOffline(pat, 2, cfg, 42, nil)
	require.NoError(t, err)
	b, err := RenderOffline(pat, 2, cfg, 42, nil)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("output diverges at frame %d: %v vs %v", i, a[i], b[i])
		}
	}

	energy := 0.0
	for _, fr := range a {
		energy += float64(fr[0]) * float64(fr[0])
	}
	assert.Greater(t, energy, 0.0)
}

func TestRenderOfflineResolvesSamples(t *testing.T) {
	cfg := testConfig()
	pat := dsl.Sound(dsl.Atom("bd"), "bd")

	frames := make([][2]float32, 400)
	for i := range frames {
		frames[i] = [2]float32{0.5, 0.5}
	}
	resolved := 0
	out, err := RenderOffline(pat, 1, cfg, 1, func(req link.SampleRequest) (link.Command, bool) {
		resolved++
		return link.SampleComplete{
			Req:        req,
			SampleRate: cfg.SampleRate,
			Channels:   2,
			Frames:     frames,
		}, true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)

	energy := 0.0
	for _, fr := range out {
		energy += float64(fr[0]) * float64(fr[0])
	}
	assert.Greater(t, energy, 0.0, "resolved sample should be audible")
}
