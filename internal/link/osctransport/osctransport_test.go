package osctransport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/collidertracker/internal/link"
	"github.com/schollz/collidertracker/internal/pattern"
)

func TestScheduleRoundTrip(t *testing.T) {
	note := 64.0
	gain := 0.8
	cut := 2
	idx := 3
	cmd := link.Schedule{
		Playback:       "pb-1",
		StartTimeSec:   1.25,
		GateEndTimeSec: 1.5,
		Data: pattern.VoiceData{
			Sound: "bd",
			Index: &idx,
			Note:  &note,
			Gain:  &gain,
			Orbit: 1,
			Cut:   &cut,
			Loop:  true,
		},
	}

	msg, err := EncodeCommand(cmd)
	require.NoError(t, err)

	got, err := DecodeSchedule(msg)
	require.NoError(t, err)
	assert.Equal(t, "pb-1", got.Playback)
	assert.Equal(t, 1.25, got.StartTimeSec)
	assert.Equal(t, 1.5, got.GateEndTimeSec)
	assert.Equal(t, "bd", got.Data.Sound)
	require.NotNil(t, got.Data.Index)
	assert.Equal(t, 3, *got.Data.Index)
	require.NotNil(t, got.Data.Note)
	assert.Equal(t, 64.0, *got.Data.Note)
	require.NotNil(t, got.Data.Gain)
	assert.Equal(t, 0.8, *got.Data.Gain)
	assert.Equal(t, 1, got.Data.Orbit)
	require.NotNil(t, got.Data.Cut)
	assert.Equal(t, 2, *got.Data.Cut)
	assert.True(t, got.Data.Loop)
}

func TestScheduleOmitsUnsetFields(t *testing.T) {
	cmd := link.Schedule{Playback: "pb", StartTimeSec: 0, GateEndTimeSec: 0.25}
	msg, err := EncodeCommand(cmd)
	require.NoError(t, err)
	// Header only: playback, start, gateEnd.
	assert.Len(t, msg.Arguments, 3)

	got, err := DecodeSchedule(msg)
	require.NoError(t, err)
	assert.Nil(t, got.Data.Note)
	assert.Nil(t, got.Data.Gain)
	assert.Equal(t, "", got.Data.Sound)
}

func TestSamplePayloadsRejected(t *testing.T) {
	_, err := EncodeCommand(link.SampleComplete{})
	assert.Error(t, err, "PCM must not travel over OSC")
}

func TestDecodeRejectsShortMessage(t *testing.T) {
	msg, err := EncodeCommand(link.Cleanup{Playback: "pb"})
	require.NoError(t, err)
	_, err = DecodeSchedule(msg)
	assert.Error(t, err)
}
