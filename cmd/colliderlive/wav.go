package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/schollz/collidertracker/internal/driver"
	"github.com/schollz/collidertracker/internal/link"
	"github.com/schollz/collidertracker/internal/sampleregistry"
)

// writeWAV encodes stereo frames as a 16-bit WAV file.
func writeWAV(path string, sampleRate int, frames [][2]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, len(frames)*2),
		SourceBitDepth: 16,
	}
	for i, fr := range frames {
		buf.Data[i*2] = pcm16(fr[0])
		buf.Data[i*2+1] = pcm16(fr[1])
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return enc.Close()
}

func pcm16(v float32) int {
	clamped := math.Max(-1, math.Min(1, float64(v)))
	return int(clamped * 32767)
}

// listWAVs returns the .wav files directly under dir, sorted.
func listWAVs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read samples dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".wav") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// diskResolver answers sample requests from a directory of WAV files. A
// request for sound "bd" index N resolves to the N-th file (sorted) whose
// name starts with "bd", so "bd:1" picks bd2.wav alongside bd1.wav. A nil
// resolver (no directory) reports every sample missing.
func diskResolver(dir string) driver.SampleResolver {
	if dir == "" {
		return nil
	}
	return func(req link.SampleRequest) (link.Command, bool) {
		paths, err := listWAVs(dir)
		if err != nil {
			return nil, false
		}
		var matches []string
		for _, p := range paths {
			base := strings.TrimSuffix(strings.ToLower(filepath.Base(p)), ".wav")
			if strings.HasPrefix(base, strings.ToLower(req.Sound)) {
				matches = append(matches, p)
			}
		}
		if len(matches) == 0 {
			return nil, false
		}
		path := matches[req.Index%len(matches)]

		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}
		sampleRate, channels, frames, err := sampleregistry.DecodeWAV(payload)
		if err != nil {
			return nil, false
		}
		return link.SampleComplete{
			Req:        req,
			SampleRate: sampleRate,
			Channels:   channels,
			Frames:     frames,
		}, true
	}
}
