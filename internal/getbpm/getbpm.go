// Package getbpm infers the musical length of a loop sample — how many
// beats it spans and at what tempo — first from filename conventions
// ("amen_beats8_bpm172.wav"), then by a grid search over plausible
// beat/tempo pairs against the file's measured duration. The CLI uses it to
// report loop metadata when listing samples.
package getbpm

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// Info is the analysis result for one sample file.
type Info struct {
	Beats      float64
	BPM        float64
	Duration   float64 // seconds
	SampleRate int64
	Frames     int64
}

// CyclesAt returns how many pattern cycles the loop spans at the given
// beats-per-cycle, the quantity a playback needs to slice the loop evenly.
func (i Info) CyclesAt(beatsPerCycle float64) float64 {
	if beatsPerCycle <= 0 {
		return 0
	}
	return i.Beats / beatsPerCycle
}

// Analyze reads the filename and the WAV header to produce an Info.
// Filename hints win when they look sane (tempo in the 100–200 range,
// beats on a 16 grid); otherwise the duration grid search decides.
func Analyze(filename string) (Info, error) {
	seconds, sampleRate, frames, err := Length(filename)
	if err != nil {
		return Info{}, err
	}
	info := Info{Duration: seconds, SampleRate: sampleRate, Frames: frames}

	beats, bpm, ok := ParseNameHints(filename)
	if ok && beats == 0 && bpm > 0 {
		beats = math.Round(seconds / (60 / bpm))
	}
	if !ok || bpm < 100 || bpm > 200 || math.Mod(beats, 16) != 0 {
		beats, bpm = GuessGrid(seconds)
	}
	info.Beats = beats
	info.BPM = bpm
	return info, nil
}

var (
	reBeats  = regexp.MustCompile(`beats(\d+)`)
	reBPM    = regexp.MustCompile(`bpm([0-9]+)`)
	reDigits = regexp.MustCompile(`[0-9]+`)
)

// ParseNameHints extracts beats/bpm tokens from a filename. When no
// explicit bpm token exists, a bare number that looks like a tempo (100–200,
// a multiple of 5) is accepted. Beats may be zero when only tempo was found.
func ParseNameHints(filename string) (beats, bpm float64, ok bool) {
	base := strings.ToLower(filename)
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}

	if m := reBPM.FindStringSubmatch(base); len(m) > 1 {
		bpm, _ = strconv.ParseFloat(m[1], 64)
		ok = true
	} else {
		for _, num := range reDigits.FindAllString(base, -1) {
			n, err := strconv.ParseFloat(num, 64)
			if err == nil && n >= 100 && n <= 200 && math.Mod(n, 5) == 0 {
				bpm = n
				ok = true
				break
			}
		}
	}
	if !ok {
		return 0, 0, false
	}
	if m := reBeats.FindStringSubmatch(base); len(m) > 1 {
		beats, _ = strconv.ParseFloat(m[1], 64)
	}
	return beats, bpm, true
}

// GuessGrid searches beat/tempo pairs for the one whose implied duration
// best matches the measured one, preferring power-of-two beat counts on
// ties — loops overwhelmingly come in 4/8/16/32-beat lengths.
func GuessGrid(durationSec float64) (beats, bpm float64) {
	const multiple = 2.0
	type guess struct {
		diff, bpm, beats float64
	}
	guesses := make([]guess, 0, 128*100)
	for beat := 1.0; beat <= 128; beat++ {
		for bp := 100.0; bp < 200; bp++ {
			guesses = append(guesses, guess{math.Abs(durationSec - beat*multiple*60.0/bp), bp, beat * multiple})
		}
	}
	isPowerOfTwo := func(n float64) bool {
		if n < 1 {
			return false
		}
		log2 := math.Log2(n)
		return math.Abs(log2-math.Round(log2)) < 1e-9
	}
	sort.Slice(guesses, func(i, j int) bool {
		if guesses[i].diff != guesses[j].diff {
			return guesses[i].diff < guesses[j].diff
		}
		iPower := isPowerOfTwo(guesses[i].beats)
		jPower := isPowerOfTwo(guesses[j].beats)
		if iPower != jPower {
			return iPower
		}
		return guesses[i].beats < guesses[j].beats
	})
	return guesses[0].beats, guesses[0].bpm
}

// Length returns the duration of a WAV file in seconds, along with sample
// rate and total frames. For PCM data it computes
// (bytes / (bytesPerSample * channels)) / sampleRate; for non-PCM formats it
// falls back to the decoder's Duration().
func Length(filename string) (seconds float64, sampleRate int64, totalFrames int64, err error) {
	f, openErr := os.Open(filename)
	if openErr != nil {
		err = fmt.Errorf("open: %w", openErr)
		return
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		err = fmt.Errorf("invalid WAV file")
		return
	}
	d.ReadInfo()

	const wavFormatPCM = 1
	const wavFormatExtensible = 65534
	if int(d.WavAudioFormat) != wavFormatPCM && int(d.WavAudioFormat) != wavFormatExtensible {
		var dur time.Duration
		dur, err = d.Duration()
		if err != nil {
			err = fmt.Errorf("duration (non-PCM): %w", err)
			return
		}
		seconds = dur.Seconds()
		sampleRate = int64(d.SampleRate)
		totalFrames = int64(dur.Seconds() * float64(d.SampleRate))
		return
	}

	if d.SampleRate == 0 {
		err = fmt.Errorf("invalid sample rate: 0")
		return
	}
	bytesPerSample := int64(d.BitDepth) / 8
	if bytesPerSample <= 0 {
		err = fmt.Errorf("invalid bit depth: %d", d.BitDepth)
		return
	}
	chans := int64(d.NumChans)
	if chans <= 0 {
		err = fmt.Errorf("invalid channel count: %d", d.NumChans)
		return
	}

	if !d.WasPCMAccessed() && d.PCMChunk == nil {
		if fwdErr := d.FwdToPCM(); fwdErr != nil {
			err = fmt.Errorf("locate PCM: %w", fwdErr)
			return
		}
	}

	totalBytes := d.PCMLen()
	if totalBytes <= 0 {
		err = fmt.Errorf("no PCM data")
		return
	}

	frameSize := bytesPerSample * chans
	totalFrames = totalBytes / frameSize
	seconds = float64(totalFrames) / float64(d.SampleRate)
	sampleRate = int64(d.SampleRate)
	return
}
