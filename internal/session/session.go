// Package session persists engine configuration between runs: tempo, render
// parameters, orbit effect settings, and the sample search path. Settings
// are stored as gzip-compressed JSON, with a debounced AutoSave so rapid
// successive edits coalesce into one write.
package session

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	mu           sync.Mutex
	timer        *time.Timer
	debounceTime = 1 * time.Second
)

// Settings is the engine configuration a session file round-trips. It holds
// configuration only, never composition data.
type Settings struct {
	CPS            float64 `json:"cps"`
	SampleRate     int     `json:"sampleRate"`
	BlockSize      int     `json:"blockSize"`
	Seed           uint64  `json:"seed"`
	DelayTimeSec   float64 `json:"delayTimeSec"`
	DelayFeedback  float64 `json:"delayFeedback"`
	ReverbRoomSize float64 `json:"reverbRoomSize"`
	ReverbDamping  float64 `json:"reverbDamping"`
	SampleDir      string  `json:"sampleDir"`
}

// Default returns the settings a fresh session starts from, matching the
// driver's defaults.
func Default() Settings {
	return Settings{
		CPS:            0.5,
		SampleRate:     48000,
		BlockSize:      256,
		Seed:           1,
		DelayTimeSec:   0.375,
		DelayFeedback:  0.4,
		ReverbRoomSize: 0.6,
		ReverbDamping:  0.3,
	}
}

// Save writes s to path as gzipped JSON, creating parent directories.
func Save(path string, s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("session: create dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("session: create file: %w", err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	if _, err := gzWriter.Write(data); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	return nil
}

// Load reads a session file written by Save. A missing file is an error the
// caller can test with os.IsNotExist to fall back to Default.
func Load(path string) (Settings, error) {
	file, err := os.Open(path)
	if err != nil {
		return Settings{}, err
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return Settings{}, fmt.Errorf("session: open gzip: %w", err)
	}
	defer gzReader.Close()

	data, err := io.ReadAll(gzReader)
	if err != nil {
		return Settings{}, fmt.Errorf("session: read: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return s, nil
}

// AutoSave schedules a debounced Save: repeated calls within the debounce
// window restart the timer so only the last settings snapshot is written.
func AutoSave(path string, s Settings) {
	mu.Lock()
	defer mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	timer = time.AfterFunc(debounceTime, func() {
		startTime := time.Now()
		if err := Save(path, s); err != nil {
			log.Printf("session autosave failed: %v", err)
			return
		}
		log.Printf("session autosaved in %d ms", time.Since(startTime).Milliseconds())
	})
}
