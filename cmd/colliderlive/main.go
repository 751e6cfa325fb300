// colliderlive is the command-line front end for the pattern engine: it can
// render a pattern to a WAV file offline, run a monitoring playback with a
// live status view, and inspect a sample directory's loop metadata.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/schollz/collidertracker/internal/driver"
	"github.com/schollz/collidertracker/internal/getbpm"
	"github.com/schollz/collidertracker/internal/link"
	"github.com/schollz/collidertracker/internal/rational"
	"github.com/schollz/collidertracker/internal/session"
	"github.com/schollz/collidertracker/internal/statusview"
)

var (
	sessionPath string
	sampleDir   string
	cpsFlag     float64
	seedFlag    uint64
)

func main() {
	root := &cobra.Command{
		Use:   "colliderlive",
		Short: "live-coding pattern engine and audio renderer",
	}
	root.PersistentFlags().StringVar(&sessionPath, "session", "session.json.gz", "session settings file")
	root.PersistentFlags().StringVar(&sampleDir, "samples", "", "directory of WAV samples, resolved by sound name")
	root.PersistentFlags().Float64Var(&cpsFlag, "cps", 0, "cycles per second (overrides session)")
	root.PersistentFlags().Uint64Var(&seedFlag, "seed", 0, "random seed (overrides session)")

	root.AddCommand(renderCmd(), playCmd(), samplesCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings reads the session file, falling back to defaults when it does
// not exist yet, and applies flag overrides.
func loadSettings() (session.Settings, error) {
	s, err := session.Load(sessionPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return session.Settings{}, err
		}
		s = session.Default()
	}
	if cpsFlag > 0 {
		s.CPS = cpsFlag
	}
	if seedFlag > 0 {
		s.Seed = seedFlag
	}
	if sampleDir != "" {
		s.SampleDir = sampleDir
	}
	return s, nil
}

func engineConfig(s session.Settings) driver.Config {
	cfg := driver.DefaultConfig()
	cfg.SampleRate = s.SampleRate
	cfg.BlockSize = s.BlockSize
	cfg.CPS = s.CPS
	cfg.Orbit = driver.OrbitConfig{
		DelayTimeSec:  s.DelayTimeSec,
		DelayFeedback: s.DelayFeedback,
		RoomSize:      s.ReverbRoomSize,
		Damping:       s.ReverbDamping,
	}
	return cfg
}

func renderCmd() *cobra.Command {
	var outPath string
	var cycles float64
	var demo string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "render a demo pattern offline to a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			pat, err := demoPattern(demo)
			if err != nil {
				return err
			}
			cfg := engineConfig(s)
			frames, err := driver.RenderOffline(pat, cycles, cfg, s.Seed, diskResolver(s.SampleDir))
			if err != nil {
				return err
			}
			if err := writeWAV(outPath, cfg.SampleRate, frames); err != nil {
				return err
			}
			log.Printf("rendered %.1f cycles (%d frames) to %s", cycles, len(frames), outPath)
			session.AutoSave(sessionPath, s)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "out.wav", "output WAV path")
	cmd.Flags().Float64Var(&cycles, "cycles", 8, "how many cycles to render")
	cmd.Flags().StringVar(&demo, "demo", "melody", "demo pattern name: "+demoNames())
	return cmd
}

func playCmd() *cobra.Command {
	var demo string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "run a playback against the wall clock with a live status view",
		Long: "play paces the render loop with a wall-clock ticker and shows\n" +
			"scheduler telemetry; wiring the blocks into an audio device is the\n" +
			"host's job, so this mode is for monitoring and testing patterns.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			pat, err := demoPattern(demo)
			if err != nil {
				return err
			}
			cfg := engineConfig(s)
			l := link.New(4096)
			engine, err := driver.NewEngine(cfg, l)
			if err != nil {
				return err
			}
			pb := driver.NewPlayback("live", pat, cfg.CPS, s.Seed)
			resolve := diskResolver(s.SampleDir)

			done := make(chan struct{})
			go producerLoop(pb, l, cfg, resolve, done)
			go renderLoop(engine, cfg, done)

			p := tea.NewProgram(statusview.New(engine), tea.WithAltScreen())
			_, runErr := p.Run()
			close(done)
			pb.Stop(l)
			session.AutoSave(sessionPath, s)
			return runErr
		},
	}
	cmd.Flags().StringVar(&demo, "demo", "melody", "demo pattern name: "+demoNames())
	return cmd
}

// producerLoop advances the playback one second ahead of the wall clock and
// answers sample requests, the non-audio-thread half of the engine.
func producerLoop(pb *driver.Playback, l *link.Link, cfg driver.Config, resolve driver.SampleResolver, done <-chan struct{}) {
	start := time.Now()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			aheadCycles := (time.Since(start).Seconds() + 1.0) * cfg.CPS
			for pb.Position().Float64() < aheadCycles {
				pb.Advance(l, rational.One)
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
		}
	}
}

// renderLoop paces ProcessBlock against the wall clock, standing in for the
// host audio callback.
func renderLoop(engine *driver.Engine, cfg driver.Config, done <-chan struct{}) {
	block := make([][2]float32, cfg.BlockSize)
	blockDur := time.Duration(float64(cfg.BlockSize) / float64(cfg.SampleRate) * float64(time.Second))
	ticker := time.NewTicker(blockDur)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := engine.ProcessBlock(block); err != nil {
				log.Printf("render: %v", err)
				return
			}
		}
	}
}

func samplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "list a sample directory with inferred loop metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			if s.SampleDir == "" {
				return fmt.Errorf("no sample directory: pass --samples or set it in the session")
			}
			paths, err := listWAVs(s.SampleDir)
			if err != nil {
				return err
			}
			for _, path := range paths {
				info, err := getbpm.Analyze(path)
				if err != nil {
					fmt.Printf("%-40s %v\n", path, err)
					continue
				}
				fmt.Printf("%-40s %6.2fs  %5.1f beats  %5.1f bpm  %.2f cycles\n",
					path, info.Duration, info.Beats, info.BPM, info.CyclesAt(4))
			}
			return nil
		},
	}
}
