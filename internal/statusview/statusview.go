// Package statusview renders read-only playback telemetry as a terminal
// view: render cursor, scheduler occupancy, and per-orbit voice meters. It
// is strictly telemetry — it never edits engine state.
package statusview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/schollz/collidertracker/internal/driver"
)

// StatsSource is anything that can snapshot engine telemetry; the engine
// satisfies it directly.
type StatsSource interface {
	Stats() driver.Stats
}

type styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Box    lipgloss.Style
	Footer lipgloss.Style
}

func defaultStyles() *styles {
	return &styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		Label:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Value:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Box:    lipgloss.NewStyle().Padding(1, 2),
		Footer: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

type tickMsg time.Time

// Model is the bubbletea model polling a StatsSource.
type Model struct {
	src      StatsSource
	stats    driver.Stats
	load     progress.Model
	styles   *styles
	width    int
	height   int
	interval time.Duration
}

// New builds a Model polling src ten times a second.
func New(src StatsSource) Model {
	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40
	return Model{
		src:      src,
		load:     p,
		styles:   defaultStyles(),
		interval: 100 * time.Millisecond,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 20 {
			m.load.Width = msg.Width - 20
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		if m.src != nil {
			m.stats = m.src.Stats()
		}
		return m, m.tick()
	}
	return m, nil
}

// maxMeterVoices is the voice count that renders a full meter; beyond it
// the bar just stays pegged.
const maxMeterVoices = 16

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("colliderlive"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		m.styles.Label.Render("cursor "),
		m.styles.Value.Render(formatCursor(m.stats.CursorSec))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		m.styles.Label.Render("pending"),
		m.styles.Value.Render(fmt.Sprintf("%d", m.stats.PendingCount))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		m.styles.Label.Render("active "),
		m.styles.Value.Render(fmt.Sprintf("%d", m.stats.ActiveCount))))
	b.WriteString(fmt.Sprintf("%s %s\n\n",
		m.styles.Label.Render("load   "),
		m.load.ViewAs(float64(m.stats.ActiveCount)/maxMeterVoices)))

	orbits := make([]int, 0, len(m.stats.ActiveByOrbit))
	for n := range m.stats.ActiveByOrbit {
		orbits = append(orbits, n)
	}
	sort.Ints(orbits)
	for _, n := range orbits {
		count := m.stats.ActiveByOrbit[n]
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			m.styles.Label.Render(fmt.Sprintf("orbit %d", n)),
			orbitMeter(count),
			m.styles.Value.Render(fmt.Sprintf("%d", count))))
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("q to quit"))
	return m.styles.Box.Render(b.String())
}

func formatCursor(sec float64) string {
	d := time.Duration(sec * float64(time.Second))
	return fmt.Sprintf("%02d:%05.2f", int(d.Minutes()), d.Seconds()-60*float64(int(d.Minutes())))
}

// orbitMeter renders a voice-count meter out of Unicode block characters.
func orbitMeter(count int) string {
	const width = 16
	fill := float64(count) / maxMeterVoices
	if fill > 1 {
		fill = 1
	}
	profile := termenv.ColorProfile()
	full := int(fill * width)
	fillColor, _ := colorful.Hex("#C0C0C0")
	emptyColor, _ := colorful.Hex("#404040")

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < full {
			b.WriteString(termenv.String("█").Foreground(profile.Color(fillColor.Hex())).String())
		} else {
			b.WriteString(termenv.String("░").Foreground(profile.Color(emptyColor.Hex())).String())
		}
	}
	return b.String()
}
