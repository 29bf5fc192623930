// Package tui is the interactive terminal viewer for the timeline.
//
// One presentation unit fills the screen at a time. Scroll gestures
// and j/k step the navigator one unit per gesture (with its cooldown),
// and the frontmost unit counts as fully visible, which drives the
// one-shot lazy load of its recap content.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"civicline/internal/nav"
	"civicline/internal/timeline"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	activeCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("6"))
	pastBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))
	emptyStyle = lipgloss.NewStyle().Faint(true).Italic(true)
)

// unitLoadedMsg signals that a unit's secondary content fetch
// finished.
type unitLoadedMsg struct{ index int }

// Model is the bubbletea model for the viewer.
type Model struct {
	units     []*timeline.Unit
	navigator *nav.Navigator
	lifecycle timeline.Lifecycle
	loader    *timeline.Loader
	mode      timeline.Mode

	content viewport.Model
	width   int
	height  int
	ready   bool

	ctx context.Context
	now func() time.Time
}

// New builds the viewer model. The initial frontmost unit is the first
// one at or after now (or the last unit), per the page's load rule.
func New(ctx context.Context, units []*timeline.Unit, loader *timeline.Loader, mode timeline.Mode, opts Options) Model {
	clock := opts.Now
	if clock == nil {
		clock = time.Now
	}

	navigator := nav.New(len(units), timeline.InitialIndex(units, clock()))
	navigator.Cooldown = opts.Cooldown
	navigator.MinWidth = opts.MinNavWidth
	navigator.ReducedMotion = opts.ReducedMotion

	return Model{
		units:     units,
		navigator: navigator,
		lifecycle: timeline.Lifecycle{Threshold: opts.VisibleThreshold},
		loader:    loader,
		mode:      mode,
		ctx:       ctx,
		now:       clock,
	}
}

// Options tunes the viewer; zero values mean the page defaults.
type Options struct {
	VisibleThreshold float64
	Cooldown         time.Duration
	MinNavWidth      int
	ReducedMotion    bool
	Now              func() time.Time
}

// Init fires the visibility event for the initial frontmost unit.
func (m Model) Init() tea.Cmd {
	return m.observeFront()
}

// observeFront marks the frontmost unit visible and, on its first
// crossing, returns the command that fetches its secondary content.
// The loaded flag is set here, synchronously, before the command (and
// with it the fetch) ever runs.
func (m Model) observeFront() tea.Cmd {
	u := m.front()
	if u == nil {
		return nil
	}
	for i, other := range m.units {
		if i != m.navigator.Current {
			m.lifecycle.Observe(other, 0)
		}
	}
	if !m.lifecycle.Observe(u, 1.0) {
		return nil
	}
	index := m.navigator.Current
	loader := m.loader
	ctx := m.ctx
	return func() tea.Msg {
		loader.Load(ctx, u)
		return unitLoadedMsg{index: index}
	}
}

func (m Model) front() *timeline.Unit {
	if m.navigator.Current < 0 || m.navigator.Current >= len(m.units) {
		return nil
	}
	return m.units[m.navigator.Current]
}

// Update handles navigation input and load completions.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.content = viewport.New(msg.Width-4, contentHeight(msg.Height))
		m.ready = true
		m.syncContent()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "j", "down", "pgdown", " ":
			return m.step(1)
		case "k", "up", "pgup":
			return m.step(-1)
		case "g", "home":
			m.navigator.JumpTo(0)
			m.syncContent()
			return m, m.observeFront()
		case "G", "end":
			m.navigator.JumpTo(len(m.units) - 1)
			m.syncContent()
			return m, m.observeFront()
		default:
			var cmd tea.Cmd
			m.content, cmd = m.content.Update(msg)
			return m, cmd
		}

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			return m.step(1)
		case tea.MouseButtonWheelUp:
			return m.step(-1)
		}
		return m, nil

	case unitLoadedMsg:
		if msg.index == m.navigator.Current {
			m.syncContent()
		}
		return m, nil
	}
	return m, nil
}

// step feeds one discrete gesture into the navigator. The terminal has
// no layout breakpoint, so no width is reported and the narrow-screen
// gate stays disarmed.
func (m Model) step(delta float64) (tea.Model, tea.Cmd) {
	before := m.navigator.Current
	_, ok := m.navigator.Step(delta, 0, m.now())
	if !ok || m.navigator.Current == before {
		return m, nil
	}
	m.syncContent()
	return m, m.observeFront()
}

// syncContent rebuilds the scrollable secondary-content area for the
// frontmost unit.
func (m *Model) syncContent() {
	if !m.ready {
		return
	}
	u := m.front()
	if u == nil {
		return
	}
	m.content.SetContent(secondaryView(u))
	m.content.GotoTop()
}

// View renders the frontmost unit.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	u := m.front()
	if u == nil {
		return emptyStyle.Render("No events found. Add data to events.csv.")
	}

	header := dimStyle.Render(fmt.Sprintf("civicline [%s] %d/%d", m.mode, m.navigator.Current+1, len(m.units)))

	meta := titleStyle.Render(u.Title) + "\n" +
		u.DateText + "  " + u.TimeText + "\n" +
		u.Location
	if u.Past {
		meta += "\n" + pastBadge.Render("past event")
	}

	group := titleStyle.Render(u.GroupName) + "\n" + u.GroupSummary

	var actions string
	if len(u.Actions) == 0 {
		actions = emptyStyle.Render(u.ActionPlaceholder)
	} else {
		lines := make([]string, 0, len(u.Actions))
		for _, a := range u.Actions {
			line := "• " + a.Label
			if n := len(a.Citations); n > 1 {
				line += dimStyle.Render(fmt.Sprintf(" (%d sources)", n))
			}
			lines = append(lines, line)
		}
		actions = strings.Join(lines, "\n")
	}

	card := activeCardStyle.Width(max(20, m.width-2))
	body := card.Render(meta) + "\n" +
		cardStyle.Width(max(20, m.width-2)).Render(group) + "\n" +
		cardStyle.Width(max(20, m.width-2)).Render(actions)

	sections := []string{header, body}
	if u.Past {
		sections = append(sections, m.content.View())
	}
	sections = append(sections, dimStyle.Render("j/k or wheel: navigate • q: quit"))
	return strings.Join(sections, "\n")
}

// secondaryView renders the lazily-loaded slot of a past unit.
func secondaryView(u *timeline.Unit) string {
	// The loaded flag flips before the fetch runs, so an empty summary
	// slot means the fetch is still in flight.
	if u.CurrentPhase() != timeline.PhaseVisibleLoaded || u.Secondary.HumanSummary == "" {
		return emptyStyle.Render("Loading...")
	}
	if !u.Past {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Media") + "\n")
	if len(u.Secondary.Media) == 0 {
		b.WriteString(emptyStyle.Render(timeline.NoMediaListed) + "\n")
	} else {
		for _, ref := range u.Secondary.Media {
			b.WriteString("• " + ref.Title)
			if ref.URL != "" {
				b.WriteString("  " + dimStyle.Render(ref.URL))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n" + titleStyle.Render("Human summary") + "\n" + u.Secondary.HumanSummary + "\n")
	b.WriteString("\n" + titleStyle.Render("AI summary") + "\n" + u.Secondary.AISummary + "\n")
	return b.String()
}

func contentHeight(total int) int {
	h := total - 14
	if h < 4 {
		h = 4
	}
	return h
}
