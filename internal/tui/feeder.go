package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gingus/katfod/internal/command"
	"github.com/gingus/katfod/internal/config"
	"github.com/gingus/katfod/internal/stream"
)

// feederKeyMap defines key bindings for the feeder screen
type feederKeyMap struct {
	Dispense  key.Binding
	Reconnect key.Binding
	Settings  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k feederKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dispense, k.Settings, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k feederKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Dispense, k.Reconnect},
		{k.Settings, k.Help, k.Quit},
	}
}

func newFeederKeyMap() feederKeyMap {
	return feederKeyMap{
		Dispense: key.NewBinding(
			key.WithKeys("enter", " ", "d"),
			key.WithHelp("enter/d", "dispense"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reconnect video"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s", "tab"),
			key.WithHelp("s", "settings"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// FeederModel is the main screen: the dispense button and the camera panel.
type FeederModel struct {
	Endpoint config.Endpoint

	// Stream is the latest camera report. StreamEnabled is false when the
	// app runs without a video monitor.
	Stream        stream.Stats
	StreamEnabled bool

	coord *command.Coordinator
	Keys  feederKeyMap
}

// NewFeederModel creates the feeder screen.
func NewFeederModel(coord *command.Coordinator, ep config.Endpoint, streamEnabled bool) FeederModel {
	return FeederModel{
		Endpoint:      ep,
		StreamEnabled: streamEnabled,
		coord:         coord,
		Keys:          newFeederKeyMap(),
	}
}

// Update handles key presses on the feeder screen. Commands and screen
// changes are reported to the app model as messages.
func (m FeederModel) Update(msg tea.Msg) (FeederModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.Keys.Dispense):
		return m, trigger(command.Dispense)

	case key.Matches(keyMsg, m.Keys.Reconnect):
		return m, func() tea.Msg { return restartStreamMsg{} }

	case key.Matches(keyMsg, m.Keys.Settings):
		return m, switchTo(ScreenSettings)

	case key.Matches(keyMsg, m.Keys.Quit):
		return m, tea.Quit
	}

	return m, nil
}

// View renders the feeder screen body.
func (m FeederModel) View(spin string) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Feeder"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Feed your cat remotely."))
	b.WriteString("\n\n")

	b.WriteString(m.renderStream())
	b.WriteString("\n\n")

	label := "Dispense"
	style := SelectedButtonStyle
	if m.coord != nil && m.coord.State(command.Dispense) == command.StatePending {
		label = spin + " Dispense"
		style = BusyButtonStyle
	}
	b.WriteString(style.Render(label))
	b.WriteString("\n")

	return b.String()
}

func (m FeederModel) renderStream() string {
	rows := []string{RenderField("Feeder", m.Endpoint.String())}

	if !m.StreamEnabled {
		rows = append(rows, RenderField("Camera", OffStyle.Render("disabled")))
		return PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	s := m.Stream
	switch {
	case s.Connected:
		rows = append(rows, RenderField("Camera", OnStyle.Render("● live")))
	case s.Err != nil:
		rows = append(rows, RenderField("Camera", lipgloss.NewStyle().Foreground(ErrorColor).Render("✗ "+s.Err.Error())))
	default:
		rows = append(rows, RenderField("Camera", OffStyle.Render("connecting...")))
	}

	rows = append(rows,
		RenderField("FPS", fmt.Sprintf("%.1f", s.FPS)),
		RenderField("Frames", fmt.Sprintf("%d", s.Frames)),
		RenderField("Last frame", formatFrame(s)),
	)

	return PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatFrame(s stream.Stats) string {
	if s.Frames == 0 {
		return "-"
	}
	age := time.Since(s.LastFrame).Truncate(100 * time.Millisecond)
	return fmt.Sprintf("%.1f KiB, %s ago", float64(s.LastSize)/1024, age)
}
