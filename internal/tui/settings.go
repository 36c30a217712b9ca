package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gingus/katfod/internal/command"
	"github.com/gingus/katfod/internal/config"
)

// Settings screen rows, in focus order.
const (
	fieldHost = iota
	fieldPort
	fieldVibration
	fieldOpenDoor
	fieldCloseDoor
	fieldCount
)

// settingsKeyMap defines key bindings for the settings screen
type settingsKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Toggle key.Binding
	Back   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k settingsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Toggle, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k settingsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Toggle, k.Back},
	}
}

func newSettingsKeyMap() settingsKeyMap {
	return settingsKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "previous"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "toggle/press"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

// SettingsModel edits the feeder address and the vibration preference.
// Every edit is written through to the store immediately; there is no
// save step.
type SettingsModel struct {
	HostInput textinput.Model
	PortInput textinput.Model
	Vibration bool
	Focus     int

	// Saved is the host as the store sanitized it.
	Saved config.Endpoint
	Err   error

	store   *config.Store
	haptics *pulse
	coord   *command.Coordinator
	Keys    settingsKeyMap
}

// NewSettingsModel creates the settings screen from the store's current
// values.
func NewSettingsModel(store *config.Store, coord *command.Coordinator, haptics *pulse) SettingsModel {
	current := store.Settings()

	hostInput := textinput.New()
	hostInput.Placeholder = config.DefaultHost
	hostInput.CharLimit = 253
	hostInput.Width = 30
	hostInput.Prompt = ""
	hostInput.SetValue(current.IPAddress)

	portInput := textinput.New()
	portInput.Placeholder = config.DefaultPort
	portInput.CharLimit = 5
	portInput.Width = 8
	portInput.Prompt = ""
	portInput.SetValue(current.Port)

	m := SettingsModel{
		HostInput: hostInput,
		PortInput: portInput,
		Vibration: current.VibrationEnabled,
		Saved:     current.Endpoint(),
		store:     store,
		haptics:   haptics,
		coord:     coord,
		Keys:      newSettingsKeyMap(),
	}
	m.setFocus(fieldHost)
	return m
}

func (m *SettingsModel) setFocus(field int) tea.Cmd {
	m.Focus = (field + fieldCount) % fieldCount
	m.HostInput.Blur()
	m.PortInput.Blur()

	switch m.Focus {
	case fieldHost:
		return m.HostInput.Focus()
	case fieldPort:
		return m.PortInput.Focus()
	}
	return nil
}

// Update handles input on the settings screen.
func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.Keys.Back):
			return m, switchTo(ScreenFeeder)

		case key.Matches(keyMsg, m.Keys.Next):
			return m, m.setFocus(m.Focus + 1)

		case key.Matches(keyMsg, m.Keys.Prev):
			return m, m.setFocus(m.Focus - 1)

		case key.Matches(keyMsg, m.Keys.Toggle) && m.Focus >= fieldVibration:
			return m.press()
		}
	}

	var cmd tea.Cmd
	switch m.Focus {
	case fieldHost:
		before := m.HostInput.Value()
		m.HostInput, cmd = m.HostInput.Update(msg)
		if value := m.HostInput.Value(); value != before {
			host, err := m.store.SetHost(value)
			m.Saved.Host = host
			m.Err = err
		}

	case fieldPort:
		before := m.PortInput.Value()
		m.PortInput, cmd = m.PortInput.Update(msg)
		if value := m.PortInput.Value(); value != before {
			port, err := m.store.SetPort(value)
			m.Saved.Port = port
			m.Err = err
		}
	}

	return m, cmd
}

// press activates the focused switch or button.
func (m SettingsModel) press() (SettingsModel, tea.Cmd) {
	switch m.Focus {
	case fieldVibration:
		m.Vibration = !m.Vibration
		// The switch acknowledges with the value it is moving to, so turning
		// vibration on buzzes and turning it off does not.
		if m.Vibration {
			m.haptics.Vibrate()
		}
		m.Err = m.store.SetVibration(m.Vibration)
		return m, m.haptics.tickCmd()

	case fieldOpenDoor:
		return m, trigger(command.OpenDoor)

	case fieldCloseDoor:
		return m, trigger(command.CloseDoor)
	}
	return m, nil
}

// Sync refreshes the non-text fields from settings changed elsewhere. The
// text inputs are left alone so the cursor does not jump while typing.
func (m *SettingsModel) Sync(s config.Settings) {
	m.Vibration = s.VibrationEnabled
	m.Saved = s.Endpoint()
}

// View renders the settings screen body.
func (m SettingsModel) View(spin string) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Settings"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Configure Feeder settings."))
	b.WriteString("\n\n")

	b.WriteString(m.renderRow(fieldHost, "Feeder IP", m.HostInput.View()))
	b.WriteString("\n")
	b.WriteString(m.renderRow(fieldPort, "Port", m.PortInput.View()))
	b.WriteString("\n")
	b.WriteString(m.renderRow(fieldVibration, "Vibration", RenderToggle(m.Vibration)))
	b.WriteString("\n\n")

	if m.Saved.Host != strings.TrimSpace(m.HostInput.Value()) {
		b.WriteString(SubtitleStyle.Render("Saved as " + m.Saved.String()))
		b.WriteString("\n")
	}
	if m.Err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(ErrorColor).Render("✗ " + m.Err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderButton(fieldOpenDoor, command.OpenDoor, "Open Door", spin),
		" ",
		m.renderButton(fieldCloseDoor, command.CloseDoor, "Close Door", spin),
	))
	b.WriteString("\n")

	return b.String()
}

func (m SettingsModel) renderRow(field int, label, value string) string {
	labelStyle := BlurredInputStyle
	marker := "  "
	if m.Focus == field {
		labelStyle = FocusedInputStyle
		marker = "→ "
	}
	return marker + labelStyle.Width(12).Render(label) + value
}

func (m SettingsModel) renderButton(field int, kind command.Kind, label, spin string) string {
	style := ButtonStyle
	if m.Focus == field {
		style = SelectedButtonStyle
	}
	if m.coord != nil && m.coord.State(kind) == command.StatePending {
		style = BusyButtonStyle
		label = spin + " " + label
	}
	return style.Render(label)
}
