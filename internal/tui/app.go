package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/gingus/katfod/internal/command"
	"github.com/gingus/katfod/internal/config"
	"github.com/gingus/katfod/internal/device"
	"github.com/gingus/katfod/internal/logging"
	"github.com/gingus/katfod/internal/stream"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenFeeder   Screen = "feeder"
	ScreenSettings Screen = "settings"
)

// Messages exchanged between the screens and the app model
type switchScreenMsg struct{ screen Screen }
type triggerMsg struct{ kind command.Kind }
type restartStreamMsg struct{}

// commandDoneMsg carries a device outcome back to the Update goroutine.
type commandDoneMsg struct {
	req     command.Request
	outcome device.Outcome
}

type settingsChangedMsg struct{ settings config.Settings }
type streamStatsMsg struct{ stats stream.Stats }

func switchTo(screen Screen) tea.Cmd {
	return func() tea.Msg { return switchScreenMsg{screen: screen} }
}

func trigger(kind command.Kind) tea.Cmd {
	return func() tea.Msg { return triggerMsg{kind: kind} }
}

// Options configures the terminal UI.
type Options struct {
	Store  *config.Store
	Client device.Sender

	// Timeout bounds each appliance request. Zero means device.DefaultTimeout.
	Timeout time.Duration

	// Monitor watches the camera stream. Nil disables the video panel.
	Monitor *stream.Monitor
}

// AppModel is the top-level model: it owns the coordinator and routes
// messages to the active screen.
type AppModel struct {
	CurrentScreen Screen

	Feeder   FeederModel
	Settings SettingsModel

	coord   *command.Coordinator
	store   *config.Store
	monitor *stream.Monitor
	notices *snackbar
	haptics *pulse

	settingsEvents chan config.Settings
	unsubscribe    func()

	// Last is the most recent resolved command, if any.
	Last *command.Result

	Spinner spinner.Model
	Width   int
	Height  int
	Help    help.Model
}

// NewAppModel creates the application model on the feeder screen. Close
// must be called once the program has exited.
func NewAppModel(opts Options) AppModel {
	notices := &snackbar{}
	haptics := &pulse{}

	coordOpts := []command.Option{
		command.WithNotifier(notices),
		command.WithHaptics(haptics),
	}
	if opts.Timeout > 0 {
		coordOpts = append(coordOpts, command.WithTimeout(opts.Timeout))
	}
	coord := command.New(opts.Client, opts.Store, coordOpts...)

	// Subscribe callbacks run on whichever goroutine changed the settings,
	// so they only hand the value over. Only the newest value matters.
	events := make(chan config.Settings, 1)
	unsubscribe := opts.Store.Subscribe(func(s config.Settings) {
		select {
		case <-events:
		default:
		}
		select {
		case events <- s:
		default:
		}
	})

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return AppModel{
		CurrentScreen:  ScreenFeeder,
		Feeder:         NewFeederModel(coord, opts.Store.Endpoint(), opts.Monitor != nil),
		Settings:       NewSettingsModel(opts.Store, coord, haptics),
		coord:          coord,
		store:          opts.Store,
		monitor:        opts.Monitor,
		notices:        notices,
		haptics:        haptics,
		settingsEvents: events,
		unsubscribe:    unsubscribe,
		Spinner:        s,
		Help:           help.New(),
	}
}

// Coordinator returns the command coordinator driving the UI.
func (m AppModel) Coordinator() *command.Coordinator {
	return m.coord
}

// Notice returns the visible transient notice.
func (m AppModel) Notice() Notice {
	return m.notices.Notice()
}

// Pulsing reports whether a haptic pulse is on screen.
func (m AppModel) Pulsing() bool {
	return m.haptics.active
}

// Close releases the settings subscription and stops the video monitor.
func (m AppModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.monitor != nil {
		m.monitor.Stop()
	}
}

// Init starts the spinner, the settings listener and the video monitor.
func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.Spinner.Tick,
		waitForSettings(m.settingsEvents),
	}
	if m.monitor != nil {
		cmds = append(cmds,
			watchStream(m.monitor, m.store.Endpoint().VideoURL()),
			waitForStats(m.monitor.Updates()),
		)
	}
	return tea.Batch(cmds...)
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.CurrentScreen == ScreenFeeder && key.Matches(msg, m.Feeder.Keys.Help) {
			m.Help.ShowAll = !m.Help.ShowAll
			return m, nil
		}

	case switchScreenMsg:
		return m.transitionTo(msg.screen)

	case triggerMsg:
		return m.begin(msg.kind)

	case commandDoneMsg:
		res := m.coord.Complete(msg.req, msg.outcome)
		m.Last = &res
		return m, m.notices.expireCmd()

	case noticeExpiredMsg:
		m.notices.expire(msg.seq)
		return m, nil

	case pulseDoneMsg:
		m.haptics.done(msg.seq)
		return m, nil

	case settingsChangedMsg:
		return m.applySettings(msg.settings)

	case streamStatsMsg:
		if m.monitor == nil {
			return m, nil
		}
		// Reports from a URL that is no longer watched are dropped.
		if msg.stats.URL == m.monitor.URL() {
			m.Feeder.Stream = msg.stats
		}
		return m, waitForStats(m.monitor.Updates())

	case restartStreamMsg:
		if m.monitor == nil {
			return m, nil
		}
		url := m.store.Endpoint().VideoURL()
		m.Feeder.Stream = stream.Stats{URL: url}
		return m, restartStream(m.monitor, url)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.CurrentScreen {
	case ScreenFeeder:
		m.Feeder, cmd = m.Feeder.Update(msg)
	case ScreenSettings:
		m.Settings, cmd = m.Settings.Update(msg)
	}
	return m, cmd
}

// transitionTo transitions to a new screen
func (m AppModel) transitionTo(screen Screen) (tea.Model, tea.Cmd) {
	m.CurrentScreen = screen
	m.Help.ShowAll = false

	var cmd tea.Cmd
	if screen == ScreenSettings {
		cmd = m.Settings.setFocus(fieldHost)
	}
	return m, cmd
}

// begin moves kind to pending and starts its request in the background.
// A tap on a command that is still in flight is ignored.
func (m AppModel) begin(kind command.Kind) (tea.Model, tea.Cmd) {
	req, err := m.coord.Begin(kind)
	if errors.Is(err, command.ErrPending) {
		return m, nil
	}
	if err != nil {
		logging.Error("Command could not start", zap.String("kind", kind.String()), zap.Error(err))
		return m, nil
	}

	return m, tea.Batch(
		executeCmd(m.coord, req),
		m.haptics.tickCmd(),
	)
}

// applySettings reacts to a settings change: the feeder panel shows the new
// address and the camera follows it.
func (m AppModel) applySettings(s config.Settings) (tea.Model, tea.Cmd) {
	m.Feeder.Endpoint = s.Endpoint()
	m.Settings.Sync(s)

	cmds := []tea.Cmd{waitForSettings(m.settingsEvents)}
	if m.monitor != nil {
		url := s.Endpoint().VideoURL()
		if url != m.monitor.URL() {
			m.Feeder.Stream = stream.Stats{URL: url}
			cmds = append(cmds, watchStream(m.monitor, url))
		}
	}
	return m, tea.Batch(cmds...)
}

// View renders the current screen inside the application frame.
func (m AppModel) View() string {
	spin := m.Spinner.View()

	var content, helpText string
	switch m.CurrentScreen {
	case ScreenSettings:
		content = m.Settings.View(spin)
		helpText = m.Help.View(m.Settings.Keys)
	default:
		content = m.Feeder.View(spin)
		helpText = m.Help.View(m.Feeder.Keys)
	}

	if n := m.notices.Notice(); n.Visible {
		content += "\n" + renderNotice(n, spin)
	}

	return RenderApplicationContainer(content, helpText, m.Width, m.Height, m.haptics.active)
}

func renderNotice(n Notice, spin string) string {
	if n.Pending {
		return PendingNoticeStyle.Render(fmt.Sprintf("%s %s", spin, n.Text))
	}
	switch {
	case n.Outcome.IsSuccess():
		return SuccessNoticeStyle.Render("✓ " + n.Text)
	case n.Outcome.Status == device.StatusDeviceError && n.Outcome.Code == 429:
		return WarningNoticeStyle.Render("⚠ " + n.Text)
	default:
		return ErrorNoticeStyle.Render("✗ " + n.Text)
	}
}

// executeCmd performs the device request off the Update goroutine.
func executeCmd(coord *command.Coordinator, req command.Request) tea.Cmd {
	return func() tea.Msg {
		outcome := coord.Execute(context.Background(), req)
		return commandDoneMsg{req: req, outcome: outcome}
	}
}

func waitForSettings(events <-chan config.Settings) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-events
		if !ok {
			return nil
		}
		return settingsChangedMsg{settings: s}
	}
}

func waitForStats(updates <-chan stream.Stats) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return streamStatsMsg{stats: s}
	}
}

// watchStream points the monitor at url. Watch may wait for the previous
// connection to wind down, so it runs as a command.
func watchStream(monitor *stream.Monitor, url string) tea.Cmd {
	return func() tea.Msg {
		monitor.Watch(url)
		return nil
	}
}

func restartStream(monitor *stream.Monitor, url string) tea.Cmd {
	return func() tea.Msg {
		monitor.Stop()
		monitor.Watch(url)
		return nil
	}
}

// Run starts the full-screen UI and blocks until the user quits.
func Run(opts Options) error {
	model := NewAppModel(opts)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
