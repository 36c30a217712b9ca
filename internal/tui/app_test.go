package tui

import (
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gingus/katfod/internal/command"
	"github.com/gingus/katfod/internal/config"
	"github.com/gingus/katfod/internal/device"
)

type testFeeder struct {
	hits atomic.Int32
	code int
}

func (f *testFeeder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	w.WriteHeader(f.code)
}

func newTestApp(t *testing.T, code int) (AppModel, *config.Store, *testFeeder) {
	t.Helper()

	feeder := &testFeeder{code: code}
	srv := httptest.NewServer(feeder)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	store, err := config.Open(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("config.Open() error = %v", err)
	}
	if _, err := store.SetEndpoint(config.Endpoint{Host: u.Hostname(), Port: u.Port()}); err != nil {
		t.Fatal(err)
	}

	client := device.NewClient()
	t.Cleanup(client.Close)

	m := NewAppModel(Options{Store: store, Client: client, Timeout: time.Second})
	t.Cleanup(m.Close)
	return m, store, feeder
}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	app, ok := next.(AppModel)
	if !ok {
		t.Fatalf("Update returned %T, want AppModel", next)
	}
	return app, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// awaitMsg runs cmd, expanding batches, and returns the first message of
// type T. Commands that never finish, like long ticks, are abandoned.
func awaitMsg[T any](t *testing.T, cmd tea.Cmd) T {
	t.Helper()

	var zero T
	if cmd == nil {
		t.Fatalf("command is nil, want one producing %T", zero)
	}

	out := make(chan tea.Msg, 64)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, sub := range batch {
					if sub != nil {
						run(sub)
					}
				}
				return
			}
			if msg != nil {
				out <- msg
			}
		}()
	}
	run(cmd)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-out:
			if v, ok := msg.(T); ok {
				return v
			}
		case <-deadline:
			t.Fatalf("no %T produced", zero)
			return zero
		}
	}
}

// press sends a trigger for kind and runs the request to completion.
func press(t *testing.T, m AppModel, kind command.Kind) AppModel {
	t.Helper()
	m, cmd := update(t, m, triggerMsg{kind: kind})
	done := awaitMsg[commandDoneMsg](t, cmd)
	m, _ = update(t, m, done)
	return m
}

func TestDispense_FullCycle(t *testing.T) {
	m, _, feeder := newTestApp(t, http.StatusOK)

	m, cmd := update(t, m, runes("d"))
	trig := awaitMsg[triggerMsg](t, cmd)
	if trig.kind != command.Dispense {
		t.Fatalf("key d triggered %v, want dispense", trig.kind)
	}

	m, cmd = update(t, m, trig)
	n := m.Notice()
	if !n.Visible || !n.Pending || n.Text != "Dispensing..." {
		t.Errorf("notice after tap = %+v, want pending Dispensing...", n)
	}
	if !m.Pulsing() {
		t.Error("tap should pulse when vibration is enabled")
	}
	if got := m.Coordinator().State(command.Dispense); got != command.StatePending {
		t.Errorf("state = %v, want pending", got)
	}

	done := awaitMsg[commandDoneMsg](t, cmd)
	m, cmd = update(t, m, done)

	n = m.Notice()
	if n.Pending || n.Text != "Food dispensed!" {
		t.Errorf("notice after result = %+v, want Food dispensed!", n)
	}
	if m.Last == nil || !m.Last.Success() {
		t.Errorf("Last = %+v, want success", m.Last)
	}
	if got := m.Coordinator().State(command.Dispense); got != command.StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
	if cmd == nil {
		t.Error("result should schedule its own expiry")
	}
	if feeder.hits.Load() != 1 {
		t.Errorf("feeder hits = %d, want 1", feeder.hits.Load())
	}

	m, _ = update(t, m, noticeExpiredMsg{seq: n.seq})
	if m.Notice().Visible {
		t.Error("notice should expire")
	}
}

func TestDispense_DuplicateTapIgnored(t *testing.T) {
	m, _, feeder := newTestApp(t, http.StatusOK)

	m, first := update(t, m, triggerMsg{kind: command.Dispense})
	m, second := update(t, m, triggerMsg{kind: command.Dispense})
	if second != nil {
		t.Error("second tap while pending should produce no command")
	}

	done := awaitMsg[commandDoneMsg](t, first)
	m, _ = update(t, m, done)

	if feeder.hits.Load() != 1 {
		t.Errorf("feeder hits = %d, want 1", feeder.hits.Load())
	}
	if m.Notice().Text != "Food dispensed!" {
		t.Errorf("notice = %q", m.Notice().Text)
	}
}

func TestDispense_RateLimited(t *testing.T) {
	m, _, _ := newTestApp(t, http.StatusTooManyRequests)

	m = press(t, m, command.Dispense)
	if got := m.Notice().Text; got != "Too many dispenses. Calm down!" {
		t.Errorf("notice = %q", got)
	}

	m.Width, m.Height = 80, 30
	if view := m.View(); !strings.Contains(view, "Calm down!") {
		t.Error("view should show the result notice")
	}
}

func TestDispense_Unreachable(t *testing.T) {
	m, store, _ := newTestApp(t, http.StatusOK)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	if _, err := store.SetEndpoint(config.Endpoint{Host: "127.0.0.1", Port: strconv.Itoa(addr.Port)}); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, command.Dispense)
	if got := m.Notice().Text; got != "Can't reach Feeder hardware... Check if hardware is active." {
		t.Errorf("notice = %q", got)
	}
}

func TestTap_NoPulseWhenVibrationDisabled(t *testing.T) {
	m, store, _ := newTestApp(t, http.StatusOK)
	if err := store.SetVibration(false); err != nil {
		t.Fatal(err)
	}

	m, _ = update(t, m, triggerMsg{kind: command.Dispense})
	if m.Pulsing() {
		t.Error("tap should not pulse when vibration is disabled")
	}
}

func TestPulse_StaleTickIgnored(t *testing.T) {
	m, _, _ := newTestApp(t, http.StatusOK)

	m, _ = update(t, m, triggerMsg{kind: command.Dispense})
	seq := m.haptics.seq

	m, _ = update(t, m, pulseDoneMsg{seq: seq - 1})
	if !m.Pulsing() {
		t.Error("stale tick should not end the pulse")
	}
	m, _ = update(t, m, pulseDoneMsg{seq: seq})
	if m.Pulsing() {
		t.Error("current tick should end the pulse")
	}
}

func TestSettings_HostWriteThrough(t *testing.T) {
	m, store, _ := newTestApp(t, http.StatusOK)

	m, _ = update(t, m, switchScreenMsg{screen: ScreenSettings})
	if m.CurrentScreen != ScreenSettings {
		t.Fatalf("screen = %v, want settings", m.CurrentScreen)
	}

	m.Settings.HostInput.SetValue("")
	m, _ = update(t, m, runes("http://10.0.0.7"))

	if got := store.Endpoint().Host; got != "10.0.0.7" {
		t.Errorf("stored host = %q, want 10.0.0.7", got)
	}
	if got := m.Settings.HostInput.Value(); got != "http://10.0.0.7" {
		t.Errorf("input = %q, should keep what was typed", got)
	}

	changed := awaitMsg[settingsChangedMsg](t, waitForSettings(m.settingsEvents))
	m, _ = update(t, m, changed)
	if m.Feeder.Endpoint.Host != "10.0.0.7" {
		t.Errorf("feeder endpoint = %+v, want host 10.0.0.7", m.Feeder.Endpoint)
	}
}

func TestSettings_KeysDoNotTriggerCommands(t *testing.T) {
	m, _, feeder := newTestApp(t, http.StatusOK)

	m, _ = update(t, m, switchScreenMsg{screen: ScreenSettings})
	m, _ = update(t, m, runes("d"))

	if m.Notice().Visible {
		t.Error("typing on the settings screen should not dispense")
	}
	if feeder.hits.Load() != 0 {
		t.Errorf("feeder hits = %d, want 0", feeder.hits.Load())
	}
}

func TestSettings_PortWriteThrough(t *testing.T) {
	m, store, _ := newTestApp(t, http.StatusOK)

	m, _ = update(t, m, switchScreenMsg{screen: ScreenSettings})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Settings.Focus != fieldPort {
		t.Fatalf("focus = %d, want port", m.Settings.Focus)
	}

	m.Settings.PortInput.SetValue("")
	m, _ = update(t, m, runes("8080"))
	if got := store.Endpoint().Port; got != "8080" {
		t.Errorf("stored port = %q, want 8080", got)
	}
}

func TestSettings_VibrationToggle(t *testing.T) {
	m, store, _ := newTestApp(t, http.StatusOK)

	m, _ = update(t, m, switchScreenMsg{screen: ScreenSettings})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Settings.Focus != fieldVibration {
		t.Fatalf("focus = %d, want vibration", m.Settings.Focus)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if store.VibrationEnabled() {
		t.Error("first toggle should disable vibration")
	}
	if m.Pulsing() {
		t.Error("switching vibration off should not pulse")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !store.VibrationEnabled() {
		t.Error("second toggle should enable vibration")
	}
	if !m.Pulsing() {
		t.Error("switching vibration on should pulse")
	}
	awaitMsg[pulseDoneMsg](t, cmd)
}

func TestSettings_DoorButtons(t *testing.T) {
	m, _, _ := newTestApp(t, http.StatusOK)

	m, _ = update(t, m, switchScreenMsg{screen: ScreenSettings})
	for i := 0; i < 3; i++ {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	if m.Settings.Focus != fieldOpenDoor {
		t.Fatalf("focus = %d, want open door", m.Settings.Focus)
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	trig := awaitMsg[triggerMsg](t, cmd)
	if trig.kind != command.OpenDoor {
		t.Fatalf("triggered %v, want open door", trig.kind)
	}

	m, cmd = update(t, m, trig)
	if got := m.Notice().Text; got != "Opening door..." {
		t.Errorf("pending notice = %q", got)
	}
	m, _ = update(t, m, awaitMsg[commandDoneMsg](t, cmd))
	if got := m.Notice().Text; got != "Door opened!" {
		t.Errorf("result notice = %q", got)
	}

	m = press(t, m, command.CloseDoor)
	if got := m.Notice().Text; got != "Door closed!" {
		t.Errorf("result notice = %q", got)
	}
}

func TestSettings_EscReturnsToFeeder(t *testing.T) {
	m, _, _ := newTestApp(t, http.StatusOK)

	m, _ = update(t, m, switchScreenMsg{screen: ScreenSettings})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	msg := awaitMsg[switchScreenMsg](t, cmd)
	m, _ = update(t, m, msg)

	if m.CurrentScreen != ScreenFeeder {
		t.Errorf("screen = %v, want feeder", m.CurrentScreen)
	}
}

func TestSnackbar(t *testing.T) {
	s := &snackbar{}

	s.ShowPending(command.Dispense, "Dispensing...")
	s.RetractPending(command.OpenDoor)
	if !s.Notice().Visible {
		t.Error("retracting another kind should keep the notice")
	}

	pendingSeq := s.Notice().seq
	s.expire(pendingSeq)
	if !s.Notice().Visible {
		t.Error("pending notices do not expire")
	}

	s.RetractPending(command.Dispense)
	if s.Notice().Visible {
		t.Error("retracting the pending kind should hide the notice")
	}

	s.ShowResult(command.Dispense, "Food dispensed!", device.NewSuccess())
	resultSeq := s.Notice().seq
	s.ShowResult(command.OpenDoor, "Door opened!", device.NewSuccess())
	s.expire(resultSeq)
	if got := s.Notice().Text; got != "Door opened!" {
		t.Errorf("stale expiry hid the newer notice, got %q", got)
	}
}

func TestView_Screens(t *testing.T) {
	m, _, _ := newTestApp(t, http.StatusOK)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	view := m.View()
	for _, want := range []string{"Feeder", "Dispense", "disabled"} {
		if !strings.Contains(view, want) {
			t.Errorf("feeder view missing %q", want)
		}
	}

	m, _ = update(t, m, switchScreenMsg{screen: ScreenSettings})
	view = m.View()
	for _, want := range []string{"Settings", "Vibration", "Open Door", "Close Door"} {
		if !strings.Contains(view, want) {
			t.Errorf("settings view missing %q", want)
		}
	}
}

func TestSnackbar_ResultReplacesOtherPending(t *testing.T) {
	s := &snackbar{}

	s.ShowPending(command.OpenDoor, "Opening door...")
	s.ShowResult(command.Dispense, "Food dispensed!", device.NewSuccess())

	n := s.Notice()
	if n.Pending || n.Kind != command.Dispense || n.Text != "Food dispensed!" {
		t.Errorf("Notice() = %+v, want the dispense result", n)
	}

	s.RetractPending(command.OpenDoor)
	if !s.Notice().Visible {
		t.Error("a late door retract should not hide the dispense result")
	}
}
