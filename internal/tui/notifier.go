package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gingus/katfod/internal/command"
	"github.com/gingus/katfod/internal/device"
)

const (
	// noticeDuration is how long a result notice stays on screen.
	noticeDuration = 4 * time.Second

	// pulseDuration is how long the frame flashes after a tap.
	pulseDuration = 150 * time.Millisecond
)

type noticeExpiredMsg struct{ seq int }
type pulseDoneMsg struct{ seq int }

// Notice is the single transient message slot at the bottom of the feeder
// screen. At most one notice is visible; a new one replaces the old.
type Notice struct {
	Visible bool
	Pending bool
	Kind    command.Kind
	Text    string
	Outcome device.Outcome

	// seq changes whenever the slot is rewritten so stale expiry ticks
	// can be ignored.
	seq int
}

// snackbar implements command.Notifier on top of a notice slot. It is only
// touched from the bubbletea Update goroutine.
type snackbar struct {
	current Notice
	seq     int
}

func (s *snackbar) Dismiss() {
	s.seq++
	s.current = Notice{seq: s.seq}
}

func (s *snackbar) ShowPending(kind command.Kind, text string) {
	s.seq++
	s.current = Notice{Visible: true, Pending: true, Kind: kind, Text: text, seq: s.seq}
}

// RetractPending hides the pending notice of kind. A notice belonging to
// another kind is left alone.
func (s *snackbar) RetractPending(kind command.Kind) {
	if s.current.Visible && s.current.Pending && s.current.Kind == kind {
		s.Dismiss()
	}
}

func (s *snackbar) ShowResult(kind command.Kind, message string, outcome device.Outcome) {
	s.seq++
	s.current = Notice{Visible: true, Kind: kind, Text: message, Outcome: outcome, seq: s.seq}
}

// Notice returns the visible notice.
func (s *snackbar) Notice() Notice {
	return s.current
}

// expire hides the notice if it has not been replaced since seq.
func (s *snackbar) expire(seq int) {
	if s.current.seq == seq && !s.current.Pending {
		s.Dismiss()
	}
}

// expireCmd schedules the current result notice to disappear.
func (s *snackbar) expireCmd() tea.Cmd {
	seq := s.current.seq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// pulse implements command.Haptics by flashing the application frame.
type pulse struct {
	active bool
	seq    int
	count  int
}

func (p *pulse) Vibrate() {
	p.active = true
	p.seq++
	p.count++
}

func (p *pulse) done(seq int) {
	if p.seq == seq {
		p.active = false
	}
}

// tickCmd ends the pulse after pulseDuration. It returns nil when no pulse
// is running.
func (p *pulse) tickCmd() tea.Cmd {
	if !p.active {
		return nil
	}
	seq := p.seq
	return tea.Tick(pulseDuration, func(time.Time) tea.Msg {
		return pulseDoneMsg{seq: seq}
	})
}

var (
	_ command.Notifier = (*snackbar)(nil)
	_ command.Haptics  = (*pulse)(nil)
)
