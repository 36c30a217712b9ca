package ui

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gingus/katfod/internal/command"
	"github.com/gingus/katfod/internal/device"
)

const (
	clearLine = "\r\033[K"
	bell      = "\a"
)

// Console shows command notices on a terminal. It implements
// command.Notifier and command.Haptics.
type Console struct {
	out   io.Writer
	tty   bool
	width int

	mu             sync.Mutex
	pendingVisible bool
}

// NewConsole writes to out, styled when out is a terminal.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:   out,
		tty:   IsTerminal(out),
		width: TerminalWidth(out),
	}
}

// Styled reports whether output is rendered with boxes and colors.
func (c *Console) Styled() bool {
	return c.tty
}

// PrintHeader prints a command banner. Nothing is printed in plain mode.
func (c *Console) PrintHeader(title, cmd string, params ...Param) {
	if !c.tty {
		return
	}
	h := &Header{Title: title, Command: cmd, Params: params, Width: c.width}
	c.println(h.Render())
}

// Vibrate rings the terminal bell.
func (c *Console) Vibrate() {
	if !c.tty {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, bell)
}

// Dismiss clears a notice still on the current line.
func (c *Console) Dismiss() {
	c.clearPending()
}

// ShowPending prints the in-flight notice. On a terminal it stays on the
// current line so the result can replace it.
func (c *Console) ShowPending(_ command.Kind, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tty {
		_, _ = fmt.Fprintln(c.out, text)
		return
	}
	_, _ = io.WriteString(c.out, PendingStyle.Render(PendingMarker+" "+text))
	c.pendingVisible = true
}

// RetractPending removes the in-flight notice.
func (c *Console) RetractPending(command.Kind) {
	c.clearPending()
}

func (c *Console) clearPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingVisible {
		_, _ = io.WriteString(c.out, clearLine)
		c.pendingVisible = false
	}
}

// ShowResult prints the terminal message, boxed with details and hints on a
// terminal or as a single line otherwise.
func (c *Console) ShowResult(_ command.Kind, message string, outcome device.Outcome) {
	if !c.tty {
		c.println(message)
		return
	}
	c.println(OutcomeBox(message, outcome, c.width).Render())
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, s)
}

// OutcomeBox builds the result box for a resolved command.
func OutcomeBox(message string, outcome device.Outcome, width int) *Result {
	r := &Result{Title: message, Width: width}

	switch {
	case outcome.IsSuccess():
		r.Type = ResultSuccess
	case outcome.Status == device.StatusDeviceError && outcome.Code == http.StatusTooManyRequests:
		r.Type = ResultWarning
	default:
		r.Type = ResultFailure
	}

	r.AddDetail("Response", outcome.String())
	if outcome.Elapsed > 0 {
		r.AddDetail("Elapsed", outcome.Elapsed.Round(time.Millisecond).String())
	}
	if outcome.Err != nil {
		r.AddDetail("Error", outcome.Err.Error())
	}
	r.Hints = device.Hint(outcome)
	return r
}

// Compile-time interface checks
var (
	_ command.Notifier = (*Console)(nil)
	_ command.Haptics  = (*Console)(nil)
)
