package command

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gingus/katfod/internal/config"
	"github.com/gingus/katfod/internal/device"
	"github.com/gingus/katfod/internal/logging"
)

// ErrPending is returned by Begin when the kind already has a request in
// flight. The trigger is dropped.
var ErrPending = errors.New("command already pending")

// Notifier displays transient notices.
type Notifier interface {
	// Dismiss hides whatever transient notice is currently shown.
	Dismiss()
	ShowPending(kind Kind, text string)
	RetractPending(kind Kind)
	ShowResult(kind Kind, message string, outcome device.Outcome)
}

// Haptics gives physical feedback for a tap.
type Haptics interface {
	Vibrate()
}

// Settings is the read side of the endpoint configuration.
type Settings interface {
	Endpoint() config.Endpoint
	VibrationEnabled() bool
}

// Request is one command invocation, built fresh by Begin.
type Request struct {
	// ID correlates the log lines of one round trip.
	ID       string
	Kind     Kind
	URL      string
	Endpoint config.Endpoint
	IssuedAt time.Time
}

// Result is a resolved invocation.
type Result struct {
	Request Request
	Outcome device.Outcome
	Message string
}

// Success reports whether the feeder accepted the command.
func (r Result) Success() bool {
	return r.Outcome.IsSuccess()
}

// Coordinator owns the per-kind pending state.
type Coordinator struct {
	client   device.Sender
	settings Settings
	notifier Notifier
	haptics  Haptics
	timeout  time.Duration
	newID    func() string
	now      func() time.Time

	mu     sync.Mutex
	states map[Kind]State
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets where pending and terminal notices go.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithHaptics sets the tap feedback.
func WithHaptics(h Haptics) Option {
	return func(c *Coordinator) {
		if h != nil {
			c.haptics = h
		}
	}
}

// WithTimeout overrides device.DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a coordinator that sends through client and reads the
// endpoint from settings on every invocation.
func New(client device.Sender, settings Settings, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:   client,
		settings: settings,
		notifier: nopNotifier{},
		haptics:  nopHaptics{},
		timeout:  device.DefaultTimeout,
		newID:    uuid.NewString,
		now:      time.Now,
		states:   make(map[Kind]State),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state of kind.
func (c *Coordinator) State(kind Kind) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[kind]
}

// Timeout returns the per-request bound.
func (c *Coordinator) Timeout() time.Duration {
	return c.timeout
}

// Begin moves kind to PENDING and shows the optimistic feedback. It returns
// ErrPending, with no side effects, if kind is already in flight.
func (c *Coordinator) Begin(kind Kind) (Request, error) {
	c.mu.Lock()
	if c.states[kind] == StatePending {
		c.mu.Unlock()
		logging.Debug("Ignoring duplicate trigger", zap.String("kind", kind.String()))
		return Request{}, ErrPending
	}
	c.states[kind] = StatePending
	c.mu.Unlock()

	ep := c.settings.Endpoint()
	req := Request{
		ID:       c.newID(),
		Kind:     kind,
		URL:      ep.URL(kind.Path()),
		Endpoint: ep,
		IssuedAt: c.now(),
	}

	if c.settings.VibrationEnabled() {
		c.haptics.Vibrate()
	}
	c.notifier.Dismiss()
	c.notifier.ShowPending(kind, kind.PendingText())

	logging.Debug("Command pending",
		zap.String("request_id", req.ID),
		zap.String("kind", kind.String()),
		zap.String("url", req.URL),
	)
	return req, nil
}

// Execute performs the device request for req. It touches no coordinator
// state and is safe to run off the UI goroutine.
func (c *Coordinator) Execute(ctx context.Context, req Request) device.Outcome {
	return c.client.Send(ctx, req.URL, c.timeout)
}

// Complete resolves req with outcome: the pending notice is retracted, the
// terminal message is shown and the kind returns to IDLE.
func (c *Coordinator) Complete(req Request, outcome device.Outcome) Result {
	c.mu.Lock()
	c.states[req.Kind] = StateResolved
	c.mu.Unlock()

	msg := Message(req.Kind, outcome)
	c.notifier.RetractPending(req.Kind)
	c.notifier.ShowResult(req.Kind, msg, outcome)

	logging.LogCommand(req.ID, req.Kind.String(), req.URL, outcome.String(), outcome.Elapsed)

	c.mu.Lock()
	c.states[req.Kind] = StateIdle
	c.mu.Unlock()

	return Result{Request: req, Outcome: outcome, Message: msg}
}

// Invoke runs Begin, Execute and Complete on the calling goroutine.
func (c *Coordinator) Invoke(ctx context.Context, kind Kind) (Result, error) {
	req, err := c.Begin(kind)
	if err != nil {
		return Result{}, err
	}
	return c.Complete(req, c.Execute(ctx, req)), nil
}

type nopNotifier struct{}

func (nopNotifier) Dismiss()                                {}
func (nopNotifier) ShowPending(Kind, string)                {}
func (nopNotifier) RetractPending(Kind)                     {}
func (nopNotifier) ShowResult(Kind, string, device.Outcome) {}

type nopHaptics struct{}

func (nopHaptics) Vibrate() {}
