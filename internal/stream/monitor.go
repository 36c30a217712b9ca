package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gingus/katfod/internal/logging"
)

const (
	// DefaultRetryDelay is the pause before reconnecting a dropped stream.
	DefaultRetryDelay = 2 * time.Second

	// DefaultStallTimeout is how long a connected stream may go without a
	// frame before it is dropped and reconnected.
	DefaultStallTimeout = 5 * time.Second

	statsInterval = time.Second
)

// ErrStalled is reported when a connected stream stops delivering frames.
var ErrStalled = errors.New("stream stalled")

// Stats describes the watched stream.
type Stats struct {
	URL       string
	Connected bool
	Frames    int
	FPS       float64
	LastSize  int
	LastFrame time.Time
	Err       error
}

// Monitor keeps a background connection to one stream URL at a time and
// publishes Stats. Only the latest Stats value is buffered.
type Monitor struct {
	client       *http.Client
	retryDelay   time.Duration
	stallTimeout time.Duration
	updates      chan Stats

	mu     sync.Mutex
	url    string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates an idle monitor. A nil client means NewHTTPClient().
func NewMonitor(client *http.Client) *Monitor {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Monitor{
		client:       client,
		retryDelay:   DefaultRetryDelay,
		stallTimeout: DefaultStallTimeout,
		updates:      make(chan Stats, 1),
	}
}

// SetRetryDelay changes the reconnect pause. Call before Watch.
func (m *Monitor) SetRetryDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryDelay = d
}

// SetStallTimeout changes how long a stream may go without a frame. Call
// before Watch.
func (m *Monitor) SetStallTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stallTimeout = d
}

// Updates delivers stats snapshots.
func (m *Monitor) Updates() <-chan Stats {
	return m.updates
}

// URL returns the URL being watched, or "" when stopped.
func (m *Monitor) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

// Watch starts watching rawURL. If a different URL is being watched, that
// connection is stopped first; watching the same URL again is a no-op.
func (m *Monitor) Watch(rawURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil && m.url == rawURL {
		return
	}
	m.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.url = rawURL
	m.cancel = cancel
	m.done = done

	logging.Debug("Watching stream", zap.String("url", rawURL))
	go m.run(ctx, rawURL, m.retryDelay, m.stallTimeout, done)
}

// Stop disconnects and waits for the background goroutine to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
	m.url = ""
}

func (m *Monitor) run(ctx context.Context, rawURL string, retryDelay, stallTimeout time.Duration, done chan struct{}) {
	defer close(done)

	for {
		err := m.consume(ctx, rawURL, stallTimeout)
		if ctx.Err() != nil {
			return
		}

		logging.Warn("Stream disconnected",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		m.publish(Stats{URL: rawURL, Err: err})

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

// consume reads frames until the stream fails, stalls for longer than
// stallTimeout, or ctx is done.
func (m *Monitor) consume(ctx context.Context, rawURL string, stallTimeout time.Duration) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r, err := Open(connCtx, m.client, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	// Cancelling the request context unblocks a Next stuck on a silent
	// connection.
	watchdog := time.AfterFunc(stallTimeout, cancel)
	defer watchdog.Stop()

	stats := Stats{URL: rawURL, Connected: true}
	m.publish(stats)

	windowStart := time.Now()
	windowFrames := 0

	for {
		frame, err := r.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if connCtx.Err() != nil {
				return ErrStalled
			}
			if errors.Is(err, io.EOF) {
				return errors.New("stream ended")
			}
			return err
		}

		watchdog.Reset(stallTimeout)

		stats.Frames++
		stats.LastSize = len(frame.Data)
		stats.LastFrame = frame.Received
		windowFrames++

		if stats.Frames == 1 {
			m.publish(stats)
		}
		if elapsed := frame.Received.Sub(windowStart); elapsed >= statsInterval {
			stats.FPS = float64(windowFrames) / elapsed.Seconds()
			windowStart = frame.Received
			windowFrames = 0
			m.publish(stats)
		}
	}
}

// publish replaces any unread stats with s.
func (m *Monitor) publish(s Stats) {
	for {
		select {
		case m.updates <- s:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}
