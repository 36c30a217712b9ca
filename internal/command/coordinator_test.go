package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gingus/katfod/internal/config"
	"github.com/gingus/katfod/internal/device"
)

// recorder captures notifier and haptics calls in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Vibrate()                     { r.add("vibrate") }
func (r *recorder) Dismiss()                     { r.add("dismiss") }
func (r *recorder) ShowPending(k Kind, s string) { r.add("pending:" + s) }
func (r *recorder) RetractPending(k Kind)        { r.add("retract") }
func (r *recorder) ShowResult(k Kind, m string, _ device.Outcome) {
	r.add("result:" + m)
}

type fakeSettings struct {
	mu        sync.Mutex
	endpoint  config.Endpoint
	vibration bool
}

func (s *fakeSettings) Endpoint() config.Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

func (s *fakeSettings) VibrationEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vibration
}

// stubSender returns a fixed outcome, optionally blocking until released.
type stubSender struct {
	outcome device.Outcome
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}

	mu   sync.Mutex
	urls []string
}

func (s *stubSender) Send(ctx context.Context, rawURL string, timeout time.Duration) device.Outcome {
	s.calls.Add(1)
	s.mu.Lock()
	s.urls = append(s.urls, rawURL)
	s.mu.Unlock()

	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.outcome
}

func defaultSettings() *fakeSettings {
	return &fakeSettings{
		endpoint:  config.Endpoint{Host: "192.168.100.69", Port: "80"},
		vibration: true,
	}
}

func TestInvoke_NotifierOrder(t *testing.T) {
	rec := &recorder{}
	sender := &stubSender{outcome: device.NewSuccess()}
	c := New(sender, defaultSettings(), WithNotifier(rec), WithHaptics(rec))

	result, err := c.Invoke(context.Background(), Dispense)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	want := []string{
		"vibrate",
		"dismiss",
		"pending:Dispensing...",
		"retract",
		"result:Food dispensed!",
	}
	got := rec.Events()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}

	if result.Message != "Food dispensed!" || !result.Success() {
		t.Errorf("result = %+v", result)
	}
	if result.Request.URL != "http://192.168.100.69:80/dispense" {
		t.Errorf("URL = %q", result.Request.URL)
	}
	if result.Request.ID == "" {
		t.Error("request should carry an id")
	}
	if c.State(Dispense) != StateIdle {
		t.Errorf("State() = %v after Invoke, want idle", c.State(Dispense))
	}
}

func TestBegin_NoHapticsWhenVibrationDisabled(t *testing.T) {
	rec := &recorder{}
	settings := defaultSettings()
	settings.vibration = false
	c := New(&stubSender{outcome: device.NewSuccess()}, settings, WithNotifier(rec), WithHaptics(rec))

	if _, err := c.Invoke(context.Background(), OpenDoor); err != nil {
		t.Fatal(err)
	}

	for _, e := range rec.Events() {
		if e == "vibrate" {
			t.Fatal("vibrated with vibration disabled")
		}
	}
	if got := rec.Events()[0]; got != "dismiss" {
		t.Errorf("first event = %q, want dismiss", got)
	}
}

func TestBegin_DuplicateIsDropped(t *testing.T) {
	rec := &recorder{}
	sender := &stubSender{
		outcome: device.NewSuccess(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c := New(sender, defaultSettings(), WithNotifier(rec))

	done := make(chan Result, 1)
	go func() {
		result, err := c.Invoke(context.Background(), Dispense)
		if err != nil {
			t.Errorf("first Invoke() error = %v", err)
		}
		done <- result
	}()

	<-sender.entered
	if c.State(Dispense) != StatePending {
		t.Fatalf("State() = %v while in flight, want pending", c.State(Dispense))
	}

	before := len(rec.Events())
	for i := 0; i < 3; i++ {
		if _, err := c.Invoke(context.Background(), Dispense); !errors.Is(err, ErrPending) {
			t.Errorf("duplicate Invoke() error = %v, want ErrPending", err)
		}
	}
	if after := len(rec.Events()); after != before {
		t.Errorf("dropped triggers produced %d notices", after-before)
	}

	close(sender.release)
	<-done

	if n := sender.calls.Load(); n != 1 {
		t.Errorf("device called %d times, want 1", n)
	}

	// Ready again once resolved
	sender.entered = nil
	sender.release = nil
	if _, err := c.Invoke(context.Background(), Dispense); err != nil {
		t.Errorf("Invoke() after resolve error = %v", err)
	}
	if n := sender.calls.Load(); n != 2 {
		t.Errorf("device called %d times, want 2", n)
	}
}

func TestBegin_KindsAreIndependent(t *testing.T) {
	c := New(&stubSender{outcome: device.NewSuccess()}, defaultSettings())

	dispense, err := c.Begin(Dispense)
	if err != nil {
		t.Fatal(err)
	}
	open, err := c.Begin(OpenDoor)
	if err != nil {
		t.Errorf("Begin(OpenDoor) while dispensing error = %v", err)
	}

	if c.State(Dispense) != StatePending || c.State(OpenDoor) != StatePending {
		t.Error("both kinds should be pending")
	}
	if c.State(CloseDoor) != StateIdle {
		t.Error("untouched kind should be idle")
	}

	c.Complete(open, device.NewSuccess())
	c.Complete(dispense, device.NewSuccess())
}

func TestBegin_ReadsEndpointFresh(t *testing.T) {
	settings := defaultSettings()
	sender := &stubSender{outcome: device.NewSuccess()}
	c := New(sender, settings)

	if _, err := c.Invoke(context.Background(), CloseDoor); err != nil {
		t.Fatal(err)
	}

	settings.mu.Lock()
	settings.endpoint = config.Endpoint{Host: "10.0.0.7", Port: "8080"}
	settings.mu.Unlock()

	if _, err := c.Invoke(context.Background(), CloseDoor); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"http://192.168.100.69:80/close_servo",
		"http://10.0.0.7:8080/close_servo",
	}
	if strings.Join(sender.urls, ",") != strings.Join(want, ",") {
		t.Errorf("urls = %v, want %v", sender.urls, want)
	}
}

func TestExecute_PassesTimeout(t *testing.T) {
	var got time.Duration
	sender := senderFunc(func(ctx context.Context, rawURL string, timeout time.Duration) device.Outcome {
		got = timeout
		return device.NewSuccess()
	})

	c := New(sender, defaultSettings(), WithTimeout(750*time.Millisecond))
	if _, err := c.Invoke(context.Background(), Dispense); err != nil {
		t.Fatal(err)
	}
	if got != 750*time.Millisecond {
		t.Errorf("timeout = %v, want 750ms", got)
	}

	if New(sender, defaultSettings()).Timeout() != device.DefaultTimeout {
		t.Error("default timeout should be device.DefaultTimeout")
	}
}

type senderFunc func(ctx context.Context, rawURL string, timeout time.Duration) device.Outcome

func (f senderFunc) Send(ctx context.Context, rawURL string, timeout time.Duration) device.Outcome {
	return f(ctx, rawURL, timeout)
}

func TestConcurrentTriggers_SingleRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := device.NewClient()
	defer client.Close()

	c := New(client, endpointFor(t, server.URL))

	var wg sync.WaitGroup
	var accepted atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Invoke(context.Background(), Dispense); err == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	if int(accepted.Load()) != int(hits.Load()) {
		t.Errorf("accepted %d triggers but feeder saw %d requests", accepted.Load(), hits.Load())
	}
	if hits.Load() < 1 {
		t.Error("at least one trigger should reach the feeder")
	}
}

func endpointFor(t *testing.T, serverURL string) *fakeSettings {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(serverURL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	return &fakeSettings{endpoint: config.Endpoint{Host: host, Port: port}, vibration: true}
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		code    int
		pending string
		want    string
	}{
		{"dispense accepted", Dispense, http.StatusOK, "Dispensing...", "Food dispensed!"},
		{"dispense rate limited", Dispense, http.StatusTooManyRequests, "Dispensing...", "Too many dispenses. Calm down!"},
		{"door opened", OpenDoor, http.StatusOK, "Opening door...", "Door opened!"},
		{"door closed", CloseDoor, http.StatusOK, "Closing door...", "Door closed!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.kind.Path() {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.WriteHeader(tt.code)
			}))
			defer server.Close()

			client := device.NewClient()
			defer client.Close()

			rec := &recorder{}
			c := New(client, endpointFor(t, server.URL), WithNotifier(rec))

			result, err := c.Invoke(context.Background(), tt.kind)
			if err != nil {
				t.Fatalf("Invoke() error = %v", err)
			}
			if result.Message != tt.want {
				t.Errorf("Message = %q, want %q", result.Message, tt.want)
			}

			events := rec.Events()
			wantEvents := []string{"dismiss", "pending:" + tt.pending, "retract", "result:" + tt.want}
			if strings.Join(events, ",") != strings.Join(wantEvents, ",") {
				t.Errorf("events = %v, want %v", events, wantEvents)
			}
		})
	}
}

func TestScenario_OpenDoorUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	_, port, _ := net.SplitHostPort(listener.Addr().String())
	_ = listener.Close()

	client := device.NewClient()
	defer client.Close()

	settings := &fakeSettings{endpoint: config.Endpoint{Host: "127.0.0.1", Port: port}}
	c := New(client, settings)

	start := time.Now()
	result, err := c.Invoke(context.Background(), OpenDoor)
	if err != nil {
		t.Fatal(err)
	}

	if result.Message != "Feeder hardware unreachable. Check if hardware is active." {
		t.Errorf("Message = %q", result.Message)
	}
	if elapsed := time.Since(start); elapsed > device.DefaultTimeout+500*time.Millisecond {
		t.Errorf("resolved after %v, want within the timeout", elapsed)
	}
}

func TestScenario_UnreachableHostWithinTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer server.Close()

	client := device.NewClient()
	defer client.Close()

	c := New(client, endpointFor(t, server.URL), WithTimeout(100*time.Millisecond))

	result, err := c.Invoke(context.Background(), Dispense)
	if err != nil {
		t.Fatal(err)
	}
	if result.Message != "Can't reach Feeder hardware... Check if hardware is active." {
		t.Errorf("Message = %q", result.Message)
	}
	if result.Outcome.Reason != device.ReasonTimeout {
		t.Errorf("Reason = %v, want timeout", result.Outcome.Reason)
	}
}

func ExampleMessage() {
	fmt.Println(Message(Dispense, device.NewDeviceError(429)))
	fmt.Println(Message(CloseDoor, device.NewSuccess()))
	// Output:
	// Too many dispenses. Calm down!
	// Door closed!
}
