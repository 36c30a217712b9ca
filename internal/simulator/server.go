package simulator

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/gingus/katfod/internal/discovery"
	"github.com/gingus/katfod/internal/logging"
	"github.com/gingus/katfod/internal/urls"
)

const (
	DefaultPort           = 8080
	DefaultFPS            = 10
	DefaultDispenseLimit  = 3
	DefaultDispenseWindow = 30 * time.Second
	DefaultInstance       = "katfod-sim"

	shutdownTimeout = 5 * time.Second
)

// Config holds the simulator configuration
type Config struct {
	Host string
	Port int

	// Latency delays every command response.
	Latency time.Duration

	// DispenseLimit dispenses are allowed per DispenseWindow; more get 429.
	DispenseLimit  int
	DispenseWindow time.Duration

	// FPS of the synthetic video stream.
	FPS int

	// NoDoors answers 404 on the servo endpoints, like firmware built
	// without the door servo.
	NoDoors bool

	// Advertise registers the simulator over mDNS as Instance.
	Advertise bool
	Instance  string
}

// DefaultConfig returns the configuration used by 'katfod-sim serve'.
func DefaultConfig() Config {
	return Config{
		Port:           DefaultPort,
		DispenseLimit:  DefaultDispenseLimit,
		DispenseWindow: DefaultDispenseWindow,
		FPS:            DefaultFPS,
		Instance:       DefaultInstance,
	}
}

// Server is the simulated appliance.
type Server struct {
	config Config
	feeder *Feeder
	camera *Camera
	hub    *Hub
	router *mux.Router

	httpServer *http.Server

	// stop cancels the context of every in-flight request so long-lived
	// video streams end on shutdown.
	stop context.CancelFunc

	mu     sync.Mutex
	advert *discovery.Advertisement
}

// New creates a simulator. Nothing listens until Start or Serve.
func New(config Config) *Server {
	feeder := NewFeeder(config.DispenseLimit, config.DispenseWindow)
	s := &Server{
		config: config,
		feeder: feeder,
		camera: &Camera{feeder: feeder},
		hub:    NewHub(),
	}
	s.router = s.routes()

	base, stop := context.WithCancel(context.Background())
	s.stop = stop
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	return s
}

// Feeder exposes the simulated hardware, mostly for tests.
func (s *Server) Feeder() *Feeder {
	return s.feeder
}

// Hub exposes the event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler with all routes and request logging.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(accessLog)

	r.HandleFunc(urls.DispensePath, s.handleDispense).Methods(http.MethodGet)
	r.HandleFunc(urls.OpenDoorPath, s.handleDoor(true)).Methods(http.MethodGet)
	r.HandleFunc(urls.CloseDoorPath, s.handleDoor(false)).Methods(http.MethodGet)
	r.HandleFunc(urls.VideoPath, s.serveVideo).Methods(http.MethodGet)
	r.Handle("/events", s.hub).Methods(http.MethodGet)

	sim := r.PathPrefix("/sim").Subrouter()
	sim.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	sim.HandleFunc("/fault", s.handleFault).Methods(http.MethodGet).Queries("on", "{on}")

	return r
}

// wait applies the configured latency. It returns false when the client
// went away first.
func (s *Server) wait(r *http.Request) bool {
	if s.config.Latency <= 0 {
		return true
	}
	select {
	case <-time.After(s.config.Latency):
		return true
	case <-r.Context().Done():
		return false
	}
}

func (s *Server) handleDispense(w http.ResponseWriter, r *http.Request) {
	if !s.wait(r) {
		return
	}

	code := s.feeder.Dispense()
	s.hub.Publish(Event{Type: EventDispense, Status: code})
	writeStatus(w, code)
}

func (s *Server) handleDoor(open bool) http.HandlerFunc {
	eventType := EventDoorClose
	if open {
		eventType = EventDoorOpen
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.NoDoors {
			http.NotFound(w, r)
			return
		}
		if !s.wait(r) {
			return
		}

		code := s.feeder.SetDoor(open)
		s.hub.Publish(Event{Type: eventType, Status: code})
		writeStatus(w, code)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.feeder.State())
}

func (s *Server) handleFault(w http.ResponseWriter, r *http.Request) {
	on, err := strconv.ParseBool(mux.Vars(r)["on"])
	if err != nil {
		http.Error(w, "on must be true or false", http.StatusBadRequest)
		return
	}

	s.feeder.SetFault(on)
	status := http.StatusOK
	if on {
		status = http.StatusInternalServerError
	}
	s.hub.Publish(Event{Type: EventFault, Status: status})
	writeStatus(w, http.StatusOK)
}

// writeStatus answers with a short plain-text body, as the firmware does.
func writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	_, _ = fmt.Fprintln(w, http.StatusText(code))
}

// Start listens on the configured address and blocks until SIGINT/SIGTERM
// or a server error.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	logging.Info("Starting feeder simulator",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("latency", s.config.Latency),
		zap.Int("dispense_limit", s.config.DispenseLimit),
		zap.Duration("dispense_window", s.config.DispenseWindow),
	)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping simulator...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

// Serve accepts connections on listener until Shutdown. It advertises over
// mDNS first when configured to.
func (s *Server) Serve(listener net.Listener) error {
	if s.config.Advertise {
		if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
			advert, err := discovery.Advertise(s.config.Instance, tcpAddr.Port)
			if err != nil {
				logging.Warn("mDNS advertisement failed", zap.Error(err))
			} else {
				s.mu.Lock()
				s.advert = advert
				s.mu.Unlock()
			}
		}
	}

	err := s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops advertising, disconnects event subscribers and stops the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.advert.Shutdown()
	s.advert = nil
	s.mu.Unlock()

	s.hub.CloseAll()
	s.stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down simulator: %w", err)
	}

	logging.Info("Simulator stopped")
	return nil
}

// statusRecorder captures the response code for the access log. It passes
// Flush and Hijack through so streaming and websocket routes keep working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
