package simulator

import (
	"net/http"
	"sync"
	"time"
)

// Feeder is the simulated hardware.
type Feeder struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	dispenses []time.Time
	last      time.Time
	total     int
	doorOpen  bool
	faulted   bool
}

// State is a snapshot of the simulated hardware.
type State struct {
	DoorOpen       bool      `json:"door_open"`
	Faulted        bool      `json:"faulted"`
	TotalDispenses int       `json:"total_dispenses"`
	LastDispense   time.Time `json:"last_dispense,omitempty"`
}

// NewFeeder allows limit dispenses per window. A non-positive limit disables
// rate limiting.
func NewFeeder(limit int, window time.Duration) *Feeder {
	return &Feeder{limit: limit, window: window, now: time.Now}
}

// Dispense runs the motor and returns the HTTP status the firmware would
// answer with.
func (f *Feeder) Dispense() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.faulted {
		return http.StatusInternalServerError
	}

	now := f.now()
	f.prune(now)
	if f.limit > 0 && len(f.dispenses) >= f.limit {
		return http.StatusTooManyRequests
	}

	f.dispenses = append(f.dispenses, now)
	f.last = now
	f.total++
	return http.StatusOK
}

// prune drops dispenses older than the window.
func (f *Feeder) prune(now time.Time) {
	cutoff := now.Add(-f.window)
	keep := f.dispenses[:0]
	for _, t := range f.dispenses {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	f.dispenses = keep
}

// SetDoor moves the door servo. The firmware answers 200 whether or not the
// door was already in that position.
func (f *Feeder) SetDoor(open bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doorOpen = open
	return http.StatusOK
}

// SetFault makes subsequent dispenses fail with 500 until cleared.
func (f *Feeder) SetFault(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faulted = on
}

// State returns a snapshot.
func (f *Feeder) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return State{
		DoorOpen:       f.doorOpen,
		Faulted:        f.faulted,
		TotalDispenses: f.total,
		LastDispense:   f.last,
	}
}
