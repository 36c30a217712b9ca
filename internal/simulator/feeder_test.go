package simulator

import (
	"net/http"
	"testing"
	"time"
)

func TestFeeder_RateLimit(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFeeder(2, 10*time.Second)
	f.now = func() time.Time { return now }

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, code := range want {
		if got := f.Dispense(); got != code {
			t.Errorf("dispense %d = %d, want %d", i, got, code)
		}
	}

	now = now.Add(11 * time.Second)
	if got := f.Dispense(); got != http.StatusOK {
		t.Errorf("dispense after window = %d, want 200", got)
	}

	if got := f.State().TotalDispenses; got != 3 {
		t.Errorf("TotalDispenses = %d, want 3 (rejected ones do not count)", got)
	}
	if !f.State().LastDispense.Equal(now) {
		t.Errorf("LastDispense = %v, want %v", f.State().LastDispense, now)
	}
}

func TestFeeder_NoLimit(t *testing.T) {
	f := NewFeeder(0, time.Minute)
	for i := 0; i < 20; i++ {
		if got := f.Dispense(); got != http.StatusOK {
			t.Fatalf("dispense %d = %d, want 200", i, got)
		}
	}
}

func TestFeeder_Fault(t *testing.T) {
	f := NewFeeder(0, time.Minute)

	f.SetFault(true)
	if got := f.Dispense(); got != http.StatusInternalServerError {
		t.Errorf("faulted dispense = %d, want 500", got)
	}
	if f.State().TotalDispenses != 0 {
		t.Error("faulted dispense should not count")
	}

	f.SetFault(false)
	if got := f.Dispense(); got != http.StatusOK {
		t.Errorf("dispense after clearing fault = %d, want 200", got)
	}
}

func TestFeeder_Door(t *testing.T) {
	f := NewFeeder(0, time.Minute)

	if got := f.SetDoor(true); got != http.StatusOK || !f.State().DoorOpen {
		t.Errorf("SetDoor(true) = %d, open=%v", got, f.State().DoorOpen)
	}
	if got := f.SetDoor(true); got != http.StatusOK {
		t.Errorf("opening an open door = %d, want 200", got)
	}
	if got := f.SetDoor(false); got != http.StatusOK || f.State().DoorOpen {
		t.Errorf("SetDoor(false) = %d, open=%v", got, f.State().DoorOpen)
	}
}
