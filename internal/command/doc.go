// Package command coordinates user-triggered feeder commands.
//
// Each command kind (dispense, open door, close door) runs through a small
// state machine:
//
//	IDLE → PENDING → RESOLVED → IDLE
//
// Begin moves a kind to PENDING and drives the optimistic feedback: a haptic
// pulse when vibration is enabled, dismissal of whatever notice is on
// screen, then the pending notice ("Dispensing..."). Execute performs the
// single device request. Complete retracts the pending notice and shows the
// terminal message for the outcome.
//
// A second trigger of the same kind while it is PENDING fails with
// ErrPending and has no side effects, so a double tap never dispenses twice.
// Different kinds are independent.
//
// Interactive front-ends call Begin and Complete on their UI goroutine and
// run Execute in the background. Synchronous callers use Invoke.
package command
