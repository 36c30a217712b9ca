// Package simulator is a fake feeder appliance for local development.
//
// It serves the same HTTP surface as the real microcontroller firmware:
//
//	GET /dispense     200, or 429 when rate limited, or 500 while faulted
//	GET /open_servo   200
//	GET /close_servo  200
//	GET /video        synthetic MJPEG stream
//
// plus a few extras that the real hardware does not have:
//
//	GET /events       websocket feed of simulated hardware actions
//	GET /sim/state    JSON snapshot of the simulated hardware
//	GET /sim/fault    ?on=true|false toggles the dispense fault
//
// Optional latency makes the pending notice visible in the UI, and the
// server can advertise itself over mDNS so 'katfod scan' finds it.
package simulator
