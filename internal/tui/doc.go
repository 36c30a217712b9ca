// Package tui is the full-screen terminal interface of katfod, built on
// bubbletea.
//
// The app has two screens. The feeder screen carries the dispense button
// and a camera panel fed by a stream.Monitor. The settings screen edits the
// feeder address and the vibration switch and holds the door buttons.
// Settings are written through to the config store on every keystroke.
//
// Commands follow the coordinator's lifecycle. Begin and Complete run in
// Update, so the pending notice and the result notice only ever change on
// the bubbletea goroutine; the HTTP round trip runs in a tea.Cmd and comes
// back as a message. A single snackbar slot shows one notice at a time and
// result notices expire after a few seconds. Haptic feedback is a short
// flash of the application frame.
//
// Usage:
//
//	err := tui.Run(tui.Options{
//	    Store:   store,
//	    Client:  device.NewClient(),
//	    Monitor: stream.NewMonitor(nil),
//	})
package tui
