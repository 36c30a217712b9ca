// Package ui renders the one-shot CLI output of katfod.
//
// Commands such as 'katfod dispense' print a short header, show the pending
// notice while the request is in flight, and finish with a result box. The
// components are plain lipgloss renderings; nothing here waits for input.
//
//   - Header: command banner with the feeder address and timeout
//   - Result: success, warning or failure box with details and hints
//   - Console: a command.Notifier and command.Haptics for the terminal
//
// When output is not a terminal (pipes, scripts, CI), Console falls back to
// one plain line per notice so the output stays grep-able.
//
// # Logging Integration
//
// zap logging is silent unless KATFOD_LOG_LEVEL or --log-level is set, so
// the curated output here is all the user sees.
package ui
