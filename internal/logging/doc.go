// Package logging provides structured logging for katfod.
//
// This package wraps a zap logger with convenience functions for the
// logging patterns used throughout the CLI, the terminal UI and the
// appliance simulator.
//
// # Log Levels
//
//   - Debug: Individual HTTP round trips, stream reconnects, ignored taps
//   - Info: Resolved commands, settings changes, simulator requests
//   - Warn: Settings that could not be persisted, stream failures
//   - Error: Startup failures
//
// # Structured Logging
//
//	logging.Info("Settings changed",
//	    zap.String("ip_address", "192.168.100.100"),
//	    zap.String("port", "80"),
//	)
//
// Command round trips have a dedicated helper that carries the request id
// so the pending and resolved lines of one tap can be matched up:
//
//	logging.LogCommand(req.ID, "dispense", req.URL, "success", elapsed)
//
// # Configuration
//
// Logging is silent unless a level is requested, either with the
// --log-level flag or the KATFOD_LOG_LEVEL environment variable. Output
// goes to stderr, or to the file named by KATFOD_LOG_FILE, which is the
// useful choice while the full-screen UI is running:
//
//	if err := logging.Initialize(logLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned.
package logging
