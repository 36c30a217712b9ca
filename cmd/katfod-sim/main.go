// Katfod-sim is a simulated cat feeder for developing and testing katfod
// without hardware.
//
// It serves the same HTTP endpoints as the feeder firmware, including a
// synthetic camera stream, and adds a websocket event feed and a few
// endpoints to inject faults.
//
// Usage:
//
//	katfod-sim serve [flags]
//
// See 'katfod-sim serve --help' for available options.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gingus/katfod/internal/logging"
	"github.com/gingus/katfod/internal/simulator"
	"github.com/gingus/katfod/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "katfod-sim",
	Short: "Simulated cat feeder",
	Long: `A simulated cat feeder for developing and testing katfod.

The simulator answers /dispense, /open_servo and /close_servo like the
feeder firmware, streams a synthetic camera on /video and publishes what
it does on the /events websocket.

Note: For controlling a feeder, use the 'katfod' utility.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command flags
var (
	simConfig = simulator.DefaultConfig()
	logLevel  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulated feeder",
	Long: `Start the simulated feeder and serve until interrupted.

Dispensing is rate limited: more than --dispense-limit dispenses within
--dispense-window answer 429. GET /sim/fault?on=true makes every dispense
answer 500 until GET /sim/fault?on=false. GET /sim/state reports the
door position and the dispense count as JSON.`,
	Example: `  # Start on port 8080 and point katfod at it
  katfod-sim serve
  katfod --device 127.0.0.1:8080 dispense

  # Slow, door-less firmware that shows up in 'katfod scan'
  katfod-sim serve --latency 1500ms --no-doors --advertise

  # Verbose access log
  katfod-sim serve --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&simConfig.Host, "host", "", "Listen address (empty = all interfaces)")
	f.IntVar(&simConfig.Port, "port", simulator.DefaultPort, "Listen port")
	f.DurationVar(&simConfig.Latency, "latency", 0, "Delay before answering each command")
	f.IntVar(&simConfig.DispenseLimit, "dispense-limit", simulator.DefaultDispenseLimit, "Dispenses allowed per window (0 = unlimited)")
	f.DurationVar(&simConfig.DispenseWindow, "dispense-window", simulator.DefaultDispenseWindow, "Rate limit window")
	f.IntVar(&simConfig.FPS, "fps", simulator.DefaultFPS, "Frames per second of the camera stream")
	f.BoolVar(&simConfig.NoDoors, "no-doors", false, "Answer 404 on the door endpoints")
	f.BoolVar(&simConfig.Advertise, "advertise", false, "Advertise the simulator over mDNS")
	f.StringVar(&simConfig.Instance, "instance", simulator.DefaultInstance, "mDNS instance name")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	if simConfig.FPS <= 0 {
		return fmt.Errorf("--fps must be positive, got %d", simConfig.FPS)
	}
	if simConfig.DispenseLimit < 0 {
		return fmt.Errorf("--dispense-limit must not be negative, got %d", simConfig.DispenseLimit)
	}

	fmt.Printf("Simulated feeder listening on port %d (Ctrl+C to stop)\n", simConfig.Port)
	return simulator.New(simConfig).Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("katfod-sim %s (commit: %s)\n", version.Version, version.Commit)
	},
}
