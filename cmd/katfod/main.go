// Katfod is a remote control for a networked cat feeder.
//
// It sends the feeder's three commands (dispense, open door, close door)
// over plain HTTP, watches the feeder camera, and keeps the feeder address
// in a small settings file.
//
// Usage:
//
//	katfod [command] [flags]
//
// Running without arguments launches the full-screen interface.
// See 'katfod --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gingus/katfod/internal/command"
	"github.com/gingus/katfod/internal/config"
	"github.com/gingus/katfod/internal/device"
	"github.com/gingus/katfod/internal/logging"
	"github.com/gingus/katfod/internal/stream"
	"github.com/gingus/katfod/internal/tui"
	"github.com/gingus/katfod/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	deviceAddr string
	timeout    time.Duration
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "katfod",
	Short: "Cat feeder remote control",
	Long: `A remote control for a networked cat feeder.

Dispense food and open or close the feeder door over your local network,
watch the feeder camera, and manage the feeder address.

If no command is specified, the full-screen interface launches.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runUI,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: OS config dir, or $"+config.ConfigEnvVar+")")
	rootCmd.PersistentFlags().StringVar(&deviceAddr, "device", "", "Feeder address as host[:port] for this run only (not saved)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", device.DefaultTimeout, "Per-request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")

	rootCmd.AddCommand(versionCmd)
}

// setup loads .env and initializes logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is normal; anything else is worth reporting.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	return nil
}

func openStore() (*config.Store, error) {
	store, err := config.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return store, nil
}

// commandSettings returns the settings commands read from: the store, or
// the --device override on top of it.
func commandSettings(store *config.Store) (command.Settings, error) {
	if deviceAddr == "" {
		return store, nil
	}
	ep, err := parseDeviceAddr(deviceAddr, store.Endpoint().Port)
	if err != nil {
		return nil, err
	}
	return overrideSettings{endpoint: ep, base: store}, nil
}

// parseDeviceAddr splits "host[:port]". The host is sanitized the same way
// the settings store sanitizes it.
func parseDeviceAddr(addr, defaultPort string) (config.Endpoint, error) {
	host := config.SanitizeHost(addr)
	port := defaultPort

	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i:], "]") {
		host, port = host[:i], host[i+1:]
	}
	if host == "" {
		return config.Endpoint{}, fmt.Errorf("invalid --device %q: missing host", addr)
	}
	if port == "" {
		return config.Endpoint{}, fmt.Errorf("invalid --device %q: missing port", addr)
	}
	return config.Endpoint{Host: host, Port: port}, nil
}

// overrideSettings points commands at a fixed endpoint without touching
// the settings file.
type overrideSettings struct {
	endpoint config.Endpoint
	base     command.Settings
}

func (o overrideSettings) Endpoint() config.Endpoint { return o.endpoint }
func (o overrideSettings) VibrationEnabled() bool    { return o.base.VibrationEnabled() }

func runUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interactive interface needs a terminal; use 'katfod dispense' and friends in scripts")
	}
	if deviceAddr != "" {
		return errors.New("--device only applies to one-shot commands; change the feeder address on the settings screen")
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	client := device.NewClient()
	defer client.Close()

	return tui.Run(tui.Options{
		Store:   store,
		Client:  client,
		Timeout: timeout,
		Monitor: stream.NewMonitor(nil),
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("katfod %s (commit: %s)\n", version.Version, version.Commit)
	},
}
