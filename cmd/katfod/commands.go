package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gingus/katfod/internal/command"
	"github.com/gingus/katfod/internal/device"
	"github.com/gingus/katfod/internal/discovery"
	"github.com/gingus/katfod/internal/stream"
	"github.com/gingus/katfod/internal/ui"
)

// Command flags
var (
	scanTimeout  time.Duration
	scanSave     bool
	scanFirst    bool
	snapshotPath string
)

func init() {
	rootCmd.AddCommand(newFeederCmd(command.Dispense, "Dispense one portion of food"))
	rootCmd.AddCommand(newFeederCmd(command.OpenDoor, "Open the feeder door"))
	rootCmd.AddCommand(newFeederCmd(command.CloseDoor, "Close the feeder door"))
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// newFeederCmd builds the one-shot command for kind.
func newFeederCmd(kind command.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind.String(),
		Short: short,
		Long: short + `.

The command exits with status 0 only when the feeder answers 200 OK.`,
		Example: fmt.Sprintf(`  # Use the saved feeder address
  katfod %[1]s

  # Talk to another feeder once, without saving it
  katfod %[1]s --device 192.168.100.69:8080`, kind),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeederCommand(kind)
		},
	}
}

func runFeederCommand(kind command.Kind) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	settings, err := commandSettings(store)
	if err != nil {
		return err
	}

	console := ui.NewConsole(os.Stdout)
	client := device.NewClient()
	defer client.Close()

	coord := command.New(client, settings,
		command.WithNotifier(console),
		command.WithHaptics(console),
		command.WithTimeout(timeout),
	)

	console.PrintHeader("KATFOD", "katfod "+kind.String(),
		ui.Param{Key: "Feeder", Value: settings.Endpoint().String()},
		ui.Param{Key: "Timeout", Value: coord.Timeout().String()},
	)

	res, err := coord.Invoke(context.Background(), kind)
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("%s failed: %s", kind, res.Outcome)
	}
	return nil
}

// configCmd groups the settings file commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change saved settings",
	Long: `Show or change the saved feeder address and preferences.

Every change is written to the settings file immediately. Hosts are
stored without an http:// or https:// prefix; ports are stored exactly
as given.`,
	Example: `  katfod config show
  katfod config set-host 192.168.100.69
  katfod config set-port 8080
  katfod config set-vibration false`,
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			fmt.Println(store.Path())
			return nil
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "set-host <host>",
		Short: "Save the feeder host or IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			host, err := store.SetHost(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Feeder host set to %s\n", host)
			return nil
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "set-port <port>",
		Short: "Save the feeder HTTP port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			port, err := store.SetPort(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Feeder port set to %s\n", port)
			return nil
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "set-vibration <true|false>",
		Short: "Turn tap feedback on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q: want true or false", args[0])
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.SetVibration(enabled); err != nil {
				return err
			}
			fmt.Printf("Vibration set to %t\n", enabled)
			return nil
		},
	})
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	s := store.Settings()

	fmt.Printf("Settings file:  %s\n", store.Path())
	fmt.Printf("IP address:     %s\n", s.IPAddress)
	fmt.Printf("Port:           %s\n", s.Port)
	fmt.Printf("Vibration:      %t\n", s.VibrationEnabled)
	fmt.Printf("Feeder URL:     %s\n", s.Endpoint().BaseURL())
	return nil
}

// scanCmd discovers feeders on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for feeders on the network",
	Long: `Scan for feeders using mDNS/DNS-SD discovery.

Feeders are recognised by a "model=katfod-feeder" TXT record or by an
instance name that looks like feeder firmware.`,
	Example: `  # Scan for 5 seconds (default)
  katfod scan

  # Listen longer on a busy network
  katfod scan --scan-timeout 15s

  # Stop at the first feeder and save it as the feeder address
  katfod scan --first --save`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to listen for feeders")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Save the feeder found as the feeder address")
	scanCmd.Flags().BoolVar(&scanFirst, "first", false, "Stop at the first feeder that answers")
}

func runScan(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout

	fmt.Printf("Scanning for feeders (timeout: %v)...\n\n", scanTimeout)

	var feeders []*discovery.Feeder
	if scanFirst {
		f, err := scanner.First(cmd.Context())
		if err != nil {
			return err
		}
		feeders = []*discovery.Feeder{f}
	} else {
		found, err := scanner.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		feeders = found
	}

	if len(feeders) == 0 {
		fmt.Println("No feeders found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the feeder is powered and on the same network")
		fmt.Println("  - Some routers block multicast between WiFi and wired clients")
		fmt.Println("  - Try increasing --scan-timeout")
		fmt.Println("  - Use 'katfod config set-host <ip>' if you know the address")
		return nil
	}

	fmt.Printf("Found %d feeder(s):\n\n", len(feeders))
	for i, f := range feeders {
		fmt.Printf("%d. %s\n", i+1, f.Instance)
		fmt.Printf("   Host:  %s\n", f.Hostname)
		fmt.Printf("   IP:    %s:%d\n", f.IP, f.Port)
		if model := f.GetMetadata(discovery.ModelKey); model != "" {
			fmt.Printf("   Model: %s\n", model)
		}
		fmt.Println()
	}

	if !scanSave {
		fmt.Println("Use 'katfod scan --save' or 'katfod config set-host <ip>' to save a feeder")
		return nil
	}
	if len(feeders) > 1 {
		return fmt.Errorf("found %d feeders; pick one with 'katfod config set-host <ip>'", len(feeders))
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	ep, err := store.SetEndpoint(feeders[0].Endpoint())
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s as the feeder address\n", ep)
	return nil
}

// snapshotCmd saves one camera frame
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save one frame from the feeder camera",
	Long: `Connect to the feeder's MJPEG stream at /video, save the first
frame as a JPEG file and disconnect.`,
	Example: `  katfod snapshot
  katfod snapshot -o bowl.jpg --device 192.168.100.69`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotPath, "output", "o", "snapshot.jpg", "Output file")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	settings, err := commandSettings(store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), stream.ConnectTimeout+timeout)
	defer cancel()

	client := stream.NewHTTPClient()
	frame, err := stream.Snapshot(ctx, client, settings.Endpoint().VideoURL())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("no frame from %s within %v", settings.Endpoint(), stream.ConnectTimeout+timeout)
		}
		return fmt.Errorf("snapshot failed: %w", err)
	}

	if err := os.WriteFile(snapshotPath, frame.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", snapshotPath, err)
	}
	fmt.Printf("Saved %d bytes to %s\n", len(frame.Data), snapshotPath)
	return nil
}
