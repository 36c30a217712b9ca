// Package config owns the feeder endpoint settings: the appliance's host and
// port plus the vibration preference.
//
// Settings live in a small YAML file and every mutation is written through
// to disk before the setter returns. There is exactly one owner, the Store;
// readers take value snapshots, so a command always runs against the
// endpoint as it was when the command started.
//
// # Configuration File Location
//
//   - $KATFOD_CONFIG if set
//   - Linux: $XDG_CONFIG_HOME/katfod/config.yaml or $HOME/.config/katfod/config.yaml
//   - macOS: $HOME/.config/katfod/config.yaml
//   - Windows: %LOCALAPPDATA%\katfod\config.yaml
//
// # File Format
//
//	ip_address: 192.168.100.100
//	port: "80"
//	vibration_enabled: true
//
// Keys that are missing fall back to their defaults individually.
//
// # Usage Example
//
//	store, err := config.Open("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, err := store.SetHost("http://192.168.100.69 ")
//	// host == "192.168.100.69", already on disk
//
//	ep := store.Endpoint()
//	fmt.Println(ep.URL(urls.DispensePath))
//
// # Thread Safety
//
// Store methods are safe for concurrent use. Writes are serialized and the
// last writer wins.
package config
