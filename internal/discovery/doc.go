// Package discovery finds feeder appliances on the local network over mDNS.
//
// Feeders run a plain HTTP server and advertise it as an "_http._tcp"
// service. Plenty of other devices do the same, so entries are filtered:
// an entry is a feeder when its TXT records carry model=katfod-feeder, or
// when its instance or host name looks like one (contains "feeder",
// "katfod", "esp32" or "esp-cam").
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 3 * time.Second
//
//	feeders, err := scanner.Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, f := range feeders {
//	    fmt.Printf("%s at %s\n", f.Instance, f.Endpoint())
//	}
//
// Advertise registers the opposite side and is used by the simulator so it
// can be found the same way.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Feeders must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
