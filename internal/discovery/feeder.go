package discovery

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gingus/katfod/internal/config"
)

// Feeder is an appliance found on the network.
type Feeder struct {
	// Instance is the advertised service instance name.
	Instance string

	// Hostname is the mDNS hostname (e.g., "esp32-feeder.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available.
	IP string

	Port int

	// Metadata holds the TXT records as key/value pairs.
	Metadata map[string]string

	DiscoveredAt time.Time
}

// String returns a human-readable description.
func (f *Feeder) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d", f.Instance, f.Hostname, f.IP, f.Port)
}

// Endpoint returns the feeder's address in settings form.
func (f *Feeder) Endpoint() config.Endpoint {
	return config.Endpoint{Host: f.IP, Port: strconv.Itoa(f.Port)}
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (f *Feeder) GetMetadata(key string) string {
	if f.Metadata == nil {
		return ""
	}
	return f.Metadata[key]
}
