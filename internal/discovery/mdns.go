package discovery

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/gingus/katfod/internal/logging"
)

const (
	// ServiceType is the mDNS service type feeders advertise.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an entry advertises no port.
	DefaultPort = 80

	// ModelKey and ModelValue form the TXT record that marks a feeder.
	ModelKey   = "model"
	ModelValue = "katfod-feeder"
)

// namePattern matches instance or host names that look like a feeder.
var namePattern = regexp.MustCompile(`(?i)(feeder|katfod|esp32|esp-cam)`)

// Scanner handles mDNS feeder discovery
type Scanner struct {
	// Timeout is the maximum time to wait for feeders to answer
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for the scanner's timeout and returns every feeder that
// answered, sorted by instance name.
func (s *Scanner) Scan(ctx context.Context) ([]*Feeder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan []*Feeder, 1)

	go func() {
		seen := make(map[string]*Feeder)
		for entry := range entries {
			if f := parseServiceEntry(entry); f != nil {
				seen[f.Instance+"@"+f.IP] = f
			}
		}
		collected <- sortFeeders(seen)
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	// The resolver closes entries once it observes the cancelled context.
	feeders := <-collected
	logging.Debug("mDNS scan finished", zap.Int("feeders", len(feeders)))
	return feeders, nil
}

// First returns the first feeder that answers, or an error when none does
// within the timeout.
func (s *Scanner) First(ctx context.Context) (*Feeder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Feeder, 1)

	go func() {
		for entry := range entries {
			if f := parseServiceEntry(entry); f != nil {
				select {
				case found <- f:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case f := <-found:
		return f, nil
	case <-ctx.Done():
		select {
		case f := <-found:
			return f, nil
		default:
		}
		return nil, fmt.Errorf("no feeder found within %v", s.Timeout)
	}
}

func sortFeeders(seen map[string]*Feeder) []*Feeder {
	feeders := make([]*Feeder, 0, len(seen))
	for _, f := range seen {
		feeders = append(feeders, f)
	}
	sort.Slice(feeders, func(i, j int) bool {
		if feeders[i].Instance != feeders[j].Instance {
			return feeders[i].Instance < feeders[j].Instance
		}
		return feeders[i].IP < feeders[j].IP
	})
	return feeders
}

// parseServiceEntry converts a zeroconf service entry to a Feeder.
// Returns nil if the entry is not a feeder or has no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Feeder {
	if entry == nil {
		return nil
	}

	metadata := parseText(entry.Text)
	if !isFeeder(entry.Instance, entry.HostName, metadata) {
		return nil
	}

	ip := preferredIP(entry.AddrIPv4, entry.AddrIPv6)
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Feeder{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

func isFeeder(instance, hostname string, metadata map[string]string) bool {
	if metadata[ModelKey] == ModelValue {
		return true
	}
	return namePattern.MatchString(instance) || namePattern.MatchString(hostname)
}

func preferredIP(v4, v6 []net.IP) string {
	if len(v4) > 0 {
		return v4[0].String()
	}
	if len(v6) > 0 {
		return v6[0].String()
	}
	return ""
}

// parseText splits TXT records in "key=value" format. A key without a
// value maps to "".
func parseText(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	return metadata
}
