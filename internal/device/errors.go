package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
)

// errMalformedURL marks a target that could not be turned into a request.
var errMalformedURL = errors.New("malformed URL")

// Classify maps a transport error to the reason the request got no response.
// It returns ReasonNone for a nil error.
func Classify(err error) Reason {
	if err == nil {
		return ReasonNone
	}

	if errors.Is(err, errMalformedURL) {
		return ReasonMalformedURL
	}

	// Check for timeouts, including our own per-request deadline
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return ReasonTimeout
	}

	if errors.Is(err, context.Canceled) {
		return ReasonCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ReasonTimeout
		}
		return ReasonDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return ReasonConnectionRefused
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return ReasonHostUnreachable
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return ReasonNetworkUnreachable
		}
		if opErr.Timeout() {
			return ReasonTimeout
		}
	}

	// url.Error wraps the dial error; classify what is underneath
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
		return Classify(urlErr.Err)
	}

	return ReasonNetwork
}

// Hint returns troubleshooting lines for a failed outcome. It returns nil
// for a success.
func Hint(o Outcome) []string {
	switch o.Status {
	case StatusSuccess:
		return nil

	case StatusDeviceError:
		switch o.Code {
		case http.StatusNotFound:
			return []string{
				"The feeder does not know this endpoint.",
				"  • Check that the address points at the feeder and not another device",
				"  • Older firmware may not expose the door endpoints",
			}
		case http.StatusTooManyRequests:
			return []string{
				"The feeder is rate limiting dispenses.",
				"  • Wait a few seconds before dispensing again",
			}
		case http.StatusInternalServerError:
			return []string{
				"The feeder reported a hardware fault.",
				"  • Check the feeder's serial console for motor or servo errors",
				"  • Power cycle the feeder",
			}
		default:
			return []string{fmt.Sprintf("The feeder answered with HTTP %d.", o.Code)}
		}

	case StatusUnreachable:
		switch o.Reason {
		case ReasonTimeout:
			return []string{
				"The feeder did not answer in time.",
				"  • Check that the feeder is powered on",
				"  • Move the feeder closer to the WiFi access point",
			}
		case ReasonConnectionRefused:
			return []string{
				"The feeder refused the connection.",
				"  • Verify the port number (default is 80)",
				"  • The feeder's HTTP server may not be running, try rebooting it",
			}
		case ReasonDNS:
			return []string{
				"Could not resolve the feeder hostname.",
				"  • Use the IP address instead of a hostname",
				"  • Run 'katfod scan' to find the feeder on the local network",
			}
		case ReasonHostUnreachable, ReasonNetworkUnreachable:
			return []string{
				"The feeder is not reachable on the network.",
				"  • Verify the feeder address is correct",
				"  • Check that you are on the same network as the feeder",
			}
		case ReasonMalformedURL:
			return []string{
				"The feeder address is not usable.",
				"  • Set a plain host such as 192.168.100.100 with 'katfod config set-host'",
			}
		case ReasonCanceled:
			return nil
		default:
			return []string{
				"Network communication failed.",
				"  • Check your network connection",
				"  • Verify the feeder is powered on",
			}
		}
	}

	return nil
}
