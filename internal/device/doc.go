// Package device is the HTTP client for the feeder appliance.
//
// The appliance exposes a handful of parameterless GET endpoints. Sending a
// command is a single round trip with a hard deadline, and its result is
// always one of three outcomes:
//
//   - Success: the appliance answered 200
//   - DeviceError: the appliance answered with any other status code
//   - Unreachable: no response was obtained (timeout, refused connection,
//     DNS failure, malformed address, ...)
//
// Send never returns an error and never retries. Interpreting an outcome for
// the user is the command package's job; this package only classifies.
//
// # Usage Example
//
//	client := device.NewClient()
//	defer client.Close()
//
//	outcome := client.Send(ctx, "http://192.168.100.100:80/dispense", device.DefaultTimeout)
//	switch outcome.Status {
//	case device.StatusSuccess:
//	    // done
//	case device.StatusDeviceError:
//	    log.Printf("appliance said %d", outcome.Code)
//	case device.StatusUnreachable:
//	    log.Printf("no answer: %s", outcome.Reason)
//	}
//
// # Resource Handling
//
// Every response body is drained (up to a bound) and closed on every path,
// so keep-alive connections go back to the pool instead of leaking.
//
// # Thread Safety
//
// Client instances are safe for concurrent use.
package device
