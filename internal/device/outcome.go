package device

import (
	"fmt"
	"net/http"
	"time"
)

// Status is the tri-state result of one appliance request.
type Status int

const (
	// StatusSuccess means the appliance answered 200.
	StatusSuccess Status = iota
	// StatusDeviceError means a response arrived with a non-200 status.
	StatusDeviceError
	// StatusUnreachable means no response was obtained.
	StatusUnreachable
)

// String returns a human-readable name for the status
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDeviceError:
		return "device error"
	case StatusUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// Reason classifies why a request got no response.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonTimeout
	ReasonConnectionRefused
	ReasonDNS
	ReasonHostUnreachable
	ReasonNetworkUnreachable
	ReasonMalformedURL
	ReasonCanceled
	ReasonNetwork
)

// String returns a human-readable name for the reason
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTimeout:
		return "timeout"
	case ReasonConnectionRefused:
		return "connection refused"
	case ReasonDNS:
		return "DNS failure"
	case ReasonHostUnreachable:
		return "host unreachable"
	case ReasonNetworkUnreachable:
		return "network unreachable"
	case ReasonMalformedURL:
		return "malformed URL"
	case ReasonCanceled:
		return "canceled"
	case ReasonNetwork:
		return "network error"
	default:
		return fmt.Sprintf("Reason(%d)", r)
	}
}

// Outcome is the result of exactly one request.
type Outcome struct {
	Status Status

	// Code is the HTTP status for StatusSuccess and StatusDeviceError.
	Code int

	// Reason and Err describe a StatusUnreachable outcome.
	Reason Reason
	Err    error

	// Elapsed is the wall time of the round trip.
	Elapsed time.Duration
}

// NewSuccess returns a 200 outcome.
func NewSuccess() Outcome {
	return Outcome{Status: StatusSuccess, Code: http.StatusOK}
}

// NewDeviceError returns the outcome for a non-200 response.
func NewDeviceError(code int) Outcome {
	return Outcome{Status: StatusDeviceError, Code: code}
}

// NewUnreachable returns the outcome for a request that got no response.
func NewUnreachable(reason Reason, err error) Outcome {
	return Outcome{Status: StatusUnreachable, Reason: reason, Err: err}
}

// IsSuccess reports whether the appliance accepted the command.
func (o Outcome) IsSuccess() bool {
	return o.Status == StatusSuccess
}

// String returns a short description, e.g. "device error (HTTP 429)".
func (o Outcome) String() string {
	switch o.Status {
	case StatusSuccess:
		return "success"
	case StatusDeviceError:
		return fmt.Sprintf("device error (HTTP %d)", o.Code)
	case StatusUnreachable:
		return fmt.Sprintf("unreachable (%s)", o.Reason)
	default:
		return o.Status.String()
	}
}
