package command

import (
	"fmt"
	"strings"

	"github.com/gingus/katfod/internal/urls"
)

// Kind identifies a feeder command.
type Kind int

const (
	Dispense Kind = iota
	OpenDoor
	CloseDoor
)

// Kinds returns every command kind in display order.
func Kinds() []Kind {
	return []Kind{Dispense, OpenDoor, CloseDoor}
}

// String returns the CLI name of the kind.
func (k Kind) String() string {
	switch k {
	case Dispense:
		return "dispense"
	case OpenDoor:
		return "open-door"
	case CloseDoor:
		return "close-door"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Path returns the appliance endpoint path for the kind.
func (k Kind) Path() string {
	switch k {
	case Dispense:
		return urls.DispensePath
	case OpenDoor:
		return urls.OpenDoorPath
	case CloseDoor:
		return urls.CloseDoorPath
	default:
		return ""
	}
}

// PendingText returns the notice shown while the request is in flight.
func (k Kind) PendingText() string {
	switch k {
	case Dispense:
		return "Dispensing..."
	case OpenDoor:
		return "Opening door..."
	case CloseDoor:
		return "Closing door..."
	default:
		return "Working..."
	}
}

// ParseKind accepts the CLI name of a kind, case-insensitively, with either
// '-' or '_' as separator.
func ParseKind(s string) (Kind, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "dispense":
		return Dispense, nil
	case "open-door", "open":
		return OpenDoor, nil
	case "close-door", "close":
		return CloseDoor, nil
	default:
		return 0, fmt.Errorf("unknown command %q (expected dispense, open-door or close-door)", s)
	}
}

// State is the coordinator state of one kind.
type State int

const (
	StateIdle State = iota
	StatePending
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}
