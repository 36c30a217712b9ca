package command

import (
	"fmt"
	"net/http"

	"github.com/gingus/katfod/internal/device"
)

// Message returns the terminal user-facing message for an outcome.
func Message(kind Kind, outcome device.Outcome) string {
	if kind == Dispense {
		return dispenseMessage(outcome)
	}
	return doorMessage(kind, outcome)
}

func dispenseMessage(outcome device.Outcome) string {
	switch outcome.Status {
	case device.StatusSuccess:
		return "Food dispensed!"
	case device.StatusUnreachable:
		return "Can't reach Feeder hardware... Check if hardware is active."
	}

	switch outcome.Code {
	case http.StatusTooManyRequests:
		return "Too many dispenses. Calm down!"
	case http.StatusNotFound:
		return "Wrong endpoint? Can't dispense."
	case http.StatusInternalServerError:
		return "Feeder error. Check Feeder hardware logs."
	default:
		return fmt.Sprintf("Unexpected response: %d", outcome.Code)
	}
}

func doorMessage(kind Kind, outcome device.Outcome) string {
	switch outcome.Status {
	case device.StatusSuccess:
		if kind == CloseDoor {
			return "Door closed!"
		}
		return "Door opened!"
	case device.StatusUnreachable:
		return "Feeder hardware unreachable. Check if hardware is active."
	default:
		return fmt.Sprintf("Error: %d", outcome.Code)
	}
}
