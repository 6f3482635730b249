package bootstrap

import "fmt"

// State is the runtime lifecycle state. Transitions only move forward:
// NotStarted, Starting, Started, ShuttingDown, ShutDown.
type State int

const (
	NotStarted State = iota
	Starting
	Started
	ShuttingDown
	ShutDown
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Starting:
		return "Starting"
	case Started:
		return "Started"
	case ShuttingDown:
		return "ShuttingDown"
	case ShutDown:
		return "ShutDown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Active reports whether the runtime may serve bean lookups in this state.
func (s State) Active() bool {
	return s == Starting || s == Started
}
