package engine

import "fmt"

// State is the engine's run state.
type State uint8

const (
	// Idle means no run is in progress: the queue drained, or events were
	// scheduled but neither Step nor Run has taken one yet.
	Idle State = iota
	// Running means the engine has started processing pending events.
	Running
	// Suspended means events are pending but processing was paused by
	// Stop, a time bound or context cancellation.
	Suspended
	// Oscillating means the last run did not settle. It is cleared by Reset.
	Oscillating
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Oscillating:
		return "oscillating"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	for st := Idle; st <= Oscillating; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown engine state %q", s)
}

// Stats counts the work done since the last Reset.
type Stats struct {
	Events       uint64 `json:"events"`        // events popped and applied
	Updates      uint64 `json:"updates"`       // component Update calls
	UpdateErrors uint64 `json:"update_errors"` // updates that returned an error
	Scheduled    uint64 `json:"scheduled"`     // events scheduled, stimulus included
}
