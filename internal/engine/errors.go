package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/digisim/internal/netlist"
	"github.com/roach88/digisim/internal/signal"
)

// SimulationErrorCode categorizes simulation errors.
type SimulationErrorCode string

const (
	// ErrCodeOscillation indicates the circuit did not settle: the event
	// quota was reached or a net changed too often at one timestamp.
	ErrCodeOscillation SimulationErrorCode = "OSCILLATION"

	// ErrCodeTimeHorizon indicates events remain past the time bound.
	ErrCodeTimeHorizon SimulationErrorCode = "TIME_HORIZON"

	// ErrCodeScheduleInPast indicates a stimulus before the current time.
	ErrCodeScheduleInPast SimulationErrorCode = "SCHEDULE_IN_PAST"

	// ErrCodeInvalidEvent indicates a stimulus for an unknown net or of the
	// wrong width.
	ErrCodeInvalidEvent SimulationErrorCode = "INVALID_EVENT"
)

// SimulationError is returned by Run and ScheduleSignalChange.
//
// For oscillation it carries the diagnostic context: the simulated time,
// the number of events the run processed, the net that tripped the delta
// guard (0 when the event quota tripped) and the last component updates.
type SimulationError struct {
	Code    SimulationErrorCode
	Message string
	Time    signal.Time
	Events  uint64
	Net     netlist.NetID
	Updates []UpdateRecord

	Err error
}

// Error implements the error interface.
func (e *SimulationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (time=%d", e.Code, e.Message, e.Time)
	if e.Events > 0 {
		fmt.Fprintf(&b, ", events=%d", e.Events)
	}
	if e.Net != 0 {
		fmt.Fprintf(&b, ", net=%s", e.Net)
	}
	b.WriteString(")")
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *SimulationError) Unwrap() error { return e.Err }

func hasCode(err error, code SimulationErrorCode) bool {
	var se *SimulationError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsOscillation returns true if err reports a circuit that did not settle.
// Matches both SimulationError with ErrCodeOscillation and a bare
// EventsExceededError.
func IsOscillation(err error) bool {
	if hasCode(err, ErrCodeOscillation) {
		return true
	}
	return IsEventsExceededError(err)
}

// IsTimeHorizon returns true if the run stopped at its time bound.
func IsTimeHorizon(err error) bool { return hasCode(err, ErrCodeTimeHorizon) }

// IsScheduleInPast returns true if a stimulus was scheduled before now.
func IsScheduleInPast(err error) bool { return hasCode(err, ErrCodeScheduleInPast) }

// IsInvalidEvent returns true if a stimulus was rejected for its target or
// width.
func IsInvalidEvent(err error) bool { return hasCode(err, ErrCodeInvalidEvent) }

func newQuotaOscillation(now signal.Time, cause *EventsExceededError, updates []UpdateRecord) *SimulationError {
	return &SimulationError{
		Code:    ErrCodeOscillation,
		Message: fmt.Sprintf("circuit did not settle within %d events", cause.Limit),
		Time:    now,
		Events:  cause.Events,
		Updates: updates,
		Err:     cause,
	}
}

func newDeltaOscillation(now signal.Time, events uint64, net netlist.NetID, limit int, updates []UpdateRecord) *SimulationError {
	return &SimulationError{
		Code:    ErrCodeOscillation,
		Message: fmt.Sprintf("net %s changed more than %d times at one timestamp", net, limit),
		Time:    now,
		Events:  events,
		Net:     net,
		Updates: updates,
	}
}
