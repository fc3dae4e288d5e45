package engine

import (
	"errors"
	"fmt"
)

// eventQuota counts the events processed by one Run and enforces the
// limit.
//
// The quota catches activity that never settles but spreads over time (a
// ring oscillator); the delta guard catches loops that never leave one
// timestamp.
type eventQuota struct {
	max     uint64
	current uint64
}

func newEventQuota(max uint64) *eventQuota {
	return &eventQuota{max: max}
}

// Check counts one event and fails once the limit is passed.
func (q *eventQuota) Check() error {
	q.current++
	if q.current > q.max {
		return &EventsExceededError{Events: q.current - 1, Limit: q.max}
	}
	return nil
}

// Current returns the number of events counted.
func (q *eventQuota) Current() uint64 {
	return q.current
}

// EventsExceededError is wrapped by the SimulationError returned when a Run
// reaches its event quota with work still pending.
type EventsExceededError struct {
	Events uint64 // events processed by the run
	Limit  uint64
}

// Error implements the error interface.
func (e *EventsExceededError) Error() string {
	return fmt.Sprintf("run exceeded event quota: %d events processed, limit %d", e.Events, e.Limit)
}

// IsEventsExceededError returns true if err is an EventsExceededError.
func IsEventsExceededError(err error) bool {
	var ee *EventsExceededError
	return errors.As(err, &ee)
}
