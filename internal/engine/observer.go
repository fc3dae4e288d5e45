package engine

import (
	"github.com/roach88/digisim/internal/signal"
)

// Applied describes one processed event, passed to observers after the
// step that processed it completes.
type Applied struct {
	Event SimulatorEvent

	// Resolved is the net value after the event was applied.
	Resolved signal.Signal

	// Changed reports whether the resolved value differs from before.
	Changed bool

	// Updates lists the components updated in this step, in update order.
	Updates []UpdateRecord
}

// Observer is notified synchronously after each processed event. Observers
// must not schedule events or mutate components; they may call Stop.
type Observer interface {
	Observe(Applied)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Applied)

// Observe calls f(a).
func (f ObserverFunc) Observe(a Applied) { f(a) }
