package component

import (
	"fmt"
	"strconv"

	"github.com/roach88/digisim/internal/signal"
)

// ID identifies a component within an engine. IDs are assigned at
// registration, start at 1 and increase in registration order; the engine
// processes dirty components in ascending ID order.
type ID uint64

// External is the origin of events injected from outside the circuit
// (testbench stimulus, a user clicking an input).
const External ID = 0

// String returns "c<n>", or "external" for External.
func (id ID) String() string {
	if id == External {
		return "external"
	}
	return "c" + strconv.FormatUint(uint64(id), 10)
}

// Component is the contract every simulated element implements.
//
// Update recomputes the outputs from the current input pin values and
// internal state. It must not panic on well-formed input (connected pins
// always match their net width) and must not touch anything but its own
// pins and state. Computation failures are reported with Fail.
//
// Reset unconditionally sets every output to Unknown and clears internal
// state.
type Component interface {
	ID() ID
	Kind() string
	Label() string
	Pins() *Pins
	Update(now signal.Time) UpdateResult
	Reset()
	PropagationDelay() signal.Delay

	base() *Base // sealed: implementations embed *Base
}

// Stater is implemented by components exposing internal state for
// inspection (e.g. the stored bit of a flip-flop).
type Stater interface {
	State() any
}

// Injector is implemented by components that accept values from outside
// the simulation on some of their driving pins, such as an input a user
// toggles. Events from any other origin never override a component's pins.
type Injector interface {
	// Injectable reports whether pin accepts outside values.
	Injectable(pin string) bool
	// Inject makes pin assert v. It is only called for pins Injectable
	// accepts, with a value of the pin's width.
	Inject(pin string, v signal.Signal)
}

// Base carries the identity, pins and delay shared by every component.
type Base struct {
	id    ID
	kind  string
	label string
	pins  *Pins
	delay signal.Delay
}

// NewBase builds a Base for a component of the given kind.
func NewBase(kind, label string, delay signal.Delay, specs ...PinSpec) (*Base, error) {
	pins, err := NewPins(specs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return &Base{kind: kind, label: label, pins: pins, delay: delay}, nil
}

func (b *Base) base() *Base { return b }

// ID returns the id assigned at registration, or External if the component
// is not registered yet.
func (b *Base) ID() ID { return b.id }

// Kind returns the component type name, e.g. "and".
func (b *Base) Kind() string { return b.kind }

// Label returns the user-facing instance name. Defaults to kind#id.
func (b *Base) Label() string {
	if b.label != "" {
		return b.label
	}
	return b.kind + "#" + strconv.FormatUint(uint64(b.id), 10)
}

// Pins returns the pin set.
func (b *Base) Pins() *Pins { return b.pins }

// PropagationDelay returns the fixed delay given at construction.
func (b *Base) PropagationDelay() signal.Delay { return b.delay }

// Reset sets every pin to Unknown. Components with internal state override
// it and call Base.Reset.
func (b *Base) Reset() { b.pins.Reset() }

// Bind assigns id to c. It fails if c is already registered.
func Bind(c Component, id ID) error {
	b := c.base()
	if b == nil {
		return fmt.Errorf("component %T has no base", c)
	}
	if b.id != External {
		return fmt.Errorf("component %s already registered as %s", b.Label(), b.id)
	}
	if id == External {
		return fmt.Errorf("cannot bind component to the external id")
	}
	b.id = id
	return nil
}

// Status is the outcome class of an Update call.
type Status uint8

const (
	// StatusNoChange means no output changed.
	StatusNoChange Status = iota
	// StatusChanged means at least one output may have changed.
	StatusChanged
	// StatusError means the computation failed; outputs are held.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusNoChange:
		return "no_change"
	case StatusChanged:
		return "changed"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// UpdateResult is returned by Component.Update.
type UpdateResult struct {
	Status Status
	Err    error
}

var (
	// NoChange reports that no output changed.
	NoChange = UpdateResult{Status: StatusNoChange}
	// Changed reports that outputs may have changed.
	Changed = UpdateResult{Status: StatusChanged}
)

// Fail reports a computation failure.
func Fail(err error) UpdateResult {
	return UpdateResult{Status: StatusError, Err: err}
}

// Failf is Fail with fmt.Errorf formatting.
func Failf(format string, args ...any) UpdateResult {
	return Fail(fmt.Errorf(format, args...))
}

// Set drives v on p and returns Changed if the driven value differs from the
// previous one, NoChange otherwise. Helper for Update implementations.
func Set(p *Pin, v signal.Signal) UpdateResult {
	if p.Driven() == v {
		return NoChange
	}
	p.Drive(v)
	return Changed
}

// Merge folds results: any error wins, then any change.
func Merge(results ...UpdateResult) UpdateResult {
	out := NoChange
	for _, r := range results {
		switch r.Status {
		case StatusError:
			return r
		case StatusChanged:
			out = Changed
		}
	}
	return out
}
