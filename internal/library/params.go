package library

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

// common pin names
const (
	pA    = "a"
	pB    = "b"
	pIn   = "in"
	pOut  = "out"
	pSel  = "sel"
	pCin  = "cin"
	pSum  = "sum"
	pCout = "cout"
	pQ    = "q"
	pR    = "r"
	pQn   = "qn"
	pD    = "d"
	pClk  = "clk"
)

// DefaultDelay is the propagation delay of gates when none is given.
const DefaultDelay signal.Delay = 1

// Params configures a component created with New. Zero fields take the
// defaults of the kind.
type Params struct {
	Label string

	// Width is the data width. Default 1.
	Width signal.Width

	// Inputs is the number of inputs of n-input gates. Default 2.
	Inputs int

	// Select is the select width of a multiplexer. Default 1.
	Select signal.Width

	// Delay overrides the propagation delay when non-nil.
	Delay *signal.Delay

	// Value is the driven value of a constant, MSB first (e.g. "1010").
	Value string
}

func (p Params) width() signal.Width {
	if p.Width == 0 {
		return 1
	}
	return p.Width
}

func (p Params) delay(def signal.Delay) signal.Delay {
	if p.Delay == nil {
		return def
	}
	return *p.Delay
}

// Delay returns a pointer to d, for Params.Delay.
func Delay(d signal.Delay) *signal.Delay { return &d }

// UnknownKindError is returned by New for a kind with no constructor.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown component kind %q (known: %v)", e.Kind, Kinds())
}

// IsUnknownKind returns true if err is an UnknownKindError.
func IsUnknownKind(err error) bool {
	var uk *UnknownKindError
	return errors.As(err, &uk)
}

// Constructor builds a component from params.
type Constructor func(Params) (component.Component, error)

var registry = map[string]Constructor{
	KindInput:   func(p Params) (component.Component, error) { return NewInput(p.Label, p.width()) },
	KindConst:   newConstFromParams,
	KindBuffer:  func(p Params) (component.Component, error) { return NewBuffer(p.Label, p.width(), p.delay(DefaultDelay)) },
	KindNot:     func(p Params) (component.Component, error) { return NewNot(p.Label, p.width(), p.delay(signal.Delay(p.width()))) },
	KindAnd:     gateConstructor(KindAnd),
	KindOr:      gateConstructor(KindOr),
	KindNand:    gateConstructor(KindNand),
	KindNor:     gateConstructor(KindNor),
	KindXor:     gateConstructor(KindXor),
	KindXnor:    gateConstructor(KindXnor),
	KindMux:     newMuxFromParams,
	KindAdder:   func(p Params) (component.Component, error) { return NewAdder(p.Label, p.width(), p.delay(DefaultDelay)) },
	KindDivider: func(p Params) (component.Component, error) { return NewDivider(p.Label, p.width(), p.delay(DefaultDelay)) },
	KindDFF:     func(p Params) (component.Component, error) { return NewDFlipFlop(p.Label, p.width(), p.delay(DefaultDelay)) },
	KindProbe:   func(p Params) (component.Component, error) { return NewProbe(p.Label, p.width()) },
}

// New creates a component of the given kind.
func New(kind string, p Params) (component.Component, error) {
	ctor, ok := registry[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: kind}
	}
	c, err := ctor(p)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, p.Label, err)
	}
	return c, nil
}

// Kinds returns the registered kind names, sorted.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsKind reports whether kind has a constructor.
func IsKind(kind string) bool {
	_, ok := registry[kind]
	return ok
}
