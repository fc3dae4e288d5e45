// Package netlist holds the connectivity of a circuit: nets, the component
// pins attached to them, and the per-driver contributions from which each
// net's value is resolved.
//
// The netlist never decides when to resolve; the engine calls Contribute and
// Resolve as events are applied.
package netlist

import (
	"slices"
	"strconv"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

// NetID identifies a net. Valid ids start at 1.
type NetID uint32

// String returns "n<id>".
func (id NetID) String() string {
	return "n" + strconv.FormatUint(uint64(id), 10)
}

// Endpoint is a pin of a component, or an external source when Component is
// component.External.
type Endpoint struct {
	Component component.ID
	Pin       string
}

func compareEndpoints(a, b Endpoint) int {
	switch {
	case a.Component < b.Component:
		return -1
	case a.Component > b.Component:
		return 1
	case a.Pin < b.Pin:
		return -1
	case a.Pin > b.Pin:
		return 1
	}
	return 0
}

type net struct {
	width     signal.Width
	drivers   []Endpoint
	listeners []Endpoint
	// contributions holds the last value applied for each driving endpoint,
	// including external sources that are not pins.
	contributions map[Endpoint]signal.Signal
	value         signal.Signal
}

// Netlist owns nets and the mapping from component pins to nets.
type Netlist struct {
	nets     []*net // index = NetID-1
	pins     map[component.ID]*component.Pins
	attached map[Endpoint]NetID
}

// New returns an empty netlist.
func New() *Netlist {
	return &Netlist{
		pins:     make(map[component.ID]*component.Pins),
		attached: make(map[Endpoint]NetID),
	}
}

// AddComponent makes the pins of component id known to the netlist so they
// can be connected.
func (nl *Netlist) AddComponent(id component.ID, pins *component.Pins) error {
	if _, dup := nl.pins[id]; dup {
		return &Error{Code: ErrCodeDuplicateComponent, Component: id}
	}
	nl.pins[id] = pins
	return nil
}

// CreateNet allocates a net of width w. Its value starts all Unknown.
func (nl *Netlist) CreateNet(w signal.Width) (NetID, error) {
	if !w.Valid() {
		return 0, &Error{Code: ErrCodeInvalidWidth, Got: w}
	}
	nl.nets = append(nl.nets, &net{
		width:         w,
		contributions: make(map[Endpoint]signal.Signal),
		value:         signal.Undefined(w),
	})
	return NetID(len(nl.nets)), nil
}

func (nl *Netlist) net(id NetID) (*net, error) {
	if id == 0 || int(id) > len(nl.nets) {
		return nil, &Error{Code: ErrCodeNetNotFound, Net: id}
	}
	return nl.nets[id-1], nil
}

// Connect attaches pin of component id to net.
func (nl *Netlist) Connect(id component.ID, pin string, netID NetID) error {
	pins, ok := nl.pins[id]
	if !ok {
		return &Error{Code: ErrCodeComponentNotFound, Component: id, Pin: pin}
	}
	p, ok := pins.Get(pin)
	if !ok {
		return &Error{Code: ErrCodePinNotFound, Component: id, Pin: pin}
	}
	n, err := nl.net(netID)
	if err != nil {
		return err
	}
	ep := Endpoint{Component: id, Pin: pin}
	if cur, ok := nl.attached[ep]; ok {
		return &Error{Code: ErrCodeAlreadyConnected, Component: id, Pin: pin, Net: cur}
	}
	if p.Width() != n.width {
		return &Error{Code: ErrCodeWidthMismatch, Component: id, Pin: pin, Net: netID, Want: n.width, Got: p.Width()}
	}

	nl.attached[ep] = netID
	if p.Direction().Drives() {
		n.drivers = insertSorted(n.drivers, ep)
	}
	if p.Direction().Listens() {
		n.listeners = insertSorted(n.listeners, ep)
	}
	return nil
}

// Disconnect detaches a pin. Disconnecting an unattached pin is a no-op.
// The pin's contribution is dropped but the net keeps its last resolved
// value until Resolve is called.
func (nl *Netlist) Disconnect(id component.ID, pin string) {
	ep := Endpoint{Component: id, Pin: pin}
	netID, ok := nl.attached[ep]
	if !ok {
		return
	}
	delete(nl.attached, ep)
	n := nl.nets[netID-1]
	n.drivers = remove(n.drivers, ep)
	n.listeners = remove(n.listeners, ep)
	delete(n.contributions, ep)
}

// NetOf returns the net a pin is attached to.
func (nl *Netlist) NetOf(id component.ID, pin string) (NetID, bool) {
	n, ok := nl.attached[Endpoint{Component: id, Pin: pin}]
	return n, ok
}

// DriversOf returns the driving endpoints of net, ordered by component id
// then pin name.
func (nl *Netlist) DriversOf(id NetID) []Endpoint {
	n, err := nl.net(id)
	if err != nil {
		return nil
	}
	return slices.Clone(n.drivers)
}

// ListenersOf returns the observing endpoints of net, ordered by component id
// then pin name.
func (nl *Netlist) ListenersOf(id NetID) []Endpoint {
	n, err := nl.net(id)
	if err != nil {
		return nil
	}
	return slices.Clone(n.listeners)
}

// Width returns the width of net, or 0 if it does not exist.
func (nl *Netlist) Width(id NetID) signal.Width {
	n, err := nl.net(id)
	if err != nil {
		return 0
	}
	return n.width
}

// Value returns the last resolved value of net.
func (nl *Netlist) Value(id NetID) (signal.Signal, error) {
	n, err := nl.net(id)
	if err != nil {
		return signal.Signal{}, err
	}
	return n.value, nil
}

// Nets returns every net id in creation order.
func (nl *Netlist) Nets() []NetID {
	ids := make([]NetID, len(nl.nets))
	for i := range ids {
		ids[i] = NetID(i + 1)
	}
	return ids
}

// Len returns the number of nets.
func (nl *Netlist) Len() int { return len(nl.nets) }

// Contribute records v as the value asserted by ep on net. The net value is
// not changed until Resolve. A component pin must currently be attached to
// net; an endpoint with no pin is an external contribution and is always
// accepted.
func (nl *Netlist) Contribute(id NetID, ep Endpoint, v signal.Signal) error {
	n, err := nl.net(id)
	if err != nil {
		return err
	}
	if ep.Pin != "" {
		if cur, ok := nl.attached[ep]; !ok || cur != id {
			return &Error{Code: ErrCodeNotAttached, Component: ep.Component, Pin: ep.Pin, Net: id}
		}
	}
	if v.Width() != n.width {
		return &Error{Code: ErrCodeWidthMismatch, Component: ep.Component, Pin: ep.Pin, Net: id, Want: n.width, Got: v.Width()}
	}
	n.contributions[ep] = v
	return nil
}

// Resolve recomputes the value of net from its contributions and reports
// whether it changed.
func (nl *Netlist) Resolve(id NetID) (signal.Signal, bool, error) {
	n, err := nl.net(id)
	if err != nil {
		return signal.Signal{}, false, err
	}
	// Combine is commutative and associative: map order does not matter.
	vals := make([]signal.Signal, 0, len(n.contributions))
	for _, v := range n.contributions {
		vals = append(vals, v)
	}
	v := signal.Resolve(n.width, vals...)
	changed := v != n.value
	n.value = v
	return v, changed, nil
}

// Reset drops every contribution and sets every net to Unknown.
func (nl *Netlist) Reset() {
	for _, n := range nl.nets {
		clear(n.contributions)
		n.value = signal.Undefined(n.width)
	}
}

func insertSorted(eps []Endpoint, ep Endpoint) []Endpoint {
	i, _ := slices.BinarySearchFunc(eps, ep, compareEndpoints)
	return slices.Insert(eps, i, ep)
}

func remove(eps []Endpoint, ep Endpoint) []Endpoint {
	i, found := slices.BinarySearchFunc(eps, ep, compareEndpoints)
	if !found {
		return eps
	}
	return slices.Delete(eps, i, i+1)
}
