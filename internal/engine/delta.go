package engine

import "github.com/roach88/digisim/internal/netlist"

// deltaGuard counts how many times each net changed at the current
// timestamp.
//
// A zero-delay loop (an inverter feeding itself with no delay) would keep
// the engine at one timestamp forever; the event quota would eventually stop
// it, but the guard reports the offending net as soon as one net changes
// more than the limit.
type deltaGuard struct {
	limit   int
	changes map[netlist.NetID]int
}

func newDeltaGuard(limit int) *deltaGuard {
	return &deltaGuard{
		limit:   limit,
		changes: make(map[netlist.NetID]int),
	}
}

// Advance forgets the history of the previous timestamp.
func (g *deltaGuard) Advance() {
	clear(g.changes)
}

// Record counts one change of net and reports whether the limit is now
// exceeded. A limit of 0 or less disables the guard.
func (g *deltaGuard) Record(net netlist.NetID) bool {
	g.changes[net]++
	return g.limit > 0 && g.changes[net] > g.limit
}

// Count returns the changes of net at the current timestamp.
func (g *deltaGuard) Count(net netlist.NetID) int {
	return g.changes[net]
}
