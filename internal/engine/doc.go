// Package engine implements the event-driven simulation kernel.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// One goroutine owns the engine. Components, nets and the event queue are
// only mutated from Step, Run, Prime and Reset, so a simulation is a pure
// function of the circuit and the scheduled stimulus.
//
// Step:
//  1. Pop the earliest event (time, then sequence number).
//  2. Record its value as the contribution of its origin on the target net.
//  3. Re-resolve the net.
//  4. If the resolved value changed, the listening pins observe it and their
//     components become dirty.
//  5. Dirty components update in ascending ComponentID order. Each output pin
//     whose driven value changed schedules one event at now+delay.
//
// Termination:
// Run is always bounded. An event quota catches unbounded activity, a
// per-timestamp delta guard catches zero-delay loops, and an optional time
// horizon stops clocked circuits. Both oscillation checks are terminal until
// Reset.
//
// Sequence numbers come from a logical counter, never the wall clock, so two
// runs with the same inputs produce the same event order.
package engine
