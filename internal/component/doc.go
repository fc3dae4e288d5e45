// Package component defines the contract between the simulation engine and
// the digital elements it drives.
//
// A Component exposes a named set of Pins, recomputes its outputs in Update
// from the values currently seen on its inputs (plus any internal state), and
// reports how long that takes through PropagationDelay. Components never see
// each other: all communication goes through nets, which the engine resolves
// and writes back into input pins before calling Update.
//
// Concrete components embed *Base, which carries the identity assigned by
// the engine at registration and the pin set. Embedding Base is the only way
// to satisfy Component.
package component
