// Package library provides a small set of reference components built on the
// component contract: sources, gates, a multiplexer, arithmetic, a D
// flip-flop and a probe.
//
// Components are created by kind name through New, which is what circuit
// descriptions use, or directly through their constructors.
package library
