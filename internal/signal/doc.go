// Package signal implements the four-valued logic model used by the simulator.
//
// A Value is one of Low, High, Unknown or Error. A Signal is an immutable,
// fixed-width bus of Values, bit 0 being the least significant bit. Signals
// are comparable with == and can be used as map keys.
//
// Net resolution combines the contributions of every driver of a net bit by
// bit (see Combine and Resolve):
//
//	no defined driver            → Unknown
//	one or more agreeing drivers → that value
//	disagreeing drivers          → Error
//
// Integer conversion (ToInt64, ToUint64) is only defined for fully defined
// signals; anything else fails with an *UndefinedValueError, never 0.
package signal
