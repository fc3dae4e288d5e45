package signal

import "fmt"

// Value is a single logic level.
//
// The zero Value is Unknown: uninitialized pins and nets read as Unknown.
type Value uint8

const (
	// Unknown is the uninitialized or non-driving state.
	Unknown Value = iota
	// Low is logic 0.
	Low
	// High is logic 1.
	High
	// Error is the result of two drivers asserting different defined values.
	Error
)

// String returns the single character used for v in traces and files.
func (v Value) String() string {
	switch v {
	case Low:
		return "0"
	case High:
		return "1"
	case Unknown:
		return "x"
	case Error:
		return "E"
	default:
		return fmt.Sprintf("Value(%d)", uint8(v))
	}
}

// IsDefined reports whether v is Low or High.
func (v Value) IsDefined() bool {
	return v == Low || v == High
}

// FromBool returns High for true and Low for false.
func FromBool(b bool) Value {
	if b {
		return High
	}
	return Low
}

// ParseValue parses a single logic character.
// Accepted: 0, 1, x/X/u/U/z/Z (Unknown) and e/E (Error).
func ParseValue(r rune) (Value, error) {
	switch r {
	case '0':
		return Low, nil
	case '1':
		return High, nil
	case 'x', 'X', 'u', 'U', 'z', 'Z':
		return Unknown, nil
	case 'e', 'E':
		return Error, nil
	}
	return Unknown, fmt.Errorf("invalid logic value %q", r)
}

// Combine is the wired resolution of two driver contributions.
//
// Unknown is the identity, Error absorbs everything, equal values are kept
// and differing defined values produce Error. Combine is commutative and
// associative, so a net with any number of drivers folds over it.
func Combine(a, b Value) Value {
	switch {
	case a == Error || b == Error:
		return Error
	case a == Unknown:
		return b
	case b == Unknown:
		return a
	case a == b:
		return a
	default:
		return Error
	}
}

// Not inverts v. Unknown and Error are preserved.
func Not(v Value) Value {
	switch v {
	case Low:
		return High
	case High:
		return Low
	}
	return v
}

// And returns the logical AND of a and b. An Error input gives Error, a Low
// input forces Low, otherwise any Unknown input gives Unknown.
func And(a, b Value) Value {
	switch {
	case a == Error || b == Error:
		return Error
	case a == Low || b == Low:
		return Low
	case a == Unknown || b == Unknown:
		return Unknown
	}
	return High
}

// Or returns the logical OR of a and b. An Error input gives Error, a High
// input forces High, otherwise any Unknown input gives Unknown.
func Or(a, b Value) Value {
	switch {
	case a == Error || b == Error:
		return Error
	case a == High || b == High:
		return High
	case a == Unknown || b == Unknown:
		return Unknown
	}
	return Low
}

// Xor returns the exclusive OR of a and b. Both inputs must be defined for
// the result to be defined.
func Xor(a, b Value) Value {
	switch {
	case a == Error || b == Error:
		return Error
	case a == Unknown || b == Unknown:
		return Unknown
	}
	return FromBool(a != b)
}
