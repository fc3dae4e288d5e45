package signal

import (
	"fmt"
	"strings"
)

// Width is the number of bits of a bus.
type Width uint8

// MaxWidth is the widest bus supported.
const MaxWidth Width = 64

// Valid reports whether w is in [1, MaxWidth].
func (w Width) Valid() bool {
	return w >= 1 && w <= MaxWidth
}

// Signal is an immutable bus of Values. Bit 0 is the least significant bit.
//
// The zero Signal has width 0 and is not a valid bus value; it is used as
// "no value" by callers that need one.
type Signal struct {
	bits string // one Value per byte, LSB first
}

// Fill returns a signal of width w with every bit set to v.
// It panics if w is not a valid width.
func Fill(w Width, v Value) Signal {
	if !w.Valid() {
		panic(fmt.Sprintf("signal: invalid width %d", w))
	}
	return Signal{bits: strings.Repeat(string([]byte{byte(v)}), int(w))}
}

// Undefined returns an all-Unknown signal of width w.
func Undefined(w Width) Signal {
	return Fill(w, Unknown)
}

// Bit returns a one-bit signal.
func Bit(v Value) Signal {
	return Signal{bits: string([]byte{byte(v)})}
}

// FromValues builds a signal from values given LSB first.
// It panics if the number of values is not a valid width.
func FromValues(vs ...Value) Signal {
	if !Width(len(vs)).Valid() || len(vs) > int(MaxWidth) {
		panic(fmt.Sprintf("signal: invalid width %d", len(vs)))
	}
	b := make([]byte, len(vs))
	for i, v := range vs {
		b[i] = byte(v)
	}
	return Signal{bits: string(b)}
}

// Parse parses a signal written MSB first, e.g. "10x1". Underscores are
// ignored so that wide buses can be grouped ("1010_0000").
func Parse(s string) (Signal, error) {
	s = strings.ReplaceAll(s, "_", "")
	n := len(s)
	if n == 0 || n > int(MaxWidth) {
		return Signal{}, fmt.Errorf("invalid signal %q: width must be between 1 and %d", s, MaxWidth)
	}
	b := make([]byte, n)
	for i, r := range s {
		v, err := ParseValue(r)
		if err != nil {
			return Signal{}, fmt.Errorf("invalid signal %q: %w", s, err)
		}
		b[n-1-i] = byte(v)
	}
	return Signal{bits: string(b)}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(s string) Signal {
	sig, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return sig
}

// Width returns the bus width of s.
func (s Signal) Width() Width {
	return Width(len(s.bits))
}

// IsZero reports whether s is the zero Signal (width 0).
func (s Signal) IsZero() bool {
	return len(s.bits) == 0
}

// At returns bit i.
func (s Signal) At(i int) Value {
	return Value(s.bits[i])
}

// Values returns the bits of s, LSB first.
func (s Signal) Values() []Value {
	vs := make([]Value, len(s.bits))
	for i := range vs {
		vs[i] = Value(s.bits[i])
	}
	return vs
}

// With returns a copy of s with bit i set to v.
func (s Signal) With(i int, v Value) Signal {
	b := []byte(s.bits)
	b[i] = byte(v)
	return Signal{bits: string(b)}
}

// Equal reports whether s and o have the same width and bits.
func (s Signal) Equal(o Signal) bool {
	return s.bits == o.bits
}

// IsFullyDefined reports whether every bit is Low or High.
func (s Signal) IsFullyDefined() bool {
	if len(s.bits) == 0 {
		return false
	}
	for i := 0; i < len(s.bits); i++ {
		if !Value(s.bits[i]).IsDefined() {
			return false
		}
	}
	return true
}

// HasError reports whether any bit is Error.
func (s Signal) HasError() bool {
	return strings.IndexByte(s.bits, byte(Error)) >= 0
}

// String returns s MSB first, e.g. "10x1".
func (s Signal) String() string {
	var b strings.Builder
	b.Grow(len(s.bits))
	for i := len(s.bits) - 1; i >= 0; i-- {
		b.WriteString(Value(s.bits[i]).String())
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signal) UnmarshalText(text []byte) error {
	sig, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = sig
	return nil
}

// Map applies f to every bit of s.
func Map(s Signal, f func(Value) Value) Signal {
	b := make([]byte, len(s.bits))
	for i := range b {
		b[i] = byte(f(Value(s.bits[i])))
	}
	return Signal{bits: string(b)}
}

// Zip combines a and b bit by bit with f. It panics if the widths differ.
func Zip(a, b Signal, f func(x, y Value) Value) Signal {
	if len(a.bits) != len(b.bits) {
		panic(fmt.Sprintf("signal: width mismatch %d != %d", len(a.bits), len(b.bits)))
	}
	out := make([]byte, len(a.bits))
	for i := range out {
		out[i] = byte(f(Value(a.bits[i]), Value(b.bits[i])))
	}
	return Signal{bits: string(out)}
}

// Resolve computes the value of a net of width w from the contributions of
// its drivers. Contributions of another width are ignored; with no usable
// contribution the result is all Unknown.
func Resolve(w Width, drivers ...Signal) Signal {
	out := []byte(Undefined(w).bits)
	for _, d := range drivers {
		if d.Width() != w {
			continue
		}
		for i := range out {
			out[i] = byte(Combine(Value(out[i]), Value(d.bits[i])))
		}
	}
	return Signal{bits: string(out)}
}
