package signal

// ToUint64 interprets s as an unsigned integer.
func (s Signal) ToUint64() (uint64, error) {
	if !s.IsFullyDefined() {
		return 0, &UndefinedValueError{Signal: s}
	}
	var n uint64
	for i := len(s.bits) - 1; i >= 0; i-- {
		n <<= 1
		if Value(s.bits[i]) == High {
			n |= 1
		}
	}
	return n, nil
}

// ToInt64 interprets s as a two's complement integer of width s.Width().
func (s Signal) ToInt64() (int64, error) {
	u, err := s.ToUint64()
	if err != nil {
		return 0, err
	}
	w := uint(len(s.bits))
	if w < 64 && u&(1<<(w-1)) != 0 {
		u |= ^uint64(0) << w
	}
	return int64(u), nil
}

// FromUint64 returns the w-bit signal holding n.
func FromUint64(w Width, n uint64) (Signal, error) {
	if !w.Valid() {
		return Signal{}, &RangeError{Width: w, Value: int64(n)}
	}
	if w < 64 && n>>w != 0 {
		return Signal{}, &RangeError{Width: w, Value: int64(n)}
	}
	b := make([]byte, w)
	for i := range b {
		if n&(1<<uint(i)) != 0 {
			b[i] = byte(High)
		} else {
			b[i] = byte(Low)
		}
	}
	return Signal{bits: string(b)}, nil
}

// FromInt64 returns the w-bit two's complement signal holding n. Values in
// [-2^(w-1), 2^w-1] are accepted, so both signed and unsigned readings of a
// bus round-trip; anything else is a *RangeError.
func FromInt64(w Width, n int64) (Signal, error) {
	if !w.Valid() {
		return Signal{}, &RangeError{Width: w, Value: n}
	}
	if w < 64 {
		lo := -(int64(1) << (w - 1))
		hi := int64(1)<<w - 1
		if n < lo || n > hi {
			return Signal{}, &RangeError{Width: w, Value: n}
		}
	}
	u := uint64(n)
	if w < 64 {
		u &= 1<<w - 1
	}
	return FromUint64(w, u)
}
