package library

import (
	"errors"
	"math/bits"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

// Kind names of arithmetic components.
const (
	KindAdder   = "adder"
	KindDivider = "divider"
)

// ErrDivideByZero is reported by a Divider whose divisor is zero.
var ErrDivideByZero = errors.New("divide by zero")

func mask(w signal.Width) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return 1<<w - 1
}

// Adder is an unsigned w-bit adder: sum = a + b + cin, cout is the carry
// out of the top bit.
type Adder struct {
	*component.Base
	a, b, cin, sum, cout *component.Pin
}

// NewAdder returns an adder of width w.
func NewAdder(label string, w signal.Width, delay signal.Delay) (*Adder, error) {
	b, err := component.NewBase(KindAdder, label, delay,
		component.In(pA, w), component.In(pB, w), component.In(pCin, 1),
		component.Out(pSum, w), component.Out(pCout, 1))
	if err != nil {
		return nil, err
	}
	p := b.Pins()
	return &Adder{
		Base: b,
		a:    p.Must(pA), b: p.Must(pB), cin: p.Must(pCin),
		sum: p.Must(pSum), cout: p.Must(pCout),
	}, nil
}

// Update computes sum and carry. Any undefined operand makes both outputs
// undefined, except an Unknown carry in which counts as 0 so that the pin
// may be left unconnected.
func (c *Adder) Update(signal.Time) component.UpdateResult {
	w := c.a.Width()
	a, b := c.a.Value(), c.b.Value()
	cin := c.cin.Value()
	if cin.At(0) == signal.Unknown {
		cin = signal.Bit(signal.Low)
	}

	x, errA := a.ToUint64()
	y, errB := b.ToUint64()
	ci, errC := cin.ToUint64()
	if errA != nil || errB != nil || errC != nil {
		return component.Merge(
			component.Set(c.sum, undefinedLike(w, a, b, cin)),
			component.Set(c.cout, undefinedLike(1, a, b, cin)),
		)
	}

	var sum, carry uint64
	if w == 64 {
		sum, carry = bits.Add64(x, y, ci)
	} else {
		total := x + y + ci
		sum, carry = total&mask(w), total>>w
	}
	s, _ := signal.FromUint64(w, sum)
	co, _ := signal.FromUint64(1, carry)
	return component.Merge(component.Set(c.sum, s), component.Set(c.cout, co))
}

// Divider is an unsigned w-bit divider: q = a / b, r = a % b. A zero
// divisor fails the update and holds the previous outputs.
type Divider struct {
	*component.Base
	a, b, q, r *component.Pin
}

// NewDivider returns a divider of width w.
func NewDivider(label string, w signal.Width, delay signal.Delay) (*Divider, error) {
	b, err := component.NewBase(KindDivider, label, delay,
		component.In(pA, w), component.In(pB, w),
		component.Out(pQ, w), component.Out(pR, w))
	if err != nil {
		return nil, err
	}
	p := b.Pins()
	return &Divider{Base: b, a: p.Must(pA), b: p.Must(pB), q: p.Must(pQ), r: p.Must(pR)}, nil
}

// Update computes quotient and remainder.
func (d *Divider) Update(signal.Time) component.UpdateResult {
	w := d.a.Width()
	a, b := d.a.Value(), d.b.Value()
	x, errA := a.ToUint64()
	y, errB := b.ToUint64()
	if errA != nil || errB != nil {
		u := undefinedLike(w, a, b)
		return component.Merge(component.Set(d.q, u), component.Set(d.r, u))
	}
	if y == 0 {
		return component.Fail(ErrDivideByZero)
	}
	q, _ := signal.FromUint64(w, x/y)
	r, _ := signal.FromUint64(w, x%y)
	return component.Merge(component.Set(d.q, q), component.Set(d.r, r))
}
