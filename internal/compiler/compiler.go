// Package compiler turns CUE circuit descriptions into circuit.Spec values.
//
// A description is unified with the embedded #Circuit schema before it is
// read, so unknown fields, missing fields and out-of-range widths are
// reported by CUE with their source position.
package compiler

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/signal"
)

//go:embed schema.cue
var schemaSource string

// schema returns the #Circuit definition compiled in ctx.
func schema(ctx *cue.Context) (cue.Value, error) {
	s := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("embedded schema: %w", err)
	}
	return s.LookupPath(cue.ParsePath("#Circuit")), nil
}

// CompileCircuit checks v against the circuit schema and converts it.
// Uses the CUE Go API directly.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	spec, err := CompileCircuit(v)
func CompileCircuit(v cue.Value) (*circuit.Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	def, err := schema(v.Context())
	if err != nil {
		return nil, err
	}
	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &circuit.Spec{}
	if spec.Name, err = v.LookupPath(cue.ParsePath("name")).String(); err != nil {
		return nil, formatCUEError(err)
	}
	if spec.Nets, err = parseNets(v.LookupPath(cue.ParsePath("nets"))); err != nil {
		return nil, err
	}
	if spec.Components, err = parseComponents(v.LookupPath(cue.ParsePath("components"))); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseNets(v cue.Value) ([]circuit.NetSpec, error) {
	nets := []circuit.NetSpec{}
	if !v.Exists() {
		return nets, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		w, err := iter.Value().LookupPath(cue.ParsePath("width")).Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		nets = append(nets, circuit.NetSpec{Name: iter.Label(), Width: signal.Width(w)})
	}
	return nets, nil
}

func parseComponents(v cue.Value) ([]circuit.ComponentSpec, error) {
	comps := []circuit.ComponentSpec{}
	if !v.Exists() {
		return comps, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		c, err := parseComponent(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, nil
}

func parseComponent(name string, v cue.Value) (circuit.ComponentSpec, error) {
	c := circuit.ComponentSpec{Name: name, Pins: map[string]string{}}

	kind, err := v.LookupPath(cue.ParsePath("kind")).String()
	if err != nil {
		return c, formatCUEError(err)
	}
	c.Kind = kind

	optInt := func(field string) (int64, bool, error) {
		f := v.LookupPath(cue.ParsePath(field))
		if !f.Exists() {
			return 0, false, nil
		}
		n, err := f.Int64()
		if err != nil {
			return 0, false, formatCUEError(err)
		}
		return n, true, nil
	}

	if n, ok, err := optInt("width"); err != nil {
		return c, err
	} else if ok {
		c.Width = signal.Width(n)
	}
	if n, ok, err := optInt("inputs"); err != nil {
		return c, err
	} else if ok {
		c.Inputs = int(n)
	}
	if n, ok, err := optInt("select"); err != nil {
		return c, err
	} else if ok {
		c.Select = signal.Width(n)
	}
	if n, ok, err := optInt("delay"); err != nil {
		return c, err
	} else if ok {
		d := signal.Delay(n)
		c.Delay = &d
	}

	if f := v.LookupPath(cue.ParsePath("value")); f.Exists() {
		if c.Value, err = f.String(); err != nil {
			return c, formatCUEError(err)
		}
	}

	pins := v.LookupPath(cue.ParsePath("pins"))
	if pins.Exists() {
		iter, err := pins.Fields()
		if err != nil {
			return c, formatCUEError(err)
		}
		for iter.Next() {
			net, err := iter.Value().String()
			if err != nil {
				return c, formatCUEError(err)
			}
			c.Pins[iter.Label()] = net
		}
	}
	return c, nil
}

// CompileError is a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts the first error and its position from a CUE error.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "cue"
	path := first.Path()
	// Values checked against the schema report paths under #Circuit.
	if len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	if len(path) > 0 {
		field = strings.Join(path, ".")
	}
	// Msg leaves out the path, which Field already carries.
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: field, Message: msg, Pos: positions[0]}
	}
	return &CompileError{Field: field, Message: msg}
}
