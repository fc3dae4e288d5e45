package compiler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/engine"
	"github.com/roach88/digisim/internal/library"
	"github.com/roach88/digisim/internal/netlist"
)

// Validation error codes (E200-E299)
const (
	ErrCircuitNameEmpty = "E201" // circuit name is required
	ErrNoComponents     = "E202" // at least one component required
	ErrDuplicateName    = "E203" // net and component names share one namespace
	ErrUnknownKind      = "E204" // kind not in the component library
	ErrUnknownNet       = "E205" // pin connected to an undeclared net
	ErrPinNotFound      = "E206" // kind has no such pin
	ErrWidthMismatch    = "E207" // pin width differs from net width
	ErrBuildFailed      = "E208" // component parameters rejected
	ErrUnusedNet        = "E209" // net with no pin attached (warning)
)

// ValidationError is one problem found in a circuit description.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"` // source line, when known
	Warning bool   `json:"warning,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled description and returns every problem found.
// Structural problems are reported first; when there are none the circuit
// is built into a scratch engine so that pin names and widths are checked
// against the component library.
func Validate(spec *circuit.Spec) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if spec.Name == "" {
		add(ErrCircuitNameEmpty, "name", "circuit name is required")
	}
	if len(spec.Components) == 0 {
		add(ErrNoComponents, "components", "at least one component is required")
	}

	names := make(map[string]string)
	used := make(map[string]bool)
	for _, n := range spec.Nets {
		if prev, dup := names[n.Name]; dup {
			add(ErrDuplicateName, "nets."+n.Name, "name already used by %s", prev)
		}
		names[n.Name] = "net"
	}
	for _, c := range spec.Components {
		field := "components." + c.Name
		if prev, dup := names[c.Name]; dup {
			add(ErrDuplicateName, field, "name already used by %s", prev)
		}
		names[c.Name] = "component"

		if !library.IsKind(c.Kind) {
			add(ErrUnknownKind, field+".kind", "unknown kind %q", c.Kind)
		}
		for _, pin := range c.PinNames() {
			net := c.Pins[pin]
			used[net] = true
			if _, ok := spec.Net(net); !ok {
				add(ErrUnknownNet, field+".pins."+pin, "unknown net %q", net)
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := circuit.Build(spec, engine.New(engine.WithLogger(quiet))); err != nil {
		var ne *netlist.Error
		switch {
		case errors.As(err, &ne) && ne.Code == netlist.ErrCodePinNotFound:
			add(ErrPinNotFound, "components", "%v", err)
		case errors.As(err, &ne) && ne.Code == netlist.ErrCodeWidthMismatch:
			add(ErrWidthMismatch, "components", "%v", err)
		default:
			add(ErrBuildFailed, "components", "%v", err)
		}
	}

	for _, n := range spec.Nets {
		if !used[n.Name] {
			errs = append(errs, ValidationError{
				Field:   "nets." + n.Name,
				Message: "net is not connected to any pin",
				Code:    ErrUnusedNet,
				Warning: true,
			})
		}
	}
	return errs
}

// HasErrors reports whether errs contains anything but warnings.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if !e.Warning {
			return true
		}
	}
	return false
}
