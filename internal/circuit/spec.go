// Package circuit describes circuits by name and builds them into an engine.
//
// A Spec is the source-independent description produced by the compiler;
// Build registers its components, creates its nets and connects them, and
// returns a Circuit that maps names to engine ids and back.
package circuit

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/digisim/internal/canonical"
	"github.com/roach88/digisim/internal/library"
	"github.com/roach88/digisim/internal/signal"
)

// Spec describes a circuit. Nets and components keep their declaration
// order, which fixes net and component ids.
type Spec struct {
	Name       string          `json:"name"`
	Nets       []NetSpec       `json:"nets"`
	Components []ComponentSpec `json:"components"`
}

// NetSpec declares a named net.
type NetSpec struct {
	Name  string       `json:"name"`
	Width signal.Width `json:"width"`
}

// ComponentSpec declares a named component instance and its connections.
type ComponentSpec struct {
	Name   string        `json:"name"`
	Kind   string        `json:"kind"`
	Width  signal.Width  `json:"width,omitempty"`
	Inputs int           `json:"inputs,omitempty"`
	Select signal.Width  `json:"select,omitempty"`
	Delay  *signal.Delay `json:"delay,omitempty"`
	Value  string        `json:"value,omitempty"`

	// Pins maps pin names to net names.
	Pins map[string]string `json:"pins"`
}

// Params converts the declaration into library parameters.
func (c ComponentSpec) Params() library.Params {
	return library.Params{
		Label:  c.Name,
		Width:  c.Width,
		Inputs: c.Inputs,
		Select: c.Select,
		Delay:  c.Delay,
		Value:  c.Value,
	}
}

// PinNames returns the connected pin names, sorted.
func (c ComponentSpec) PinNames() []string {
	names := make([]string, 0, len(c.Pins))
	for p := range c.Pins {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// Net returns the declaration of the named net.
func (s *Spec) Net(name string) (NetSpec, bool) {
	for _, n := range s.Nets {
		if n.Name == name {
			return n, true
		}
	}
	return NetSpec{}, false
}

// Validate checks names and references without building anything. Pin
// names and widths are checked by Build, which knows each kind's pins.
func (s *Spec) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("circuit name is empty"))
	}

	nets := make(map[string]bool, len(s.Nets))
	for _, n := range s.Nets {
		switch {
		case n.Name == "":
			errs = append(errs, errors.New("net with empty name"))
		case nets[n.Name]:
			errs = append(errs, fmt.Errorf("net %q declared twice", n.Name))
		case !n.Width.Valid():
			errs = append(errs, fmt.Errorf("net %q: width %d must be between 1 and %d", n.Name, n.Width, signal.MaxWidth))
		}
		nets[n.Name] = true
	}

	comps := make(map[string]bool, len(s.Components))
	for _, c := range s.Components {
		if c.Name == "" {
			errs = append(errs, errors.New("component with empty name"))
		} else if comps[c.Name] {
			errs = append(errs, fmt.Errorf("component %q declared twice", c.Name))
		}
		comps[c.Name] = true

		if !library.IsKind(c.Kind) {
			errs = append(errs, fmt.Errorf("component %q: %w", c.Name, &library.UnknownKindError{Kind: c.Kind}))
		}
		for _, pin := range c.PinNames() {
			if net := c.Pins[pin]; !nets[net] {
				errs = append(errs, fmt.Errorf("component %q pin %q: unknown net %q", c.Name, pin, net))
			}
		}
	}
	return errors.Join(errs...)
}

// Canonical returns the description as a canonical JSON value.
func (s *Spec) Canonical() map[string]any {
	nets := make([]any, len(s.Nets))
	for i, n := range s.Nets {
		nets[i] = map[string]any{"name": n.Name, "width": int(n.Width)}
	}
	comps := make([]any, len(s.Components))
	for i, c := range s.Components {
		obj := map[string]any{
			"name": c.Name,
			"kind": c.Kind,
			"pins": c.Pins,
		}
		if c.Width != 0 {
			obj["width"] = int(c.Width)
		}
		if c.Inputs != 0 {
			obj["inputs"] = c.Inputs
		}
		if c.Select != 0 {
			obj["select"] = int(c.Select)
		}
		if c.Delay != nil {
			obj["delay"] = uint64(*c.Delay)
		}
		if c.Value != "" {
			obj["value"] = c.Value
		}
		if c.Pins == nil {
			obj["pins"] = map[string]string{}
		}
		comps[i] = obj
	}
	return map[string]any{"name": s.Name, "nets": nets, "components": comps}
}

// MarshalCanonical returns the canonical JSON encoding of the description.
func (s *Spec) MarshalCanonical() ([]byte, error) {
	return canonical.Marshal(s.Canonical())
}

// ParseSpecJSON decodes a description encoded by MarshalCanonical and
// validates it.
func ParseSpecJSON(data []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse circuit description: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Hash returns the content digest of the description.
func (s *Spec) Hash() (string, error) {
	return canonical.SpecHash(s.Canonical())
}

// String lists the description, one line per net and component.
func (s *Spec) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "circuit %s\n", s.Name)
	for _, n := range s.Nets {
		fmt.Fprintf(&b, "  net %s/%d\n", n.Name, n.Width)
	}
	for _, c := range s.Components {
		fmt.Fprintf(&b, "  %s %s", c.Kind, c.Name)
		for _, p := range c.PinNames() {
			fmt.Fprintf(&b, " %s=%s", p, c.Pins[p])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
