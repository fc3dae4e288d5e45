package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/engine"
	"github.com/roach88/digisim/internal/signal"
)

// Scenario is a testbench: a circuit, the stimulus applied to it and the
// behavior expected from the run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Circuit is the path of the CUE circuit file or directory.
	// Relative paths are resolved from the scenario file location.
	Circuit string `yaml:"circuit"`

	// RunID is an optional fixed run id used when the run is recorded.
	// If empty, recorded runs use "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Bound limits the run. Zero fields use the engine defaults.
	Bound Bound `yaml:"bound,omitempty"`

	// Stimulus lists the value changes to schedule before running.
	Stimulus []Stimulus `yaml:"stimulus"`

	// Expect checks how the run ended. If nil, the run must end without
	// error.
	Expect *Expect `yaml:"expect,omitempty"`

	// Assertions check the trace and final values.
	// Supported types: final_value, value_at, net_changes, change_order
	Assertions []Assertion `yaml:"assertions"`
}

// Bound mirrors engine.Bound.
type Bound struct {
	MaxEvents uint64 `yaml:"max_events,omitempty"`
	MaxTime   uint64 `yaml:"max_time,omitempty"`
}

// Engine returns the engine bound.
func (b Bound) Engine() engine.Bound {
	return engine.Bound{MaxEvents: b.MaxEvents, MaxTime: signal.Time(b.MaxTime)}
}

// Stimulus is one scheduled value change. Value is written MSB first;
// Origin optionally names the driving component.
type Stimulus struct {
	At     uint64 `yaml:"at"`
	Net    string `yaml:"net"`
	Value  string `yaml:"value"`
	Origin string `yaml:"origin,omitempty"`
}

// Circuit converts the step to a circuit stimulus.
func (s Stimulus) Circuit() circuit.Stimulus {
	return circuit.Stimulus{At: signal.Time(s.At), Net: s.Net, Value: s.Value, Origin: s.Origin}
}

// Expect describes how the run must end.
type Expect struct {
	// State is the final engine state: idle, suspended or oscillating.
	State string `yaml:"state,omitempty"`

	// Error is the expected error code (OSCILLATION, TIME_HORIZON), or
	// empty for a run without error.
	Error string `yaml:"error,omitempty"`

	// Events is the expected number of processed events.
	Events *uint64 `yaml:"events,omitempty"`

	// Time is the expected final simulation time.
	Time *uint64 `yaml:"time,omitempty"`
}

// Assertion checks the trace or the final net values.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_value": Net has Value when the run ends
	// - "value_at": Net has Value after every event up to time At
	// - "net_changes": Net changes Count times, through Values if given
	// - "change_order": Nets first change in the listed order
	Type string `yaml:"type"`

	// Net is the net name (used by final_value, value_at, net_changes).
	Net string `yaml:"net,omitempty"`

	// Value is the expected value, MSB first (used by final_value, value_at).
	Value string `yaml:"value,omitempty"`

	// At is the time to sample (used by value_at).
	At uint64 `yaml:"at,omitempty"`

	// Count is the expected number of changes (used by net_changes).
	Count *int `yaml:"count,omitempty"`

	// Values is the expected sequence of resolved values (used by net_changes).
	Values []string `yaml:"values,omitempty"`

	// Nets is the expected order of first changes (used by change_order).
	Nets []string `yaml:"nets,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalValue  = "final_value"
	AssertValueAt     = "value_at"
	AssertNetChanges  = "net_changes"
	AssertChangeOrder = "change_order"
)

// LoadScenario reads and parses a scenario YAML file. The circuit path is
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Circuit != "" && !filepath.IsAbs(scenario.Circuit) {
		scenario.Circuit = filepath.Join(filepath.Dir(path), scenario.Circuit)
	}
	if _, err := os.Stat(scenario.Circuit); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", &CircuitNotFoundError{
			Scenario:     scenario.Name,
			CircuitPath:  scenario.Circuit,
			ScenarioFile: path,
		})
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the file system. The
// circuit path is left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// StimulusFile is a stimulus list kept outside a scenario, as read by
// "digisim run --stimulus".
type StimulusFile struct {
	Stimulus []Stimulus `yaml:"stimulus"`
}

// LoadStimulus reads a stimulus file:
//
//	stimulus:
//	  - {at: 0, net: a, value: "1"}
//	  - {at: 5, net: a, value: "0"}
func LoadStimulus(path string) ([]circuit.Stimulus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stimulus file: %w", err)
	}

	var file StimulusFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateStimulus(file.Stimulus); err != nil {
		return nil, fmt.Errorf("invalid stimulus file: %w", err)
	}

	out := make([]circuit.Stimulus, len(file.Stimulus))
	for i, st := range file.Stimulus {
		out[i] = st.Circuit()
	}
	return out, nil
}

// CircuitNotFoundError is returned when a scenario's circuit path doesn't
// exist.
type CircuitNotFoundError struct {
	Scenario     string
	CircuitPath  string
	ScenarioFile string
}

// Error implements the error interface.
func (e *CircuitNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q (%s) references circuit %q which does not exist",
		e.Scenario, e.ScenarioFile, e.CircuitPath)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Circuit == "" {
		return fmt.Errorf("circuit is required")
	}

	if len(s.Stimulus) == 0 && len(s.Assertions) == 0 && s.Expect == nil {
		return fmt.Errorf("a scenario needs stimulus, expect or assertions")
	}

	if err := validateStimulus(s.Stimulus); err != nil {
		return err
	}

	if s.Expect != nil && s.Expect.State != "" {
		if _, err := engine.ParseState(s.Expect.State); err != nil {
			return fmt.Errorf("expect: %w", err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStimulus(stimulus []Stimulus) error {
	for i, st := range stimulus {
		if st.Net == "" {
			return fmt.Errorf("stimulus[%d]: net is required", i)
		}
		if _, err := signal.Parse(st.Value); err != nil {
			return fmt.Errorf("stimulus[%d]: %w", i, err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalValue, AssertValueAt:
		if a.Net == "" {
			return fmt.Errorf("assertions[%d]: net is required for %s", index, a.Type)
		}
		if _, err := signal.Parse(a.Value); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertNetChanges:
		if a.Net == "" {
			return fmt.Errorf("assertions[%d]: net is required for net_changes", index)
		}
		if a.Count == nil && len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: count or values is required for net_changes", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for net_changes", index)
		}
	case AssertChangeOrder:
		if len(a.Nets) < 2 {
			return fmt.Errorf("assertions[%d]: nets needs at least two entries for change_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
