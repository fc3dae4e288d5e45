package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/signal"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string               // Assertion type for categorization
	Expected string               // Human-readable expected outcome
	Actual   string               // Human-readable actual outcome
	Changes  []circuit.TraceEvent // Changes of the net involved, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)

	if len(e.Changes) > 0 {
		fmt.Fprintf(&buf, "\n  Changes:")
		for _, ev := range e.Changes {
			fmt.Fprintf(&buf, "\n    @%d #%d %s <- %s (%s)", ev.Time, ev.Seq, ev.Net, ev.Resolved, ev.Origin)
		}
	}

	return buf.String()
}

// sameValue compares an expected value as written in a scenario with a
// resolved value from the trace.
func sameValue(expected, actual string) bool {
	want, err := signal.Parse(expected)
	if err != nil {
		return false
	}
	return want.String() == actual
}

// assertFinalValue checks the value of a net when the run ended.
func assertFinalValue(trace circuit.Trace, a Assertion) error {
	actual, ok := trace.Final[a.Net]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("net %s = %s", a.Net, a.Value),
			Actual:   "no such net",
		}
	}
	if !sameValue(a.Value, actual) {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("net %s = %s", a.Net, a.Value),
			Actual:   fmt.Sprintf("net %s = %s", a.Net, actual),
			Changes:  trace.Changes(a.Net),
		}
	}
	return nil
}

// assertValueAt checks the value of a net after every event up to a time.
// A net that had not changed by then is still all unknown.
func assertValueAt(trace circuit.Trace, a Assertion) error {
	actual, ok := trace.ValueAt(a.Net, signal.Time(a.At))
	if !ok {
		final, known := trace.Final[a.Net]
		if !known {
			return &AssertionError{
				Type:     AssertValueAt,
				Expected: fmt.Sprintf("net %s = %s at %d", a.Net, a.Value, a.At),
				Actual:   "no such net",
			}
		}
		actual = signal.Undefined(signal.Width(len(final))).String()
	}
	if !sameValue(a.Value, actual) {
		return &AssertionError{
			Type:     AssertValueAt,
			Expected: fmt.Sprintf("net %s = %s at %d", a.Net, a.Value, a.At),
			Actual:   fmt.Sprintf("net %s = %s at %d", a.Net, actual, a.At),
			Changes:  trace.Changes(a.Net),
		}
	}
	return nil
}

// assertNetChanges checks how often a net changed and, if given, the
// sequence of values it went through.
func assertNetChanges(trace circuit.Trace, a Assertion) error {
	changes := trace.Changes(a.Net)

	if a.Count != nil && len(changes) != *a.Count {
		return &AssertionError{
			Type:     AssertNetChanges,
			Expected: fmt.Sprintf("%d changes of %s", *a.Count, a.Net),
			Actual:   fmt.Sprintf("%d changes", len(changes)),
			Changes:  changes,
		}
	}

	if len(a.Values) > 0 {
		actual := make([]string, len(changes))
		for i, ev := range changes {
			actual[i] = ev.Resolved
		}
		match := len(actual) == len(a.Values)
		for i := 0; match && i < len(actual); i++ {
			match = sameValue(a.Values[i], actual[i])
		}
		if !match {
			return &AssertionError{
				Type:     AssertNetChanges,
				Expected: fmt.Sprintf("%s goes through %v", a.Net, a.Values),
				Actual:   fmt.Sprintf("%s goes through %v", a.Net, actual),
				Changes:  changes,
			}
		}
	}

	return nil
}

// assertChangeOrder checks that the first change of each net happens in
// the listed order. Nets don't need to change consecutively.
func assertChangeOrder(trace circuit.Trace, a Assertion) error {
	// 1-indexed so that zero means "never changed".
	first := make(map[string]int)
	for i, ev := range trace.Events {
		if ev.Changed && first[ev.Net] == 0 {
			first[ev.Net] = i + 1
		}
	}

	for _, net := range a.Nets {
		if first[net] == 0 {
			return &AssertionError{
				Type:     AssertChangeOrder,
				Expected: fmt.Sprintf("all nets change: %v", a.Nets),
				Actual:   fmt.Sprintf("%s never changes", net),
			}
		}
	}

	for i := 1; i < len(a.Nets); i++ {
		prev, curr := a.Nets[i-1], a.Nets[i]
		if first[prev] >= first[curr] {
			return &AssertionError{
				Type:     AssertChangeOrder,
				Expected: fmt.Sprintf("first changes in order: %v", a.Nets),
				Actual: fmt.Sprintf("%s (event %d) should change before %s (event %d)",
					prev, first[prev], curr, first[curr]),
			}
		}
	}

	return nil
}

// EvaluateAssertions runs every assertion against the trace and returns
// the failure messages.
func EvaluateAssertions(trace circuit.Trace, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFinalValue:
			err = assertFinalValue(trace, assertion)
		case AssertValueAt:
			err = assertValueAt(trace, assertion)
		case AssertNetChanges:
			err = assertNetChanges(trace, assertion)
		case AssertChangeOrder:
			err = assertChangeOrder(trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
