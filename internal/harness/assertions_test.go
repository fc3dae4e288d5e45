package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/circuit"
)

func intPtr(n int) *int { return &n }

// sampleTrace: a rises at 0, b rises at 0, y rises at 2 and falls at 5.
func sampleTrace() circuit.Trace {
	return circuit.Trace{
		Circuit: "sample",
		Events: []circuit.TraceEvent{
			{Seq: 1, Time: 0, Net: "a", Value: "1", Origin: "in_a", Resolved: "1", Changed: true},
			{Seq: 2, Time: 0, Net: "b", Value: "1", Origin: "in_b", Resolved: "1", Changed: true},
			{Seq: 3, Time: 2, Net: "y", Value: "1", Origin: "g", Resolved: "1", Changed: true},
			{Seq: 4, Time: 3, Net: "y", Value: "1", Origin: "g", Resolved: "1", Changed: false},
			{Seq: 5, Time: 5, Net: "y", Value: "0", Origin: "g", Resolved: "0", Changed: true},
		},
		Final: map[string]string{"a": "1", "b": "1", "y": "0", "bus": "xxxx"},
		State: "idle",
		Time:  5,
	}
}

func TestAssertFinalValue(t *testing.T) {
	tr := sampleTrace()

	assert.NoError(t, assertFinalValue(tr, Assertion{Type: AssertFinalValue, Net: "y", Value: "0"}))
	assert.NoError(t, assertFinalValue(tr, Assertion{Type: AssertFinalValue, Net: "bus", Value: "xx_xx"}),
		"values are compared after parsing")

	err := assertFinalValue(tr, Assertion{Type: AssertFinalValue, Net: "y", Value: "1"})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "net y = 0", ae.Actual)
	assert.Len(t, ae.Changes, 2)
	assert.Contains(t, err.Error(), "@5 #5 y <- 0 (g)")

	err = assertFinalValue(tr, Assertion{Type: AssertFinalValue, Net: "nope", Value: "1"})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "no such net", ae.Actual)
}

func TestAssertValueAt(t *testing.T) {
	tr := sampleTrace()

	tests := []struct {
		net   string
		at    uint64
		value string
		ok    bool
	}{
		{"y", 0, "x", true},
		{"y", 1, "x", true},
		{"y", 2, "1", true},
		{"y", 4, "1", true},
		{"y", 5, "0", true},
		{"y", 100, "0", true},
		{"y", 4, "0", false},
		{"bus", 3, "xxxx", true},
		{"nope", 3, "1", false},
	}
	for _, tt := range tests {
		err := assertValueAt(tr, Assertion{Type: AssertValueAt, Net: tt.net, At: tt.at, Value: tt.value})
		if tt.ok {
			assert.NoError(t, err, "%s at %d", tt.net, tt.at)
		} else {
			assert.Error(t, err, "%s at %d", tt.net, tt.at)
		}
	}
}

func TestAssertNetChanges(t *testing.T) {
	tr := sampleTrace()

	assert.NoError(t, assertNetChanges(tr, Assertion{Net: "y", Count: intPtr(2)}))
	assert.NoError(t, assertNetChanges(tr, Assertion{Net: "y", Values: []string{"1", "0"}}))
	assert.NoError(t, assertNetChanges(tr, Assertion{Net: "bus", Count: intPtr(0)}))

	err := assertNetChanges(tr, Assertion{Net: "y", Count: intPtr(3)})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "2 changes", ae.Actual)

	err = assertNetChanges(tr, Assertion{Net: "y", Values: []string{"0", "1"}})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "y goes through [1 0]", ae.Actual)

	assert.Error(t, assertNetChanges(tr, Assertion{Net: "y", Values: []string{"1"}}))
}

func TestAssertChangeOrder(t *testing.T) {
	tr := sampleTrace()

	assert.NoError(t, assertChangeOrder(tr, Assertion{Nets: []string{"a", "b", "y"}}))
	assert.NoError(t, assertChangeOrder(tr, Assertion{Nets: []string{"a", "y"}}), "gaps are allowed")

	err := assertChangeOrder(tr, Assertion{Nets: []string{"y", "a"}})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Actual, "y (event 3) should change before a (event 1)")

	err = assertChangeOrder(tr, Assertion{Nets: []string{"a", "bus"}})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "bus never changes", ae.Actual)
}

func TestEvaluateAssertions(t *testing.T) {
	tr := sampleTrace()

	errs := EvaluateAssertions(tr, []Assertion{
		{Type: AssertFinalValue, Net: "y", Value: "0"},
		{Type: AssertFinalValue, Net: "a", Value: "0"},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Assertion failed: final_value")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)

	assert.Empty(t, EvaluateAssertions(tr, nil))
}
