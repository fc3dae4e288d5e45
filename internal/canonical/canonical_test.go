package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeys(t *testing.T) {
	got, err := Marshal(map[string]any{"b": 1, "a": "x", "c": []any{true, int64(-2)}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,-2]}`, string(got))
}

func TestMarshal_UTF16Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before
	// U+FF5E in UTF-16 but after it in UTF-8.
	got, err := Marshal(map[string]any{"～": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"～\":1}", string(got))
}

func TestMarshal_Strings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"html is literal", "<a&b>", `"<a&b>"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"control characters", "a\nb\x01", `"a\nb\u0001"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"nfc", "e\u0301", "\"\u00e9\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshal_Rejects(t *testing.T) {
	for _, v := range []any{nil, 1.5, map[string]any{"a": nil}, struct{}{}} {
		_, err := Marshal(v)
		assert.Error(t, err, "%#v", v)
	}

	_, err := Marshal(map[string]any{"\u00e9": 1, "e\u0301": 2})
	assert.Error(t, err, "keys equal after normalization")
}

func TestMarshal_TypedCollections(t *testing.T) {
	got, err := Marshal(map[string]any{
		"nets": []string{"a", "b"},
		"vals": map[string]string{"y": "1"},
		"seq":  uint64(7),
		"net":  uint32(2),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"net":2,"nets":["a","b"],"seq":7,"vals":{"y":"1"}}`, string(got))
}

func TestHash_DomainSeparated(t *testing.T) {
	v := map[string]any{"name": "and2"}
	a, err := SpecHash(v)
	require.NoError(t, err)
	b, err := TraceDigest(v)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)

	again, _ := SpecHash(map[string]any{"name": "and2"})
	assert.Equal(t, a, again)

	_, err = SpecHash(1.0)
	assert.Error(t, err)
}
