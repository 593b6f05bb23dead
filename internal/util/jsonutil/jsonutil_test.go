package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"prose around", "Here is the report:\n{\"a\":{\"b\":2}}\nThanks", `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripFences(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripFencesWithoutObject(t *testing.T) {
	_, err := StripFences("no json here")
	assert.ErrorIs(t, err, ErrNoObject)
	_, err = StripFences("} {")
	assert.ErrorIs(t, err, ErrNoObject)
}

func TestUnmarshalFlexUnwrapsQuotedDocument(t *testing.T) {
	var v struct{ A int }
	require.NoError(t, UnmarshalFlex([]byte(`"{\"A\":3}"`), &v))
	assert.Equal(t, 3, v.A)
	assert.Error(t, UnmarshalFlex([]byte(`{`), &v))
}

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"k": "a<b>&c"})
	require.NoError(t, err)
	assert.Equal(t, `{"k":"a<b>&c"}`, string(b))

	b, err = MarshalNoEscapeIndent(map[string]int{"k": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"k\": 1\n}", string(b))
}
