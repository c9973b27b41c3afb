package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMap_KeepsOrder(t *testing.T) {
	text := `zeta: 1
alpha:
  second: b
  first: a
middle: [x, z]
`
	m, err := ParseMap(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "middle"}, m.Keys())
	alpha, ok := m.GetMap("alpha")
	require.True(t, ok)
	assert.Equal(t, []string{"second", "first"}, alpha.Keys())

	out, err := Dump(m)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1\nalpha:\n  second: b\n  first: a\nmiddle:\n  - x\n  - z\n", out)
}

func TestParseMap_Empty(t *testing.T) {
	for _, text := range []string{"", "\n", "# only a comment\n"} {
		m, err := ParseMap(text)
		require.NoError(t, err)
		assert.Equal(t, 0, m.Len())
	}
}

func TestParseMap_NotAMapping(t *testing.T) {
	_, err := ParseMap("- a\n- b\n")
	require.Error(t, err)

	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestParse_SyntaxError(t *testing.T) {
	text := "key: [unterminated\n"
	_, err := Parse(text)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, text, perr.Text)
	assert.Contains(t, err.Error(), "--- body ---")
}

func TestOctalModeRoundTrip(t *testing.T) {
	text := "secrets:\n  - source: key\n    mode: 0400\n"

	m, err := ParseMap(text)
	require.NoError(t, err)

	v, ok := Lookup(m, "secrets")
	require.True(t, ok)
	entry := v.([]any)[0].(*Map)
	mode, _ := entry.Get("mode")
	assert.Equal(t, Literal("0400"), mode)

	out, err := Dump(m)
	require.NoError(t, err)
	assert.Equal(t, text, out)
}

func TestParse_ScalarTypes(t *testing.T) {
	m, err := ParseMap("count: 3\nenabled: true\nratio: 0.5\nname: web\nempty: null\nzero: 0\n")
	require.NoError(t, err)

	tests := []struct {
		key  string
		want any
	}{
		{"count", 3},
		{"enabled", true},
		{"ratio", 0.5},
		{"name", "web"},
		{"empty", nil},
		{"zero", 0},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := m.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_MergeKey(t *testing.T) {
	text := `defaults: &defaults
  restart: always
  image: base
web:
  <<: *defaults
  image: nginx
`
	m, err := ParseMap(text)
	require.NoError(t, err)

	web, ok := m.GetMap("web")
	require.True(t, ok)
	assert.Equal(t, []string{"restart", "image"}, web.Keys())
	image, _ := web.GetString("image")
	assert.Equal(t, "nginx", image)
}

func TestParseMulti(t *testing.T) {
	text := `---
kind: Service
---
---
kind: Deployment
`
	docs, err := ParseMulti(text)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	kind, _ := docs[1].(*Map).GetString("kind")
	assert.Equal(t, "Deployment", kind)
}

func TestDumpMulti(t *testing.T) {
	out, err := DumpMulti([]any{
		MapOf("kind", "Service"),
		NewMap(),
		nil,
		MapOf("kind", "Deployment"),
	})
	require.NoError(t, err)
	assert.Equal(t, "---\nkind: Service\n---\nkind: Deployment\n", out)
}

func TestDump_QuotesAmbiguousStrings(t *testing.T) {
	out, err := Dump(MapOf("version", "3.8", "flag", "yes", "port", "80"))
	require.NoError(t, err)

	back, err := ParseMap(out)
	require.NoError(t, err)
	for _, key := range []string{"version", "flag", "port"} {
		_, ok := back.GetString(key)
		assert.True(t, ok, "key %s should stay a string", key)
	}
}

func TestDump_PlainMapsSorted(t *testing.T) {
	out, err := Dump(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, "a: 2\nb: 1\n", out)
}

func TestUnquoteModes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single quotes", "    mode: '0400'\n", "    mode: 0400\n"},
		{"double quotes", "    mode: \"0440\"\n", "    mode: 0440\n"},
		{"already bare", "    mode: 0400\n", "    mode: 0400\n"},
		{"no mode key", "image: nginx\n", "image: nginx\n"},
		{"non numeric untouched", "mode: 'host'\n", "mode: 'host'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnquoteModes(tt.input))
		})
	}
}

func TestMarshalJSON_Order(t *testing.T) {
	b, err := MapOf("z", 1, "a", MapOf("y", "x"), "l", []any{1, "two"}).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":{"y":"x"},"l":[1,"two"]}`, string(b))
}
