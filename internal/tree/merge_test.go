package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertTree compares two trees through their YAML form, which keeps key
// order visible in failure output.
func assertTree(t *testing.T, want, got any) {
	t.Helper()
	wantYAML, err := Dump(want)
	require.NoError(t, err)
	gotYAML, err := Dump(got)
	require.NoError(t, err)
	assert.Equal(t, wantYAML, gotYAML)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		base    any
		overlay any
		want    any
	}{
		{
			name:    "basic dict merge overlay wins",
			base:    MapOf("key1", "base1", "key2", "base2"),
			overlay: MapOf("key2", "overlay2", "key3", "overlay3"),
			want:    MapOf("key1", "base1", "key2", "overlay2", "key3", "overlay3"),
		},
		{
			name: "nested dict merge recursive",
			base: MapOf("outer", MapOf(
				"inner1", "base1",
				"inner2", "base2",
			)),
			overlay: MapOf("outer", MapOf(
				"inner2", "overlay2",
				"inner3", "overlay3",
			)),
			want: MapOf("outer", MapOf(
				"inner1", "base1",
				"inner2", "overlay2",
				"inner3", "overlay3",
			)),
		},
		{
			name:    "list replace",
			base:    MapOf("ports", []any{"80", "443"}),
			overlay: MapOf("ports", []any{"8080"}),
			want:    MapOf("ports", []any{"8080"}),
		},
		{
			name:    "networks list is replaced too",
			base:    MapOf("networks", []any{"net1", "net2"}),
			overlay: MapOf("networks", []any{"net3"}),
			want:    MapOf("networks", []any{"net3"}),
		},
		{
			name:    "map replaced by scalar",
			base:    MapOf("env", MapOf("A", "1")),
			overlay: MapOf("env", "none"),
			want:    MapOf("env", "none"),
		},
		{
			name:    "scalar replaced by map",
			base:    MapOf("env", "none"),
			overlay: MapOf("env", MapOf("A", "1")),
			want:    MapOf("env", MapOf("A", "1")),
		},
		{
			name:    "list replaced by map",
			base:    MapOf("env", []any{"A=1"}),
			overlay: MapOf("env", MapOf("A", "1")),
			want:    MapOf("env", MapOf("A", "1")),
		},
		{
			name:    "explicit null erases",
			base:    MapOf("a", MapOf("x", 1), "b", 2),
			overlay: MapOf("a", nil),
			want:    MapOf("a", nil, "b", 2),
		},
		{
			name:    "missing key has no effect",
			base:    MapOf("a", 1, "b", 2),
			overlay: MapOf("c", 3),
			want:    MapOf("a", 1, "b", 2, "c", 3),
		},
		{
			name:    "empty base",
			base:    NewMap(),
			overlay: MapOf("key", "value"),
			want:    MapOf("key", "value"),
		},
		{
			name:    "empty overlay",
			base:    MapOf("key", "value"),
			overlay: NewMap(),
			want:    MapOf("key", "value"),
		},
		{
			name:    "nil base map",
			base:    (*Map)(nil),
			overlay: MapOf("key", "value"),
			want:    MapOf("key", "value"),
		},
		{
			name:    "scalar roots overlay wins",
			base:    "a",
			overlay: 2,
			want:    2,
		},
		{
			name: "deeply nested merge",
			base: MapOf("level1", MapOf("level2", MapOf("level3", "base"))),
			overlay: MapOf("level1", MapOf("level2", MapOf(
				"level3", "overlay",
				"new", "added",
			))),
			want: MapOf("level1", MapOf("level2", MapOf(
				"level3", "overlay",
				"new", "added",
			))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.base, tt.overlay)
			assertTree(t, tt.want, got)
		})
	}
}

func TestMerge_KeyOrder(t *testing.T) {
	base := MapOf("image", "nginx", "ports", []any{"80"}, "restart", "always")
	overlay := MapOf("environment", MapOf("A", "1"), "image", "nginx:1.25")

	got := MergeMaps(base, overlay)

	assert.Equal(t, []string{"image", "ports", "restart", "environment"}, got.Keys())
	image, _ := got.GetString("image")
	assert.Equal(t, "nginx:1.25", image)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := MapOf("nested", MapOf("inner", "original"), "list", []any{"a"})
	overlay := MapOf("nested", MapOf("added", "x"), "list", []any{"b"})

	result := MergeMaps(base, overlay)

	nested, _ := result.GetMap("nested")
	nested.Set("inner", "modified")
	list, _ := result.GetList("list")
	list[0] = "modified"

	assertTree(t, MapOf("nested", MapOf("inner", "original"), "list", []any{"a"}), base)
	assertTree(t, MapOf("nested", MapOf("added", "x"), "list", []any{"b"}), overlay)
}

func TestMergeAll(t *testing.T) {
	got := MergeAll(
		MapOf("a", 1),
		MapOf("b", MapOf("x", 1)),
		MapOf("b", MapOf("y", 2), "a", 3),
	)
	assertTree(t, MapOf("a", 3, "b", MapOf("x", 1, "y", 2)), got)
}

func TestCopy(t *testing.T) {
	t.Run("no mutation of original map", func(t *testing.T) {
		original := MapOf("key", "value", "nested", MapOf("inner", "original"))

		copied := Copy(original).(*Map)
		copied.Set("key", "modified")
		nested, _ := copied.GetMap("nested")
		nested.Set("inner", "modified")

		assertTree(t, MapOf("key", "value", "nested", MapOf("inner", "original")), original)
	})

	t.Run("no mutation of original slice", func(t *testing.T) {
		original := []any{"a", MapOf("k", "v")}

		copied := Copy(original).([]any)
		copied[0] = "modified"
		copied[1].(*Map).Set("k", "modified")

		assert.Equal(t, "a", original[0])
		v, _ := original[1].(*Map).GetString("k")
		assert.Equal(t, "v", v)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Copy(nil))
	})
}
