package profile

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/rigger/internal/tree"
)

func TestComponents_Order(t *testing.T) {
	p, err := tree.ParseMap(`components:
  web:
    instances: 2
  db:
  cron: { template: worker }
`)
	require.NoError(t, err)

	specs := Components(p)
	require.Len(t, specs, 3)
	assert.Equal(t, "web", specs[0].Key)
	assert.Equal(t, "db", specs[1].Key)
	assert.Equal(t, 0, specs[1].Data.Len(), "null component gets empty data")
	assert.Equal(t, "worker", specs[2].Template())
	assert.Equal(t, "cron", specs[2].Name())
}

func TestComponents_NoComponents(t *testing.T) {
	assert.Empty(t, Components(tree.NewMap()))
}

func TestComponentSpec_NameAndTemplate(t *testing.T) {
	spec := ComponentSpec{Key: "web", Data: tree.MapOf("name", "frontend", "template", "nginx")}
	assert.Equal(t, "frontend", spec.Name())
	assert.Equal(t, "nginx", spec.Template())

	plain := ComponentSpec{Key: "web", Data: tree.NewMap()}
	assert.Equal(t, "web", plain.Name())
	assert.Equal(t, "web", plain.Template())
}

func TestComponentSpec_Instances(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"absent", nil, 1},
		{"int", 3, 3},
		{"float", 2.0, 2},
		{"numeric string", "4", 4},
		{"non numeric string", "many", 1},
		{"zero", 0, 1},
		{"negative", -2, 1},
		{"map", tree.NewMap(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tree.NewMap()
			if tt.value != nil {
				data.Set("instances", tt.value)
			}
			spec := ComponentSpec{Key: "web", Data: data}
			assert.Equal(t, tt.want, spec.Instances())
		})
	}
}

func TestInstanceSuffix(t *testing.T) {
	assert.Equal(t, "", InstanceSuffix(1))
	assert.Equal(t, "2", InstanceSuffix(2))
	assert.Equal(t, "10", InstanceSuffix(10))
}

func TestComponentSpec_Accessors(t *testing.T) {
	spec := ComponentSpec{Key: "web", Data: tree.MapOf(
		"forInstance2", tree.MapOf("port", 8081),
		"expose", tree.MapOf("host", "web.local"),
		"replicas", 3,
		"mergeIntoComponentPod", "app",
	)}

	override, ok := spec.ForInstance(2)
	require.True(t, ok)
	port, _ := override.Get("port")
	assert.Equal(t, 8081, port)

	_, ok = spec.ForInstance(3)
	assert.False(t, ok)

	expose, ok := spec.Expose()
	require.True(t, ok)
	host, _ := expose.GetString("host")
	assert.Equal(t, "web.local", host)

	replicas, ok := spec.Replicas()
	require.True(t, ok)
	assert.Equal(t, 3, replicas)

	target, ok := spec.MergeIntoComponentPod()
	require.True(t, ok)
	assert.Equal(t, "app", target)
}

func TestLookup(t *testing.T) {
	p := tree.MapOf("components", tree.MapOf("web", tree.MapOf("replicas", 2), "db", nil))

	spec, ok := Lookup(p, "web")
	require.True(t, ok)
	assert.Equal(t, "web", spec.Key)

	_, ok = Lookup(p, "db")
	assert.False(t, ok)
	_, ok = Lookup(p, "missing")
	assert.False(t, ok)
}

func TestLoadSettings(t *testing.T) {
	t.Run("directory with settings", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, SettingsFile, `outputProcessor:
  name: kube-kustomize
  options:
    projectName: shop
addedFiles:
  - template: deploy.sh
    destinationFile: deploy.sh
    vars:
      region: eu
  - template: images
    destinationFile: images.yml
    isYaml: true
`)
		s, err := LoadSettings(dir)
		require.NoError(t, err)
		assert.Equal(t, "kube-kustomize", s.OutputProcessor())

		project, _ := s.OutputOptions().GetString("projectName")
		assert.Equal(t, "shop", project)

		files, err := s.AddedFiles()
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "deploy.sh", files[0].Template)
		assert.False(t, files[0].IsYAML)
		region, _ := files[0].Vars.GetString("region")
		assert.Equal(t, "eu", region)
		assert.True(t, files[1].IsYAML)
		assert.Equal(t, 0, files[1].Vars.Len())
	})

	t.Run("directory without settings", func(t *testing.T) {
		s, err := LoadSettings(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "", s.OutputProcessor())
		assert.Equal(t, 0, s.OutputOptions().Len())
	})

	t.Run("single file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "app.yml", "components: {}\n")
		writeFile(t, dir, SettingsFile, "outputProcessor:\n  name: kube-kustomize\n")

		s, err := LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, "", s.OutputProcessor())
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := LoadSettings(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}

func TestParseAddedFiles_Errors(t *testing.T) {
	tests := []struct {
		name string
		list []any
		want string
	}{
		{"missing template", []any{tree.MapOf("destinationFile", "x")}, "template"},
		{"missing destination", []any{tree.MapOf("template", "x")}, "destinationFile"},
		{"not a mapping", []any{"x"}, "not a mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddedFiles("scripts", tt.list)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseAddedFiles_FilenameAlias(t *testing.T) {
	files, err := ParseAddedFiles("scripts", []any{
		tree.MapOf("template", "deploy", "filename", "deploy.sh", "vars", tree.MapOf("env", "prod")),
		tree.MapOf("template", "list", "destinationFile", "images.yml", "isYaml", true),
	})
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "deploy.sh", files[0].DestinationFile)
	assert.False(t, files[0].IsYAML)
	env, _ := files[0].Vars.GetString("env")
	assert.Equal(t, "prod", env)

	assert.Equal(t, "images.yml", files[1].DestinationFile)
	assert.True(t, files[1].IsYAML)
	assert.Equal(t, 0, files[1].Vars.Len())
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yml", "")
	writeFile(t, dir, "a.yml", "")
	writeFile(t, dir, ".hidden.yml", "")
	writeFile(t, dir, SettingsFile, "")
	writeFile(t, dir, "notes.txt", "")
	writeFile(t, dir, "sub/c.yml", "")

	got, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yml")}, got)

	single, err := Discover(filepath.Join(dir, "a.yml"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml")}, single)

	_, err = Discover(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
