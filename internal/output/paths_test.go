package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/rigger/internal/profile"
)

func TestNewPaths_MissingProfile(t *testing.T) {
	_, err := NewPaths(filepath.Join(t.TempDir(), "nope.yml"), "out.yml")
	var cfgErr *profile.ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestPaths_OutputDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.yml")
	require.NoError(t, os.WriteFile(file, []byte("components: {}\n"), 0644))

	tests := []struct {
		name    string
		profile string
		output  string
		want    string
	}{
		{name: "file profile", profile: file, output: "/srv/out/app.yml", want: "/srv/out"},
		{name: "dir profile", profile: dir, output: "/srv/out", want: "/srv/out"},
		{name: "stdout", profile: file, output: Stdout, want: "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPaths(tt.profile, tt.output)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.OutputDir())
		})
	}
}

func TestPaths_Resolve(t *testing.T) {
	p := DirPaths("/srv/out")

	assert.Equal(t, "/srv/out/kustomization.yaml", p.Resolve("kustomization.yaml"))
	assert.Equal(t, "/srv/out/patches/a.json", p.Resolve("patches/a.json"))
	assert.Equal(t, "/etc/abs.yml", p.Resolve("/etc/abs.yml"))
	assert.Equal(t, Stdout, p.Resolve(Stdout))
}

func TestPaths_Resources(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "app.yml")
		require.NoError(t, os.WriteFile(file, []byte("components: {}\n"), 0644))

		p, err := NewPaths(file, "/srv/out/compose.yml")
		require.NoError(t, err)
		res, err := p.Resources()
		require.NoError(t, err)
		assert.Equal(t, []Resource{{Source: file, Dest: "compose.yml"}}, res)
	})

	t.Run("single file to stdout", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "app.yml")
		require.NoError(t, os.WriteFile(file, []byte("components: {}\n"), 0644))

		p, err := NewPaths(file, Stdout)
		require.NoError(t, err)
		res, err := p.Resources()
		require.NoError(t, err)
		assert.Equal(t, Stdout, res[0].Dest)
	})

	t.Run("directory", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"b.yml", "a.yml", profile.SettingsFile, ".hidden.yml", "notes.txt"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("components: {}\n"), 0644))
		}

		p, err := NewPaths(dir, "/srv/out")
		require.NoError(t, err)
		assert.True(t, p.ProfileIsDir())

		res, err := p.Resources()
		require.NoError(t, err)
		assert.Equal(t, []Resource{
			{Source: filepath.Join(dir, "a.yml"), Dest: "a.yml"},
			{Source: filepath.Join(dir, "b.yml"), Dest: "b.yml"},
		}, res)
	})
}
