package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evalSymlinks resolves symlinks for path comparison (macOS /var -> /private/var).
func evalSymlinks(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Sources{WorkDir: t.TempDir(), HomeDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, 300*time.Millisecond, cfg.WatchDebounce)
	assert.Equal(t, "sops", cfg.SOPSCommand)
	assert.Empty(t, cfg.Release)
	assert.False(t, cfg.Snapshot)
	assert.Empty(t, cfg.Path)
}

func TestLoad_ProjectFileInParent(t *testing.T) {
	root := evalSymlinks(t, t.TempDir())
	writeConfig(t, filepath.Join(root, ProjectFile), "release: releases/2024.05.release\nsnapshot: true\nwatch_debounce: 1s\n")
	sub := filepath.Join(root, "profiles", "prod")
	require.NoError(t, os.MkdirAll(sub, 0755))

	cfg, err := Load(Sources{WorkDir: sub, HomeDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ProjectFile), cfg.Path)
	assert.Equal(t, "releases/2024.05.release", cfg.Release)
	assert.True(t, cfg.Snapshot)
	assert.Equal(t, time.Second, cfg.WatchDebounce)
	assert.Equal(t, "sops", cfg.SOPSCommand)
}

func TestLoad_UserFile(t *testing.T) {
	home := t.TempDir()
	userFile := filepath.Join(home, ".config", "rigger", "config.yaml")
	writeConfig(t, userFile, "base_env: ~/secrets/base.env\nno_color: true\n")

	cfg, err := Load(Sources{WorkDir: t.TempDir(), HomeDir: home})
	require.NoError(t, err)

	assert.Equal(t, userFile, cfg.Path)
	assert.Equal(t, "~/secrets/base.env", cfg.BaseEnv)
	assert.True(t, cfg.NoColor)
}

func TestLoad_ProjectFileWinsOverUserFile(t *testing.T) {
	work := t.TempDir()
	home := t.TempDir()
	writeConfig(t, filepath.Join(work, ProjectFile), "release: project.release\n")
	writeConfig(t, filepath.Join(home, ".config", "rigger", "config.yaml"), "release: user.release\n")

	cfg, err := Load(Sources{WorkDir: work, HomeDir: home})
	require.NoError(t, err)
	assert.Equal(t, "project.release", cfg.Release)
}

func TestLoad_ExplicitFile(t *testing.T) {
	work := t.TempDir()
	writeConfig(t, filepath.Join(work, ProjectFile), "release: project.release\n")
	explicit := filepath.Join(t.TempDir(), "ci.yaml")
	writeConfig(t, explicit, "release: ci.release\n")

	cfg, err := Load(Sources{File: explicit, WorkDir: work, HomeDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "ci.release", cfg.Release)
	assert.Equal(t, explicit, cfg.Path)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(Sources{File: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file")
}

func TestLoad_InvalidFile(t *testing.T) {
	work := t.TempDir()
	writeConfig(t, filepath.Join(work, ProjectFile), "release: [unclosed\n")

	_, err := Load(Sources{WorkDir: work, HomeDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	work := t.TempDir()
	writeConfig(t, filepath.Join(work, ProjectFile), "release: project.release\n")
	t.Setenv("RIGGER_RELEASE", "env.release")
	t.Setenv("RIGGER_SOPS_COMMAND", "/opt/bin/sops")
	t.Setenv("RIGGER_SNAPSHOT", "true")

	cfg, err := Load(Sources{WorkDir: work, HomeDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "env.release", cfg.Release)
	assert.Equal(t, "/opt/bin/sops", cfg.SOPSCommand)
	assert.True(t, cfg.Snapshot)
}

func TestFindProjectFile(t *testing.T) {
	root := evalSymlinks(t, t.TempDir())
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0755))

	_, ok := FindProjectFile(deep)
	assert.False(t, ok)

	writeConfig(t, filepath.Join(root, "a", ProjectFile), "")
	path, ok := FindProjectFile(deep)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "a", ProjectFile), path)
}

func TestFindProjectFile_IgnoresDirectories(t *testing.T) {
	root := evalSymlinks(t, t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(root, ProjectFile), 0755))

	_, ok := FindProjectFile(root)
	assert.False(t, ok)
}
