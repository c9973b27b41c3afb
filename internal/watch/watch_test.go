package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, cfg Config) <-chan struct{} {
	t.Helper()
	cfg.Debounce = 50 * time.Millisecond
	w, err := New(cfg)
	require.NoError(t, err)
	changes, err := w.Start()
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })
	return changes
}

func expectChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func expectNoChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
		t.Fatal("unexpected change notification")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_DirectoryTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "components"), 0755))
	changes := startWatcher(t, Config{Paths: []string{dir}})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "components", "web.tmpl"), []byte("image: nginx\n"), 0644))
	expectChange(t, changes)
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	changes := startWatcher(t, Config{Paths: []string{dir}})

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yml"), []byte("components: {}\n"), 0644))
	}
	expectChange(t, changes)
	expectNoChange(t, changes)
}

func TestWatcher_SingleFile(t *testing.T) {
	dir := t.TempDir()
	release := filepath.Join(dir, "prod.release")
	require.NoError(t, os.WriteFile(release, []byte("nginx:1.25\n"), 0644))
	changes := startWatcher(t, Config{Paths: []string{release}})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644))
	expectNoChange(t, changes)

	require.NoError(t, os.WriteFile(release, []byte("nginx:1.26\n"), 0644))
	expectChange(t, changes)
}

func TestWatcher_IgnoresOutputDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "dist")
	require.NoError(t, os.MkdirAll(out, 0755))
	changes := startWatcher(t, Config{Paths: []string{dir}, Ignore: []string{out}})

	require.NoError(t, os.WriteFile(filepath.Join(out, "app.yml"), []byte("services: {}\n"), 0644))
	expectNoChange(t, changes)
}

func TestWatcher_MissingPath(t *testing.T) {
	w, err := New(Config{Paths: []string{filepath.Join(t.TempDir(), "nope")}})
	require.NoError(t, err)
	defer w.fsWatcher.Close()

	_, err = w.Start()
	assert.Error(t, err)
}

func TestIsRelevantEvent(t *testing.T) {
	w := &Watcher{
		dirs:  map[string]bool{"/tpl": true},
		files: map[string]bool{"/rel/prod.release": true},
		cfg:   Config{Ignore: []string{"/tpl/out"}},
	}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{name: "write in watched dir", event: fsnotify.Event{Name: "/tpl/web.tmpl", Op: fsnotify.Write}, want: true},
		{name: "remove in watched dir", event: fsnotify.Event{Name: "/tpl/web.tmpl", Op: fsnotify.Remove}, want: true},
		{name: "chmod only", event: fsnotify.Event{Name: "/tpl/web.tmpl", Op: fsnotify.Chmod}},
		{name: "editor swap file", event: fsnotify.Event{Name: "/tpl/.web.tmpl.swp", Op: fsnotify.Write}},
		{name: "editor backup", event: fsnotify.Event{Name: "/tpl/web.tmpl~", Op: fsnotify.Write}},
		{name: "watched file", event: fsnotify.Event{Name: "/rel/prod.release", Op: fsnotify.Write}, want: true},
		{name: "sibling of watched file", event: fsnotify.Event{Name: "/rel/other.release", Op: fsnotify.Write}},
		{name: "ignored dir", event: fsnotify.Event{Name: "/tpl/out/app.yml", Op: fsnotify.Create}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.isRelevantEvent(tt.event))
		})
	}
}
