// Package watch signals when templates, profiles or release files change.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors input paths and sends a debounced notification after
// changes settle.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	cfg       Config
	dirs      map[string]bool
	files     map[string]bool
	onChange  chan struct{}
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Paths are files or directories. Directories are watched recursively,
	// skipping hidden ones.
	Paths []string
	// Ignore lists directories whose events are dropped, typically the
	// output directory.
	Ignore []string
	// Debounce is how long to wait for further events.
	Debounce time.Duration
}

// New creates a new Watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}

	return &Watcher{
		fsWatcher: fsw,
		cfg:       cfg,
		dirs:      make(map[string]bool),
		files:     make(map[string]bool),
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives a signal once
// events stop arriving for the debounce period.
func (w *Watcher) Start() (<-chan struct{}, error) {
	for _, p := range w.cfg.Paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
		if info.IsDir() {
			if err := w.addTree(abs); err != nil {
				return nil, err
			}
			continue
		}
		w.files[abs] = true
		if err := w.add(filepath.Dir(abs)); err != nil {
			return nil, err
		}
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		w.dirs[path] = true
		return w.add(path)
	})
}

func (w *Watcher) add(dir string) error {
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	return nil
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.cfg.Debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				// Non-blocking send - drop if a signal is already queued
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent drops chmod-only events, editor temp files, ignored
// directories and siblings of individually watched files.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if w.ignored(event.Name) {
		return false
	}
	return w.files[event.Name] || w.dirs[filepath.Dir(event.Name)]
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.cfg.Ignore {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if path == abs || strings.HasPrefix(path, abs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
