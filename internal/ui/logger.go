package ui

import (
	"fmt"
	"sync"
)

// Logger is the output sink used by the transpiler packages.
type Logger interface {
	Info(format string, args ...any)
	Debug(format string, args ...any)
	Warning(format string, args ...any)
	Wrote(path string)
}

// Console is a Logger that prints through the package-level helpers.
type Console struct{}

func (Console) Info(format string, args ...any)    { Info(format, args...) }
func (Console) Debug(format string, args ...any)   { Debug(format, args...) }
func (Console) Warning(format string, args ...any) { Warning(format, args...) }
func (Console) Wrote(path string)                  { Wrote(path) }

// Recorder is a Logger that keeps messages in memory.
type Recorder struct {
	mu       sync.Mutex
	Infos    []string
	Debugs   []string
	Warnings []string
	Written  []string
}

func (r *Recorder) Info(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Infos = append(r.Infos, fmt.Sprintf(format, args...))
}

func (r *Recorder) Debug(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Debugs = append(r.Debugs, fmt.Sprintf(format, args...))
}

func (r *Recorder) Warning(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Recorder) Wrote(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Written = append(r.Written, path)
}

// Discard is a Logger that drops everything.
var Discard Logger = discard{}

type discard struct{}

func (discard) Info(string, ...any)    {}
func (discard) Debug(string, ...any)   {}
func (discard) Warning(string, ...any) {}
func (discard) Wrote(string)           {}
