// Package ui provides rigger's leveled, colored console output.
package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Bold   = color.New(color.Bold)
	Faint  = color.New(color.Faint)
)

// Level selects how chatty the console helpers are.
type Level int

const (
	// LevelQuiet prints only warnings and errors.
	LevelQuiet Level = iota
	// LevelNormal is the default.
	LevelNormal
	// LevelVerbose adds Debug output.
	LevelVerbose
)

var level = LevelNormal

// SetLevel changes the output level for all helpers.
func SetLevel(l Level) {
	level = l
}

// CurrentLevel returns the active output level.
func CurrentLevel() Level {
	return level
}

// ConfigureColor turns colors off when requested or when stdout is not a
// terminal.
func ConfigureColor(disable bool) {
	if disable || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
}

// Success prints a green success message with checkmark.
func Success(format string, args ...any) {
	if level < LevelNormal {
		return
	}
	Green.Printf("✓ "+format+"\n", args...)
}

// Error prints a red error message with X.
func Error(format string, args ...any) {
	Red.Printf("✗ "+format+"\n", args...)
}

// Warning prints a yellow warning message.
func Warning(format string, args ...any) {
	Yellow.Printf("⚠ "+format+"\n", args...)
}

// Info prints a blue info message.
func Info(format string, args ...any) {
	if level < LevelNormal {
		return
	}
	Blue.Printf(format+"\n", args...)
}

// Debug prints a faint message, only in verbose mode.
func Debug(format string, args ...any) {
	if level < LevelVerbose {
		return
	}
	Faint.Printf(format+"\n", args...)
}

// Header prints a bold header.
func Header(format string, args ...any) {
	if level < LevelNormal {
		return
	}
	Bold.Printf(format+"\n", args...)
}

func Snapshot(format string, args ...any) {
	if level < LevelNormal {
		return
	}
	Blue.Printf("📸 "+format+"\n", args...)
}

// Wrote reports a file leaving the process.
func Wrote(path string) {
	if level < LevelNormal {
		return
	}
	Green.Printf("→ %s\n", path)
}
