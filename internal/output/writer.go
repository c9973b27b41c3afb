package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/cameronsjo/rigger/internal/fileutil"
	"github.com/cameronsjo/rigger/internal/ui"
)

// Mode selects what a Writer does with content.
type Mode int

const (
	// ModeWrite writes files atomically.
	ModeWrite Mode = iota
	// ModeDryRun prints every file instead of writing it.
	ModeDryRun
	// ModeDiff prints a unified diff against what is on disk.
	ModeDiff
)

// Writer is the single place artifacts leave the process. Within a run it
// remembers what it produced, so later reads see earlier writes even when
// nothing touches the disk.
type Writer struct {
	Paths  Paths
	Mode   Mode
	Out    io.Writer
	Logger ui.Logger

	pending map[string]string
	written []string
}

// NewWriter creates a Writer. A nil out prints to stdout and a nil logger
// discards messages.
func NewWriter(paths Paths, mode Mode, out io.Writer, logger ui.Logger) *Writer {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = ui.Discard
	}
	return &Writer{
		Paths:   paths,
		Mode:    mode,
		Out:     out,
		Logger:  logger,
		pending: make(map[string]string),
	}
}

// Read returns the current content of name, preferring content produced
// earlier in this run. ok is false when the file does not exist yet.
func (w *Writer) Read(name string) (content string, ok bool, err error) {
	path := w.Paths.Resolve(name)
	if c, found := w.pending[path]; found {
		return c, true, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), true, nil
}

// Write emits content under name according to the Writer's mode.
func (w *Writer) Write(name, content string) error {
	path := w.Paths.Resolve(name)
	if path == Stdout {
		_, err := io.WriteString(w.Out, content)
		return err
	}

	switch w.Mode {
	case ModeDiff:
		old, _, err := w.Read(name)
		if err != nil {
			return err
		}
		if diff := udiff.Unified(path+" (current)", path+" (new)", old, content); diff != "" {
			fmt.Fprint(w.Out, ensureTrailingNewline(diff))
		}
	case ModeDryRun:
		fmt.Fprintf(w.Out, "--- %s ---\n%s", path, ensureTrailingNewline(content))
	default:
		if err := fileutil.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
		w.Logger.Wrote(path)
	}

	if _, seen := w.pending[path]; !seen {
		w.written = append(w.written, path)
	}
	w.pending[path] = content
	return nil
}

// Copy emits the content of src under name.
func (w *Writer) Copy(src, name string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	return w.Write(name, string(data))
}

// Written returns the paths produced so far, in first-write order.
func (w *Writer) Written() []string {
	return append([]string(nil), w.written...)
}

func ensureTrailingNewline(content string) string {
	if content == "" || strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}
