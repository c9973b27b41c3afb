// Package render resolves template ids to files under a template directory
// and executes them with text/template, sprig and rigger's own helpers.
//
// A template id such as "web" resolves to the first existing "web.tmpl" in
// the template directory itself, then base/, components/, mixins/,
// wrapper/ and scripts/.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	gocache "github.com/patrickmn/go-cache"

	"github.com/cameronsjo/rigger/internal/tree"
)

// Extension is appended to template ids that do not carry it.
const Extension = ".tmpl"

// Subdirs are searched after the template directory itself, in order.
var Subdirs = []string{"base", "components", "mixins", "wrapper", "scripts"}

// ErrTemplateNotFound is returned when no root holds the requested id.
var ErrTemplateNotFound = errors.New("template not found")

// Engine renders templates from an ordered list of roots.
// Parsed templates are cached per file and modification time, so an
// Engine can be reused across watch iterations.
type Engine struct {
	roots []string
	cache *gocache.Cache
	funcs template.FuncMap
}

// New creates an Engine for the template directory dir.
func New(dir string) (*Engine, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("template directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template directory %s is not a directory", dir)
	}

	roots := []string{dir}
	for _, sub := range Subdirs {
		p := filepath.Join(dir, sub)
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			roots = append(roots, p)
		}
	}

	e := &Engine{
		roots: roots,
		cache: gocache.New(gocache.NoExpiration, 0),
	}
	e.funcs = e.funcMap()
	return e, nil
}

// Roots returns the directories searched for templates.
func (e *Engine) Roots() []string {
	return append([]string(nil), e.roots...)
}

// Resolve returns the file path for a template id.
func (e *Engine) Resolve(id string) (string, error) {
	name := id
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	for _, root := range e.roots {
		p := filepath.Join(root, name)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", ErrTemplateNotFound, name, strings.Join(e.roots, ", "))
}

// Exists reports whether id resolves to a template file.
func (e *Engine) Exists(id string) bool {
	_, err := e.Resolve(id)
	return err == nil
}

// Render executes template id with data. Tree maps in data are converted
// to plain maps first. Missing keys render as empty strings.
func (e *Engine) Render(id string, data any) (string, error) {
	tmpl, err := e.load(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, tree.ToPlain(data)); err != nil {
		return "", fmt.Errorf("render %s: %w", id, err)
	}
	// missingkey=zero yields a nil interface for a missing key of a
	// map[string]any, which text/template still prints as <no value>.
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

// Flush drops all cached templates.
func (e *Engine) Flush() {
	e.cache.Flush()
}

func (e *Engine) load(id string) (*template.Template, error) {
	path, err := e.Resolve(id)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat template: %w", err)
	}

	key := path + "@" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if cached, ok := e.cache.Get(key); ok {
		if tmpl, ok := cached.(*template.Template); ok {
			return tmpl, nil
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	tmpl, err := template.New(filepath.Base(path)).
		Funcs(sprig.TxtFuncMap()).
		Funcs(e.funcs).
		Option("missingkey=zero").
		Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}

	e.cache.Set(key, tmpl, gocache.NoExpiration)
	return tmpl, nil
}
