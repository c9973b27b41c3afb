package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cameronsjo/rigger/internal/tree"
)

// SettingsFile is the per-directory settings file next to the profiles.
const SettingsFile = "transpiler.yml"

// Settings holds the run-wide options of a profile directory.
type Settings struct {
	raw *tree.Map
}

// NewSettings wraps an already parsed settings tree.
func NewSettings(raw *tree.Map) *Settings {
	if raw == nil {
		raw = tree.NewMap()
	}
	return &Settings{raw: raw}
}

// LoadSettings reads transpiler.yml when profilePath is a directory holding
// one. Single profile files and directories without the file get empty
// settings. The settings file may use _inheritance like a profile.
func LoadSettings(profilePath string) (*Settings, error) {
	info, err := os.Stat(profilePath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", profilePath, err)
	}
	if !info.IsDir() {
		return NewSettings(nil), nil
	}

	settingsPath := filepath.Join(profilePath, SettingsFile)
	if _, err := os.Stat(settingsPath); err != nil {
		if os.IsNotExist(err) {
			return NewSettings(nil), nil
		}
		return nil, fmt.Errorf("stat %s: %w", settingsPath, err)
	}

	raw, err := Resolve(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return NewSettings(raw), nil
}

// Raw returns the settings tree.
func (s *Settings) Raw() *tree.Map {
	return s.raw
}

// OutputProcessor returns outputProcessor.name, or "" when unset.
func (s *Settings) OutputProcessor() string {
	v, ok := tree.Lookup(s.raw, "outputProcessor.name")
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// OutputOptions returns outputProcessor.options, or an empty map.
func (s *Settings) OutputOptions() *tree.Map {
	v, _ := tree.Lookup(s.raw, "outputProcessor.options")
	if m, ok := v.(*tree.Map); ok {
		return m
	}
	return tree.NewMap()
}

// AddedFile declares an extra file rendered after each transpiled profile.
type AddedFile struct {
	Template        string
	DestinationFile string
	IsYAML          bool
	Vars            *tree.Map
}

// AddedFiles returns the declared addedFiles.
func (s *Settings) AddedFiles() ([]AddedFile, error) {
	v, _ := s.raw.Get("addedFiles")
	return ParseAddedFiles(SettingsFile, v)
}

// ParseAddedFiles reads a list of added file declarations. source names the
// file or key the list came from, for error messages. The destination may
// be given as destinationFile or, for profile scripts, filename.
func ParseAddedFiles(source string, v any) ([]AddedFile, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, nil
	}

	files := make([]AddedFile, 0, len(list))
	for i, item := range list {
		entry, ok := item.(*tree.Map)
		if !ok {
			return nil, &ConfigError{Path: source, Msg: fmt.Sprintf("added file #%d is not a mapping", i+1)}
		}
		f := AddedFile{
			Template:        scalarString(entry, "template"),
			DestinationFile: scalarString(entry, "destinationFile"),
		}
		if f.DestinationFile == "" {
			f.DestinationFile = scalarString(entry, "filename")
		}
		if f.Template == "" {
			return nil, &ConfigError{Path: source, Msg: fmt.Sprintf("added file #%d: you must specify a template", i+1)}
		}
		if f.DestinationFile == "" {
			return nil, &ConfigError{Path: source, Msg: fmt.Sprintf("added file #%d: you must specify a destinationFile", i+1)}
		}
		if isYAML, ok := entry.Get("isYaml"); ok {
			f.IsYAML = isYAML == true
		}
		if vars, ok := entry.GetMap("vars"); ok {
			f.Vars = vars
		} else {
			f.Vars = tree.NewMap()
		}
		files = append(files, f)
	}
	return files, nil
}

// Discover lists the profiles to transpile. A file path is returned as is;
// a directory yields its *.yml files (dotfiles and transpiler.yml excluded)
// in lexical order.
func Discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigError{Path: path, Msg: "profile path does not exist"}
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read profile directory: %w", err)
	}

	var profiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == SettingsFile || filepath.Ext(name) != ".yml" {
			continue
		}
		profiles = append(profiles, filepath.Join(path, name))
	}
	sort.Strings(profiles)

	return profiles, nil
}
