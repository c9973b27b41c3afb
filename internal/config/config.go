// Package config loads rigger's CLI defaults.
//
// Lookup order for the config file:
//  1. the --config flag
//  2. .rigger.yaml in the working directory or any parent
//  3. ~/.config/rigger/config.yaml
//
// RIGGER_* environment variables override file values, so RIGGER_RELEASE
// sets release and RIGGER_WATCH_DEBOUNCE sets watch_debounce.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// ProjectFile is the per-project config file name.
const ProjectFile = ".rigger.yaml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "RIGGER"

// Config holds defaults for command flags.
type Config struct {
	// Release is the release file applied when -r is not given.
	Release string `mapstructure:"release"`

	// BaseEnv is the base env file applied when -b is not given.
	BaseEnv string `mapstructure:"base_env"`

	// Snapshot snapshots the output directory before every transpile.
	Snapshot bool `mapstructure:"snapshot"`

	// WatchDebounce is how long --watch waits for more events.
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`

	// SOPSCommand is the sops binary used to decrypt base env files.
	SOPSCommand string `mapstructure:"sops_command"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no_color"`

	// Path is the config file that was loaded, empty when none was.
	Path string `mapstructure:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		WatchDebounce: 300 * time.Millisecond,
		SOPSCommand:   "sops",
	}
}

// Sources tells Load where to look.
type Sources struct {
	// File is an explicit config file. It must exist.
	File string
	// WorkDir starts the upward search for ProjectFile. Empty uses the
	// current directory.
	WorkDir string
	// HomeDir holds .config/rigger/config.yaml. Empty uses the user's home.
	HomeDir string
}

// Load reads the first config file found and applies environment
// overrides. A missing optional file is not an error.
func Load(src Sources) (*Config, error) {
	v := viper.New()
	defaults := Defaults()
	v.SetDefault("release", defaults.Release)
	v.SetDefault("base_env", defaults.BaseEnv)
	v.SetDefault("snapshot", defaults.Snapshot)
	v.SetDefault("watch_debounce", defaults.WatchDebounce)
	v.SetDefault("sops_command", defaults.SOPSCommand)
	v.SetDefault("no_color", defaults.NoColor)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := locate(src)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Path = path
	return &cfg, nil
}

func locate(src Sources) (string, error) {
	if src.File != "" {
		file, err := homedir.Expand(src.File)
		if err != nil {
			return "", fmt.Errorf("expand config path: %w", err)
		}
		if _, err := os.Stat(file); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return file, nil
	}

	workDir := src.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		workDir = wd
	}
	if path, ok := FindProjectFile(workDir); ok {
		return path, nil
	}

	home := src.HomeDir
	if home == "" {
		dir, err := homedir.Dir()
		if err != nil {
			return "", nil
		}
		home = dir
	}
	userFile := filepath.Join(home, ".config", "rigger", "config.yaml")
	if _, err := os.Stat(userFile); err == nil {
		return userFile, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("config file: %w", err)
	}
	return "", nil
}

// FindProjectFile searches upward from dir for ProjectFile.
func FindProjectFile(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, ProjectFile)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
