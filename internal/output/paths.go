package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cameronsjo/rigger/internal/profile"
)

// Stdout is the destination that prints instead of writing a file.
const Stdout = "-"

// Paths maps relative output names onto the filesystem. A directory
// profile writes into the output directory; a single profile writes next
// to the output file.
type Paths struct {
	ProfilePath string
	OutputPath  string
	profileDir  bool
}

// Resource is one profile and where its manifest goes.
type Resource struct {
	Source string
	Dest   string
}

// NewPaths checks that profilePath exists and records whether it is a
// directory.
func NewPaths(profilePath, outputPath string) (Paths, error) {
	info, err := os.Stat(profilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Paths{}, &profile.ConfigError{Path: profilePath, Msg: "file or directory does not exist"}
		}
		return Paths{}, fmt.Errorf("stat %s: %w", profilePath, err)
	}
	return Paths{ProfilePath: profilePath, OutputPath: outputPath, profileDir: info.IsDir()}, nil
}

// DirPaths returns Paths for writes into dir, as used by the transform
// command where no profile exists.
func DirPaths(dir string) Paths {
	return Paths{OutputPath: dir, profileDir: true}
}

// ProfileIsDir reports whether the profile path is a directory.
func (p Paths) ProfileIsDir() bool {
	return p.profileDir
}

// OutputDir is the directory all relative names resolve against.
func (p Paths) OutputDir() string {
	switch {
	case p.OutputPath == Stdout:
		return "."
	case p.profileDir:
		return p.OutputPath
	default:
		return filepath.Dir(p.OutputPath)
	}
}

// Resolve turns an output name into a path. Absolute names and Stdout are
// returned unchanged.
func (p Paths) Resolve(name string) string {
	if name == Stdout || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.OutputDir(), name)
}

// Resources lists the profiles to transpile with their destination names.
func (p Paths) Resources() ([]Resource, error) {
	if !p.profileDir {
		dest := Stdout
		if p.OutputPath != Stdout {
			dest = filepath.Base(p.OutputPath)
		}
		return []Resource{{Source: p.ProfilePath, Dest: dest}}, nil
	}

	sources, err := profile.Discover(p.ProfilePath)
	if err != nil {
		return nil, err
	}
	resources := make([]Resource, 0, len(sources))
	for _, src := range sources {
		resources = append(resources, Resource{Source: src, Dest: filepath.Base(src)})
	}
	return resources, nil
}
