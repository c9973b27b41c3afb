// Package fileutil provides atomic file writes and copies.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
)

// ErrSymlinkNotSupported indicates symlinks are not supported for this operation.
var ErrSymlinkNotSupported = errors.New("symlinks are not supported")

// WriteFile writes data to path through a temp file and rename, creating
// parent directories as needed. Readers never see a partial file.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}
	if err := atomicwriter.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// CopyFile copies a single file from src to dst, preserving permissions.
// Returns ErrSymlinkNotSupported if src is a symlink.
func CopyFile(src, dst string) error {
	srcLstat, err := os.Lstat(src)
	if err != nil {
		return err // unwrapped so os.IsNotExist keeps working
	}
	if srcLstat.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%s: %w", src, ErrSymlinkNotSupported)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	return WriteFile(dst, data, srcLstat.Mode().Perm())
}

// CopyDir recursively copies a directory from src to dst.
// Returns ErrSymlinkNotSupported if any symlinks are encountered.
func CopyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.Type()&os.ModeSymlink != 0 {
			return fmt.Errorf("%s: %w", path, ErrSymlinkNotSupported)
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("calculate relative path: %w", err)
		}
		dstPath := filepath.Join(dst, relPath)

		if d.IsDir() {
			return os.MkdirAll(dstPath, 0755)
		}

		return CopyFile(path, dstPath)
	})
}
