// Package snapshot keeps copies of an output directory so a bad transpile
// can be rolled back.
//
// Snapshots live in <output>/.rigger/snapshots. Everything in the output
// directory except the .rigger state directory is captured.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"

	"github.com/cameronsjo/rigger/internal/fileutil"
	"github.com/cameronsjo/rigger/internal/lock"
)

const (
	// SnapshotPrefix is the prefix for snapshot directory names.
	SnapshotPrefix = "snapshot-"
	// BackupPrefix names the automatic backup taken before a rollback.
	BackupPrefix = "pre-rollback-"
	// DateFormat is the timestamp format used in snapshot names.
	DateFormat = "20060102-150405.000000000"
	// MaxSnapshots is the maximum number of snapshots to retain.
	MaxSnapshots = 20
	// MinFreeDiskBytes is the minimum free disk space required (100MB).
	MinFreeDiskBytes = 100 * 1024 * 1024
)

// Info holds metadata about a snapshot.
type Info struct {
	Name      string
	Path      string
	Created   time.Time
	FileCount int
}

// Dir returns the snapshots directory of an output directory.
func Dir(outDir string) string {
	return filepath.Join(outDir, lock.StateDir, "snapshots")
}

// Create snapshots the current output directory. It returns the snapshot
// name, or "" when there was nothing to snapshot.
func Create(outDir string) (string, error) {
	entries, err := contentEntries(outDir)
	if err != nil || len(entries) == 0 {
		return "", nil
	}

	snapDir := Dir(outDir)
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		return "", fmt.Errorf("create snapshots directory: %w", err)
	}

	size, err := contentSize(outDir, entries)
	if err != nil {
		return "", fmt.Errorf("calculate output size: %w", err)
	}
	if err := checkDiskSpace(snapDir, size+MinFreeDiskBytes); err != nil {
		return "", fmt.Errorf("insufficient disk space for snapshot: %w", err)
	}

	name := SnapshotPrefix + time.Now().Format(DateFormat)
	path := filepath.Join(snapDir, name)
	if err := copyContent(outDir, entries, path); err != nil {
		if cleanupErr := os.RemoveAll(path); cleanupErr != nil {
			return "", fmt.Errorf("copy output to snapshot: %w (cleanup also failed: %v)", err, cleanupErr)
		}
		return "", fmt.Errorf("copy output to snapshot: %w", err)
	}

	if err := Cleanup(outDir); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to cleanup old snapshots: %v\n", err)
	}

	return name, nil
}

// List returns snapshots and pre-rollback backups, newest first.
func List(outDir string) ([]Info, error) {
	snapDir := Dir(outDir)

	entries, err := os.ReadDir(snapDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshots directory: %w", err)
	}

	var snapshots []Info
	for _, entry := range entries {
		name := entry.Name()
		prefix := ""
		switch {
		case strings.HasPrefix(name, SnapshotPrefix):
			prefix = SnapshotPrefix
		case strings.HasPrefix(name, BackupPrefix):
			prefix = BackupPrefix
		}
		if !entry.IsDir() || prefix == "" {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot read snapshot %s: %v\n", name, err)
			continue
		}
		created, err := time.ParseInLocation(DateFormat, strings.TrimPrefix(name, prefix), time.Local)
		if err != nil {
			created = fi.ModTime()
		}

		path := filepath.Join(snapDir, name)
		snapshots = append(snapshots, Info{
			Name:      name,
			Path:      path,
			Created:   created,
			FileCount: countFiles(path),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Created.After(snapshots[j].Created)
	})

	return snapshots, nil
}

// Restore replaces the output directory content with a snapshot. The
// current content is backed up first, and the swap is rolled back if it
// fails halfway.
func Restore(outDir, name string) error {
	snapDir := Dir(outDir)
	snapshotPath := filepath.Join(snapDir, name)
	if fi, err := os.Stat(snapshotPath); err != nil || !fi.IsDir() {
		return fmt.Errorf("snapshot not found: %s", name)
	}

	size, err := dirSize(snapshotPath)
	if err != nil {
		return fmt.Errorf("calculate snapshot size: %w", err)
	}
	if err := checkDiskSpace(snapDir, size+MinFreeDiskBytes); err != nil {
		return fmt.Errorf("insufficient disk space for restore: %w", err)
	}

	current, err := contentEntries(outDir)
	if err != nil {
		return err
	}
	if len(current) > 0 {
		backup := filepath.Join(snapDir, BackupPrefix+time.Now().Format(DateFormat))
		if err := copyContent(outDir, current, backup); err != nil {
			os.RemoveAll(backup)
			return fmt.Errorf("create pre-rollback backup: %w", err)
		}
	}

	restoreID := uuid.New().String()[:8]
	stateDir := filepath.Join(outDir, lock.StateDir)
	tempDir := filepath.Join(stateDir, "restore-temp-"+restoreID)
	oldDir := filepath.Join(stateDir, "restore-old-"+restoreID)

	if err := fileutil.CopyDir(snapshotPath, tempDir); err != nil {
		os.RemoveAll(tempDir)
		return fmt.Errorf("copy snapshot to temp: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := os.MkdirAll(oldDir, 0755); err != nil {
		return fmt.Errorf("create restore directory: %w", err)
	}
	moved, err := moveEntries(outDir, oldDir, current)
	if err != nil {
		moveEntries(oldDir, outDir, moved)
		return fmt.Errorf("move current output aside: %w", err)
	}

	restored, err := restoreEntries(tempDir, outDir)
	if err != nil {
		moveEntries(outDir, tempDir, restored)
		if _, recoverErr := moveEntries(oldDir, outDir, current); recoverErr != nil {
			return fmt.Errorf("restore snapshot: %w (recovery also failed: %v)", err, recoverErr)
		}
		return fmt.Errorf("restore snapshot: %w", err)
	}

	os.RemoveAll(oldDir)
	return nil
}

// Cleanup removes snapshots beyond the retention limit. It keeps going
// when single removals fail and reports all failures together.
func Cleanup(outDir string) error {
	snapshots, err := List(outDir)
	if err != nil {
		return err
	}
	if len(snapshots) <= MaxSnapshots {
		return nil
	}

	var result *multierror.Error
	for _, snap := range snapshots[MaxSnapshots:] {
		if err := removeWithRetry(snap.Path, 3); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", snap.Name, err))
		}
	}
	return result.ErrorOrNil()
}

// Files lists the files currently in the output directory, relative to it.
func Files(outDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(outDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == lock.StateDir {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(outDir, path)
			files = append(files, rel)
		}
		return nil
	})
	return files, err
}

// contentEntries lists top-level entries of outDir except the state dir.
func contentEntries(outDir string) ([]string, error) {
	entries, err := os.ReadDir(outDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read output directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Name() == lock.StateDir {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func copyContent(outDir string, entries []string, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	for _, name := range entries {
		src := filepath.Join(outDir, name)
		fi, err := os.Lstat(src)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			err = fileutil.CopyDir(src, filepath.Join(dst, name))
		} else {
			err = fileutil.CopyFile(src, filepath.Join(dst, name))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// moveEntries renames entries from src to dst and returns the ones moved.
func moveEntries(src, dst string, entries []string) ([]string, error) {
	var moved []string
	for _, name := range entries {
		if err := os.Rename(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return moved, err
		}
		moved = append(moved, name)
	}
	return moved, nil
}

func restoreEntries(src, dst string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return moveEntries(src, dst, names)
}

func contentSize(outDir string, entries []string) (int64, error) {
	var total int64
	for _, name := range entries {
		size, err := dirSize(filepath.Join(outDir, name))
		if err != nil {
			return 0, err
		}
		total += size
	}
	return total, nil
}

func countFiles(dir string) int {
	count := 0
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

func checkDiskSpace(dir string, requiredBytes int64) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return fmt.Errorf("failed to check disk space: %w", err)
	}

	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < requiredBytes {
		return fmt.Errorf("need %d bytes, only %d available", requiredBytes, available)
	}
	return nil
}

// dirSize sums file sizes below path; path may also be a single file.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			size += info.Size()
		}
		return nil
	})
	return size, err
}

func removeWithRetry(path string, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := os.RemoveAll(path); err != nil {
			lastErr = err
			time.Sleep(time.Duration(10*(1<<i)) * time.Millisecond)
			continue
		}
		return nil
	}
	return lastErr
}
