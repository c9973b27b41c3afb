// Package lock guards an output directory against concurrent rigger runs.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// StateDir is the hidden directory rigger keeps inside an output directory.
const StateDir = ".rigger"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("lock held by another process")

// Lock is an advisory file lock for one operation on one output directory.
type Lock struct {
	operation string
	fl        *flock.Flock
}

// New creates a lock for operation under outputDir/.rigger/locks.
func New(outputDir, operation string) *Lock {
	path := filepath.Join(outputDir, StateDir, "locks", operation+".lock")
	return &Lock{operation: operation, fl: flock.New(path)}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Acquire takes the lock without waiting.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another %s operation is already running: %w", l.operation, ErrLocked)
	}
	return nil
}

// AcquireContext waits for the lock until ctx is done, polling every retry.
func (l *Lock) AcquireContext(ctx context.Context, retry time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := l.fl.TryLockContext(ctx, retry)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another %s operation is already running: %w", l.operation, ErrLocked)
	}
	return nil
}

// Release drops the lock and removes the lock file. Releasing an unheld
// lock is a no-op.
func (l *Lock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	os.Remove(l.fl.Path())
	return nil
}

// WithLock runs fn while holding the operation lock for outputDir.
func WithLock(outputDir, operation string, fn func() error) error {
	l := New(outputDir, operation)
	if err := l.Acquire(); err != nil {
		return err
	}
	defer l.Release()

	return fn()
}
