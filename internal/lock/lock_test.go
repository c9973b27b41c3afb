package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l := New("/tmp/out", "transpile")
	assert.Equal(t, "/tmp/out/.rigger/locks/transpile.lock", l.Path())
}

func TestLock_AcquireRelease(t *testing.T) {
	tmpDir := t.TempDir()
	l := New(tmpDir, "transpile")

	require.NoError(t, l.Acquire())

	lockPath := filepath.Join(tmpDir, StateDir, "locks", "transpile.lock")
	_, err := os.Stat(lockPath)
	require.NoError(t, err)

	require.NoError(t, l.Release())

	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLock_DoubleAcquire(t *testing.T) {
	tmpDir := t.TempDir()
	first := New(tmpDir, "transpile")
	second := New(tmpDir, "transpile")

	require.NoError(t, first.Acquire())
	defer first.Release()

	err := second.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))
	assert.Contains(t, err.Error(), "another transpile operation is already running")
}

func TestLock_AcquireContext(t *testing.T) {
	tmpDir := t.TempDir()
	holder := New(tmpDir, "transpile")
	require.NoError(t, holder.Acquire())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	waiter := New(tmpDir, "transpile")
	err := waiter.AcquireContext(ctx, 10*time.Millisecond)
	assert.Error(t, err)

	require.NoError(t, holder.Release())

	require.NoError(t, waiter.AcquireContext(context.Background(), 10*time.Millisecond))
	require.NoError(t, waiter.Release())
}

func TestLock_ReleaseWithoutAcquire(t *testing.T) {
	l := New(t.TempDir(), "transpile")
	require.NoError(t, l.Release())
}

func TestWithLock(t *testing.T) {
	tmpDir := t.TempDir()

	executed := false
	err := WithLock(tmpDir, "transpile", func() error {
		executed = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, executed)
}

func TestWithLock_Blocked(t *testing.T) {
	tmpDir := t.TempDir()
	l := New(tmpDir, "transpile")
	require.NoError(t, l.Acquire())
	defer l.Release()

	err := WithLock(tmpDir, "transpile", func() error {
		return nil
	})
	assert.ErrorIs(t, err, ErrLocked)
}
