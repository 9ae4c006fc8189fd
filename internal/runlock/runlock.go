// Package runlock guards against concurrent resched invocations. The
// metadata records are read-modify-write with no remote locking, so two
// simultaneous runs against the same task set can lose updates or
// double-count failures; a process-level file lock closes off the common
// case of overlapping cron runs on one machine.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock wraps a flock file lock held for the duration of a run.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// New creates a run lock for the given path. The lock file's directory is
// created if needed.
func New(path string) (*RunLock, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", dir, err)
	}
	return &RunLock{
		flock: flock.New(path),
		path:  path,
	}, nil
}

// Acquire attempts to take the lock without blocking. It returns an error if
// another run already holds it or if the lock operation itself fails.
func (rl *RunLock) Acquire() error {
	acquired, err := rl.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", rl.path, err)
	}
	if !acquired {
		return fmt.Errorf("another resched run is already in progress (lock %s is held)", rl.path)
	}
	return nil
}

// Release releases the lock.
func (rl *RunLock) Release() error {
	if err := rl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", rl.path, err)
	}
	return nil
}
