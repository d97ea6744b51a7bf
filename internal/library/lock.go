package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 250 * time.Millisecond

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("library is locked by another process")

// Lock serializes conversions across processes sharing a library.
type Lock struct {
	flock *flock.Flock
}

// NewLock prepares a lock backed by the file at path.
func NewLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	return &Lock{flock: flock.New(path)}, nil
}

// Acquire blocks until the lock is held or ctx ends.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.flock.TryLockContext(ensureContext(ctx), lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire library lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// TryLock takes the lock without waiting.
func (l *Lock) TryLock() error {
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire library lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	return l.flock.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.flock.Path()
}
