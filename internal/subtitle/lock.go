package subtitle

import (
	"fmt"

	"github.com/gofrs/flock"
)

// FileLock is an advisory lock guarding a subtitle file against a second
// editor. It lives next to the file as <path>.lock.
type FileLock struct {
	lock *flock.Flock
}

// Lock acquires the editor lock for path without blocking.
func Lock(path string) (*FileLock, error) {
	lock := flock.New(path + ".lock")

	ok, err := lock.TryLock()
	if err != nil {
		return nil, &IOError{Op: "lock", Path: path, Err: err}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &FileLock{lock: lock}, nil
}

func (l *FileLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.lock.Path(), err)
	}
	return nil
}
