package storage

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/awp-dev/awpengine/internal/awperr"
	"golang.org/x/sys/unix"
)

// registry serializes concurrent calls within this process that target
// the same path, in addition to the cross-process flock below.
var registry = struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}{locks: make(map[string]*sync.Mutex)}

func processLockFor(path string) *sync.Mutex {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	l, ok := registry.locks[path]
	if !ok {
		l = &sync.Mutex{}
		registry.locks[path] = l
	}
	return l
}

// WithFileLock acquires the in-process lock for path, then a best-effort
// OS advisory flock(2) on a ".lock" sibling file, holds both while f runs,
// and releases them on any return from f (success or failure). timeout
// bounds how long acquisition of the advisory lock will wait; zero means
// wait indefinitely.
func WithFileLock(path string, timeout time.Duration, f func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return awperr.Wrap(awperr.IoError, "WithFileLock", "resolve absolute path", err)
	}

	procLock := processLockFor(abs)
	procLock.Lock()
	defer procLock.Unlock()

	lockPath := abs + ".lock"
	fh, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return awperr.Wrap(awperr.IoError, "WithFileLock", "open lock file", err)
	}
	defer fh.Close()

	if err := acquireFlock(fh, timeout); err != nil {
		return err
	}
	defer unix.Flock(int(fh.Fd()), unix.LOCK_UN)

	return f()
}

// acquireFlock attempts a non-blocking flock, retrying until timeout
// elapses (zero timeout retries forever on EWOULDBLOCK).
func acquireFlock(fh *os.File, timeout time.Duration) error {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		err := unix.Flock(int(fh.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EAGAIN {
			return awperr.Wrap(awperr.IoError, "WithFileLock", "acquire advisory lock", err)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return awperr.New(awperr.Locked, "WithFileLock", "timed out waiting for advisory lock")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
