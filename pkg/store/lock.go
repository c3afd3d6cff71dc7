// Package store implements the on-disk state substrate: the
// constraints log, artifact, persistent and short-term memory files,
// the model-output JSONL, and the hourly/daily/weekly backup tree,
// all guarded by a single advisory-locking discipline.
package store

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	nlcoerrors "github.com/nlco-run/nlco/internal/errors"
)

// FileLock is a whole-file advisory exclusive lock backed by
// syscall.Flock, serializing every mutating access to a shared file
// across cooperating processes on one host. A sync.Mutex serializes
// this process's own goroutines before the syscall lock is attempted,
// and is the only serialization left when flock is unavailable.
type FileLock struct {
	path string
	mu   sync.Mutex

	// degraded is set the first time advisory locking fails; that
	// failure is logged once. Later calls still attempt the syscall but
	// log nothing further, per the "best-effort, log once" failure mode.
	degradedOnce sync.Once
	degraded     bool
}

// NewFileLock returns a lock bound to path. path need not exist yet;
// WithLock creates it on first use in the requested mode.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// WithLock opens the lock's file with the given flags/perm, acquires
// an exclusive advisory lock, invokes fn with the open file, and
// releases the lock on every exit path, success or failure.
func (l *FileLock) WithLock(flag int, perm os.FileMode, fn func(f *os.File) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nlcoerrors.NewIOError(
				"cannot create parent directory for locked file",
				dir,
				"check that an ancestor directory is writable",
				err,
			)
		}
	}

	f, err := os.OpenFile(l.path, flag|os.O_CREATE, perm)
	if err != nil {
		return nlcoerrors.NewIOError(
			"cannot open locked file",
			l.path,
			"check that the parent directory exists and is writable",
			err,
		)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		l.degradedOnce.Do(func() {
			l.degraded = true
			log.Printf("file lock: advisory locking unavailable for %s, degrading to intra-process best-effort: %v", l.path, err)
		})
		// Degrade to best-effort: the intra-process mutex above still
		// serializes this process's own writers even without the
		// kernel-level lock.
	} else {
		defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}

	return fn(f)
}

// IsDegraded reports whether advisory locking failed at least once
// and the lock is now operating in intra-process-only mode.
func (l *FileLock) IsDegraded() bool {
	return l.degraded
}
