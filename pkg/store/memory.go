package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// MemoryStore holds the persistent knowledge base as a flat text
// blob, mutated only through the four primitives the MemoryAgent
// exposes as tools. Each mutation is written to disk as it happens.
// editCount tracks how many mutations have succeeded across the
// store's lifetime; callers compare counts before/after an agent
// invocation to tell whether memory changed.
type MemoryStore struct {
	path      string
	lock      *FileLock
	backup    *BackupRotator
	editCount int64
}

// NewMemoryStore returns a store at path, backed up via backup before
// every mutation.
func NewMemoryStore(path string, backup *BackupRotator) *MemoryStore {
	return &MemoryStore{path: path, lock: NewFileLock(path), backup: backup}
}

// Show returns the current memory content, or "" if the file is
// missing.
func (m *MemoryStore) Show() (string, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// EditCount returns the number of mutations successfully applied so
// far. The MemoryAgent snapshots this before and after its loop to
// report whether the invocation changed memory.
func (m *MemoryStore) EditCount() int64 {
	return atomic.LoadInt64(&m.editCount)
}

// ReplaceAll replaces every occurrence of search with replacement and
// returns the number of occurrences replaced. 0 matches is a legal,
// successful no-op — it still counts as a mutation call against the
// agent's step budget, but it does not bump editCount since the file
// content didn't actually change.
func (m *MemoryStore) ReplaceAll(search, replacement string, now time.Time) (int, error) {
	var count int
	err := m.lock.WithLock(os.O_RDWR, 0640, func(f *os.File) error {
		current, err := m.Show()
		if err != nil {
			return err
		}
		count = strings.Count(current, search)
		if count == 0 {
			return nil
		}
		updated := strings.ReplaceAll(current, search, replacement)
		return m.writeLocked(f, updated, now)
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		atomic.AddInt64(&m.editCount, 1)
	}
	return count, nil
}

// Append adds a blank line followed by block to the end of the file.
func (m *MemoryStore) Append(block string, now time.Time) error {
	err := m.lock.WithLock(os.O_RDWR, 0640, func(f *os.File) error {
		current, err := m.Show()
		if err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString(current)
		if len(current) > 0 && !strings.HasSuffix(current, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(block)
		if !strings.HasSuffix(block, "\n") {
			b.WriteString("\n")
		}
		return m.writeLocked(f, b.String(), now)
	})
	if err != nil {
		return err
	}
	atomic.AddInt64(&m.editCount, 1)
	return nil
}

// Reset truncates the memory file to empty.
func (m *MemoryStore) Reset(now time.Time) error {
	err := m.lock.WithLock(os.O_RDWR, 0640, func(f *os.File) error {
		return m.writeLocked(f, "", now)
	})
	if err != nil {
		return err
	}
	atomic.AddInt64(&m.editCount, 1)
	return nil
}

// writeLocked performs the atomic write-temp-then-rename under an
// already-held lock, after snapshotting the pre-image.
func (m *MemoryStore) writeLocked(_ *os.File, newText string, now time.Time) error {
	if err := m.backup.SnapshotBeforeWrite(m.path, now); err != nil {
		return err
	}
	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".memory-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(newText); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0640); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, m.path)
}
