package store

import (
	"os"
	"time"
)

// ShortTermMemory is the append-only breadcrumb log written as a side
// effect of sub-agent mutations. The core never reads it back.
type ShortTermMemory struct {
	path string
	lock *FileLock
}

// NewShortTermMemory returns a breadcrumb log at path.
func NewShortTermMemory(path string) *ShortTermMemory {
	return &ShortTermMemory{path: path, lock: NewFileLock(path)}
}

// Append writes one breadcrumb line, timestamped, under the lock.
func (s *ShortTermMemory) Append(line string, now time.Time) error {
	return s.lock.WithLock(os.O_RDWR|os.O_APPEND, 0640, func(f *os.File) error {
		_, err := f.WriteString(now.Format(time.RFC3339) + " " + line + "\n")
		return err
	})
}
