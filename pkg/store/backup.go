package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// BackupRotator snapshots a file into hourly/daily/weekly buckets,
// writing at most one snapshot per (bucket, period, source file)
// tuple. The first write to a bucket in a given period wins; later
// writes in the same period are no-ops.
type BackupRotator struct {
	root string
	mu   sync.Mutex
}

// NewBackupRotator returns a rotator rooted at root (created lazily on
// first snapshot attempt, per the spec's "boundary behavior").
func NewBackupRotator(root string) *BackupRotator {
	return &BackupRotator{root: root}
}

type bucket struct {
	name string
	key  func(t time.Time) string
}

var buckets = []bucket{
	{"hourly", func(t time.Time) string { return t.Format("2006-01-02-15") }},
	{"daily", func(t time.Time) string { return t.Format("2006-01-02") }},
	{"weekly", func(t time.Time) string {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}},
}

// SnapshotBeforeWrite is called immediately before a mutating write to
// srcPath. It copies the file's current (pre-write) bytes into each
// bucket that doesn't yet have a snapshot for the current period. If
// srcPath does not yet exist, it is a no-op for every bucket — there
// is nothing to preserve.
func (r *BackupRotator) SnapshotBeforeWrite(srcPath string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(srcPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	for _, b := range buckets {
		dir := filepath.Join(r.root, b.name)
		target := filepath.Join(dir, fmt.Sprintf("%s-%s%s", stem, b.key(now), ext))

		if _, err := os.Stat(target); err == nil {
			continue // already snapshotted this period
		} else if !os.IsNotExist(err) {
			return err
		}

		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
		if err := copyFileExact(srcPath, target); err != nil {
			return err
		}
	}
	return nil
}

func copyFileExact(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
