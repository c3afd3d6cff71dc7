package store

import (
	"os"
	"path/filepath"
	"time"
)

// ArtifactStore holds the single current best refined document.
// Writes are atomic: a sibling temp file is written and renamed over
// the target, so readers never observe a partial write.
type ArtifactStore struct {
	path   string
	lock   *FileLock
	backup *BackupRotator
}

// NewArtifactStore returns a store at path, backed up via backup
// before every write.
func NewArtifactStore(path string, backup *BackupRotator) *ArtifactStore {
	return &ArtifactStore{path: path, lock: NewFileLock(path), backup: backup}
}

// Read returns the current artifact text, or "" if it doesn't exist
// yet (the "missing files" boundary behavior).
func (a *ArtifactStore) Read() (string, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// Write replaces the artifact's contents atomically under the lock,
// snapshotting the pre-image first.
func (a *ArtifactStore) Write(newText string, now time.Time) error {
	return a.lock.WithLock(os.O_RDONLY, 0640, func(_ *os.File) error {
		if err := a.backup.SnapshotBeforeWrite(a.path, now); err != nil {
			return err
		}

		dir := filepath.Dir(a.path)
		tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
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
		return os.Rename(tmpPath, a.path)
	})
}

// LastModified returns the artifact file's mtime, or the zero Time if
// it doesn't exist.
func (a *ArtifactStore) LastModified() (time.Time, error) {
	info, err := os.Stat(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
