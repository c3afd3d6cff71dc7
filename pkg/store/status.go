package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"
)

// StatusSnapshot is the controller's stop-rule counter plus the last
// iteration's trigger and outcome, mirrored to disk so a separate
// one-shot process — `nlco status` — can observe the running engine's
// progress without a socket or IPC channel of its own.
type StatusSnapshot struct {
	UpdatedAt       time.Time `json:"updated_at"`
	LastTrigger     string    `json:"last_trigger"`
	LastAccepted    bool      `json:"last_accepted"`
	StopRuleCounter int       `json:"stop_rule_counter"`
}

// StatusStore reads/writes the engine's status snapshot file. Writes
// are atomic (write-temp-then-rename) and best-effort: a write
// failure is logged and swallowed, the same policy as ModelLog,
// because a missed status snapshot must never fail an iteration.
type StatusStore struct {
	path string
	lock *FileLock
}

// NewStatusStore returns a status snapshot store at path.
func NewStatusStore(path string) *StatusStore {
	return &StatusStore{path: path, lock: NewFileLock(path)}
}

// Write atomically replaces the snapshot file with snap. Errors are
// caught and logged, never returned — a status snapshot is purely
// observational and must not affect the iteration that produced it.
func (s *StatusStore) Write(snap StatusSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("status snapshot: marshal failed, dropping: %v", err)
		return
	}

	err = s.lock.WithLock(os.O_RDONLY, 0640, func(_ *os.File) error {
		dir := filepath.Dir(s.path)
		tmp, err := os.CreateTemp(dir, ".status-*.tmp")
		if err != nil {
			return err
		}
		tmpPath := tmp.Name()
		if _, err := tmp.Write(data); err != nil {
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
		return os.Rename(tmpPath, s.path)
	})
	if err != nil {
		log.Printf("status snapshot: write failed, continuing without it: %v", err)
	}
}

// Read returns the last-written snapshot, or the zero value if no
// snapshot file exists yet at this path. The file is kept across
// engine restarts, so after a restart Read returns the previous run's
// last snapshot until a new iteration overwrites it.
func (s *StatusStore) Read() (StatusSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusSnapshot{}, nil
		}
		return StatusSnapshot{}, err
	}
	var snap StatusSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return StatusSnapshot{}, err
	}
	return snap, nil
}
