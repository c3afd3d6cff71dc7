package store

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// ModelLogRecord is one line of the append-only model-output JSONL.
type ModelLogRecord struct {
	Timestamp time.Time `json:"ts"`
	Stage     string    `json:"stage"`
	Output    string    `json:"output"`
	Reasoning *string   `json:"reasoning"`
}

// ModelLog is the append-only JSONL sink for every LM output. Write
// failures are swallowed and logged once per call — the spec requires
// that an iteration never fails because this side-log couldn't be
// written.
type ModelLog struct {
	path string
	lock *FileLock
}

// NewModelLog returns a log at path.
func NewModelLog(path string) *ModelLog {
	return &ModelLog{path: path, lock: NewFileLock(path)}
}

// Record appends one JSON line for an LM output. reasoning may be nil.
// Errors are caught and logged, never returned, per the ModelLog
// failure policy in the spec's error-handling table.
func (m *ModelLog) Record(stage, output string, reasoning *string, now time.Time) {
	rec := ModelLogRecord{Timestamp: now, Stage: stage, Output: output, Reasoning: reasoning}
	line, err := json.Marshal(rec)
	if err != nil {
		log.Printf("model log: marshal failed, dropping record: %v", err)
		return
	}

	err = m.lock.WithLock(os.O_RDWR|os.O_APPEND, 0640, func(f *os.File) error {
		_, err := f.Write(append(line, '\n'))
		return err
	})
	if err != nil {
		log.Printf("model log: write failed, continuing without it: %v", err)
	}
}
