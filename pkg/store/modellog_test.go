package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestModelLog_Record_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	ml := NewModelLog(filepath.Join(dir, "model_log.jsonl"))
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	ml.Record("refiner", "hello world", nil, now)

	f, err := os.Open(filepath.Join(dir, "model_log.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var rec ModelLogRecord
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
	require.Equal(t, "refiner", rec.Stage)
	require.Equal(t, "hello world", rec.Output)
	require.Nil(t, rec.Reasoning)
	require.False(t, scanner.Scan())
}

func TestModelLog_Record_MultipleLines(t *testing.T) {
	dir := t.TempDir()
	ml := NewModelLog(filepath.Join(dir, "model_log.jsonl"))
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	reasoning := "because X"

	ml.Record("refiner", "first", nil, now)
	ml.Record("refiner", "second", &reasoning, now.Add(time.Minute))

	f, err := os.Open(filepath.Join(dir, "model_log.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 2)

	var second ModelLogRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.Equal(t, "second", second.Output)
	require.NotNil(t, second.Reasoning)
	require.Equal(t, "because X", *second.Reasoning)
}
