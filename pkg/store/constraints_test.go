package store

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConstraintsLog_AppendLine_InsertsHeadingOnce(t *testing.T) {
	dir := t.TempDir()
	log := NewConstraintsLog(filepath.Join(dir, "constraints.md"), NewBackupRotator(filepath.Join(dir, "backups")))

	now := time.Date(2026, 7, 31, 14, 7, 0, 0, time.UTC)
	require.NoError(t, log.AppendLine("pick up milk", now))
	require.NoError(t, log.AppendLine("call dentist", now.Add(10*time.Minute)))

	content, err := log.Read()
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(content, "# 2026-07-31"))
	require.Contains(t, content, "1407 pick up milk")
	require.Contains(t, content, "1417 call dentist")
	require.True(t, strings.HasSuffix(content, "\n"))
}

func TestConstraintsLog_AppendLine_NewDayInsertsNewHeading(t *testing.T) {
	dir := t.TempDir()
	log := NewConstraintsLog(filepath.Join(dir, "constraints.md"), NewBackupRotator(filepath.Join(dir, "backups")))

	day1 := time.Date(2026, 7, 31, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 1, 0, 5, 0, 0, time.UTC)
	require.NoError(t, log.AppendLine("late night thought", day1))
	require.NoError(t, log.AppendLine("morning thought", day2))

	content, err := log.Read()
	require.NoError(t, err)
	require.Contains(t, content, "# 2026-07-31")
	require.Contains(t, content, "# 2026-08-01")
}

func TestConstraintsLog_ConcurrentAppends_NoCorruption(t *testing.T) {
	dir := t.TempDir()
	log := NewConstraintsLog(filepath.Join(dir, "constraints.md"), NewBackupRotator(filepath.Join(dir, "backups")))
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		require.NoError(t, log.AppendLine("A", now))
	}()
	go func() {
		defer wg.Done()
		require.NoError(t, log.AppendLine("B", now))
	}()
	wg.Wait()

	content, err := log.Read()
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(content, "# 2026-07-31"))
	require.Contains(t, content, " A\n")
	require.Contains(t, content, " B\n")
}

func TestConstraintsLog_Tail_ReturnsWholeFileWhenShort(t *testing.T) {
	dir := t.TempDir()
	log := NewConstraintsLog(filepath.Join(dir, "constraints.md"), NewBackupRotator(filepath.Join(dir, "backups")))
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	require.NoError(t, log.AppendLine("only one", now))

	tail, err := log.Tail(200)
	require.NoError(t, err)
	require.Contains(t, tail, "only one")
}

func TestConstraintsLog_Hash_ChangesOnAppend(t *testing.T) {
	dir := t.TempDir()
	log := NewConstraintsLog(filepath.Join(dir, "constraints.md"), NewBackupRotator(filepath.Join(dir, "backups")))
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	h1, err := log.Hash()
	require.NoError(t, err)

	require.NoError(t, log.AppendLine("something", now))
	h2, err := log.Hash()
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
}
