package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestArtifactStore_ReadMissingReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	a := NewArtifactStore(filepath.Join(dir, "artifact.md"), NewBackupRotator(filepath.Join(dir, "backups")))

	text, err := a.Read()
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestArtifactStore_WriteThenRead(t *testing.T) {
	dir := t.TempDir()
	a := NewArtifactStore(filepath.Join(dir, "artifact.md"), NewBackupRotator(filepath.Join(dir, "backups")))
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	require.NoError(t, a.Write("hello world", now))
	text, err := a.Read()
	require.NoError(t, err)
	require.Equal(t, "hello world", text)

	mtime, err := a.LastModified()
	require.NoError(t, err)
	require.False(t, mtime.IsZero())
}

func TestArtifactStore_WriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	a := NewArtifactStore(filepath.Join(dir, "artifact.md"), NewBackupRotator(filepath.Join(dir, "backups")))
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	require.NoError(t, a.Write("v1", now))
	require.NoError(t, a.Write("v2", now))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp")
	}
}
