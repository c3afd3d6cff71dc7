package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusStore_Read_MissingFileReturnsZeroValue(t *testing.T) {
	dir := t.TempDir()
	s := NewStatusStore(filepath.Join(dir, "status.json"))

	snap, err := s.Read()
	require.NoError(t, err)
	require.Equal(t, StatusSnapshot{}, snap)
}

func TestStatusStore_Write_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := NewStatusStore(filepath.Join(dir, "status.json"))
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	s.Write(StatusSnapshot{
		UpdatedAt:       now,
		LastTrigger:     "CHANGE",
		LastAccepted:    true,
		StopRuleCounter: 1,
	})

	snap, err := s.Read()
	require.NoError(t, err)
	require.True(t, snap.UpdatedAt.Equal(now))
	require.Equal(t, "CHANGE", snap.LastTrigger)
	require.True(t, snap.LastAccepted)
	require.Equal(t, 1, snap.StopRuleCounter)
}

func TestStatusStore_Write_OverwritesPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	s := NewStatusStore(filepath.Join(dir, "status.json"))
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	s.Write(StatusSnapshot{LastTrigger: "TICK", StopRuleCounter: 0, UpdatedAt: now})
	s.Write(StatusSnapshot{LastTrigger: "CHANGE", StopRuleCounter: 2, UpdatedAt: now.Add(time.Hour)})

	snap, err := s.Read()
	require.NoError(t, err)
	require.Equal(t, "CHANGE", snap.LastTrigger)
	require.Equal(t, 2, snap.StopRuleCounter)
}
