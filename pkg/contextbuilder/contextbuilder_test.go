package contextbuilder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nlco-run/nlco/pkg/store"
	"github.com/stretchr/testify/require"
)

func newStores(t *testing.T) (*store.ConstraintsLog, *store.ArtifactStore, *store.MemoryStore) {
	dir := t.TempDir()
	backup := store.NewBackupRotator(filepath.Join(dir, "backups"))
	return store.NewConstraintsLog(filepath.Join(dir, "constraints.md"), backup),
		store.NewArtifactStore(filepath.Join(dir, "artifact.md"), backup),
		store.NewMemoryStore(filepath.Join(dir, "memory.md"), backup)
}

func TestBuilder_Assemble_EmptyStores(t *testing.T) {
	constraints, artifact, memory := newStores(t)
	b := New(constraints, artifact, memory)

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	got, err := b.Assemble(now)
	require.NoError(t, err)
	require.Empty(t, got.Constraints)
	require.Contains(t, got.Context, "Datetime: 2026-07-31 10:00:00 (Friday)")
}

func TestBuilder_Assemble_IncludesArtifactAndMemory(t *testing.T) {
	constraints, artifact, memory := newStores(t)
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	require.NoError(t, constraints.AppendLine("a constraint", now))
	require.NoError(t, artifact.Write("the artifact text", now))
	require.NoError(t, memory.Append("a memory block", now))

	b := New(constraints, artifact, memory)
	got, err := b.Assemble(now)
	require.NoError(t, err)

	require.Contains(t, got.Constraints, "a constraint")
	require.Contains(t, got.Context, "the artifact text")
	require.Contains(t, got.Context, "a memory block")
}

func TestBuilder_Assemble_SideInputAppearsLast(t *testing.T) {
	constraints, artifact, memory := newStores(t)
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	require.NoError(t, artifact.Write("artifact body", now))

	side := NewFileSideInput("Last 72h events", "")
	b := New(constraints, artifact, memory, side)
	got, err := b.Assemble(now)
	require.NoError(t, err)

	// Omitted when the side input has no path configured.
	require.NotContains(t, got.Context, "Last 72h events")

	sidePath := filepath.Join(t.TempDir(), "events.txt")
	require.NoError(t, os.WriteFile(sidePath, []byte("went running\n"), 0640))
	b = New(constraints, artifact, memory, NewFileSideInput("Last 72h events", sidePath))
	got, err = b.Assemble(now)
	require.NoError(t, err)

	// With a file configured, the section comes after memory, at the end.
	require.True(t, strings.HasSuffix(got.Context, "## Last 72h events\n\nwent running"))
	require.Greater(t, strings.Index(got.Context, "## Last 72h events"), strings.Index(got.Context, "## Memory (read-only)"))
}

func TestBuilder_Assemble_ConstraintsFrozenSnapshot(t *testing.T) {
	constraints, artifact, memory := newStores(t)
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	require.NoError(t, constraints.AppendLine("first", now))

	b := New(constraints, artifact, memory)
	got, err := b.Assemble(now)
	require.NoError(t, err)

	// A later append must not retroactively change an already-assembled
	// snapshot.
	require.NoError(t, constraints.AppendLine("second", now.Add(time.Minute)))
	require.NotContains(t, got.Constraints, "second")
}
