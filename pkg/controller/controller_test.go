package controller

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nlco-run/nlco/pkg/contextbuilder"
	"github.com/nlco-run/nlco/pkg/llm"
	"github.com/nlco-run/nlco/pkg/refiner"
	"github.com/nlco-run/nlco/pkg/store"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func newController(t *testing.T, responses ...llm.Result) (*Controller, *store.ArtifactStore, *store.ModelLog) {
	dir := t.TempDir()
	backup := store.NewBackupRotator(filepath.Join(dir, "backups"))
	constraints := store.NewConstraintsLog(filepath.Join(dir, "constraints.md"), backup)
	artifact := store.NewArtifactStore(filepath.Join(dir, "artifact.md"), backup)
	memory := store.NewMemoryStore(filepath.Join(dir, "memory.md"), backup)
	modelLog := store.NewModelLog(filepath.Join(dir, "model_log.jsonl"))

	builder := contextbuilder.New(constraints, artifact, memory)
	client := llm.NewFakeClient(responses...)
	ref := refiner.New(client)

	c := New(constraints, artifact, modelLog, builder, ref)
	c.Config.MemoryEnabled = false
	c.Clock = fixedClock{t: time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)}
	return c, artifact, modelLog
}

func TestController_RunBurst_FirstRunIteration(t *testing.T) {
	c, artifact, _ := newController(t, llm.Result{Text: "hello world"})

	records, err := c.RunBurst(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Accepted)

	text, err := artifact.Read()
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestController_RunBurst_StopsAfterTwoUnchanged(t *testing.T) {
	c, _, _ := newController(t,
		llm.Result{Text: "same"},
		llm.Result{Text: "same"},
		llm.Result{Text: "same"},
	)
	c.Config.MaxIters = 3

	records, err := c.RunBurst(context.Background(), TriggerChange)
	require.NoError(t, err)
	// First iteration always changes the artifact from "" to "same";
	// the second and third see no change, so the stop-rule counter
	// reaches 2 on the third iteration, which is also the MaxIters cap.
	require.LessOrEqual(t, len(records), 3)
	require.Equal(t, 2, c.StopRuleCounter())

	require.True(t, records[0].Accepted)
	for _, rec := range records[1:] {
		require.False(t, rec.Accepted)
	}
}

func TestController_RunBurst_TickRunsExactlyOneIteration(t *testing.T) {
	c, _, _ := newController(t, llm.Result{Text: "v1"}, llm.Result{Text: "v2"})

	records, err := c.RunBurst(context.Background(), TriggerTick)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestController_RunBurst_RefineErrorStopsBurstWithoutWrite(t *testing.T) {
	dir := t.TempDir()
	backup := store.NewBackupRotator(filepath.Join(dir, "backups"))
	constraints := store.NewConstraintsLog(filepath.Join(dir, "constraints.md"), backup)
	artifact := store.NewArtifactStore(filepath.Join(dir, "artifact.md"), backup)
	memory := store.NewMemoryStore(filepath.Join(dir, "memory.md"), backup)
	modelLog := store.NewModelLog(filepath.Join(dir, "model_log.jsonl"))
	builder := contextbuilder.New(constraints, artifact, memory)

	client := &llm.FakeClient{Err: context.DeadlineExceeded}
	ref := refiner.New(client)
	c := New(constraints, artifact, modelLog, builder, ref)
	c.Config.MemoryEnabled = false
	c.Config.MaxIters = 3

	records, err := c.RunBurst(context.Background(), TriggerChange)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.False(t, records[0].Accepted)

	text, err := artifact.Read()
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestController_RunBurst_EmptyOutputNotAcceptedAndArtifactPreserved(t *testing.T) {
	dir := t.TempDir()
	backup := store.NewBackupRotator(filepath.Join(dir, "backups"))
	constraints := store.NewConstraintsLog(filepath.Join(dir, "constraints.md"), backup)
	artifact := store.NewArtifactStore(filepath.Join(dir, "artifact.md"), backup)
	memory := store.NewMemoryStore(filepath.Join(dir, "memory.md"), backup)
	modelLog := store.NewModelLog(filepath.Join(dir, "model_log.jsonl"))
	builder := contextbuilder.New(constraints, artifact, memory)

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	require.NoError(t, artifact.Write("previously good artifact", now))

	client := llm.NewFakeClient(llm.Result{Text: "   "})
	ref := refiner.New(client)
	c := New(constraints, artifact, modelLog, builder, ref)
	c.Config.MemoryEnabled = false

	records, err := c.RunBurst(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.False(t, records[0].Accepted)

	text, err := artifact.Read()
	require.NoError(t, err)
	require.Equal(t, "previously good artifact", text)
}

func TestController_RunIteration_WritesStatusSnapshot(t *testing.T) {
	c, _, _ := newController(t, llm.Result{Text: "hello"})
	dir := t.TempDir()
	statusStore := store.NewStatusStore(filepath.Join(dir, "status.json"))
	c.Status = statusStore

	_, err := c.RunBurst(context.Background(), TriggerManual)
	require.NoError(t, err)

	snap, err := statusStore.Read()
	require.NoError(t, err)
	require.Equal(t, "MANUAL", snap.LastTrigger)
	require.True(t, snap.LastAccepted)
	require.False(t, snap.UpdatedAt.IsZero())
}
