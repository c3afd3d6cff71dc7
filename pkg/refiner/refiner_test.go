package refiner

import (
	"context"
	"testing"
	"time"

	"github.com/nlco-run/nlco/pkg/llm"
	"github.com/stretchr/testify/require"
)

func TestRefiner_Refine_ReturnsLMOutput(t *testing.T) {
	reasoning := "thought process"
	client := llm.NewFakeClient(llm.Result{Text: "new artifact text", Reasoning: &reasoning})
	r := New(client)

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	out, err := r.Refine(context.Background(), "constraints", SystemState{LastArtifactUpdate: &now}, "context")
	require.NoError(t, err)
	require.Equal(t, "new artifact text", out.RefinedArtifact)
	require.NotNil(t, out.Reasoning)
	require.Equal(t, "thought process", *out.Reasoning)
}

func TestRefiner_Refine_PropagatesError(t *testing.T) {
	client := &llm.FakeClient{Err: context.DeadlineExceeded}
	r := New(client)

	_, err := r.Refine(context.Background(), "", SystemState{}, "")
	require.Error(t, err)
}

func TestSystemState_String_NilLastUpdate(t *testing.T) {
	require.Equal(t, "last_artifact_update: (none)", SystemState{}.String())
}
