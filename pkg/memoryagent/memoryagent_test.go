package memoryagent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nlco-run/nlco/pkg/llm"
	"github.com/nlco-run/nlco/pkg/store"
	"github.com/stretchr/testify/require"
)

func newAgent(t *testing.T) (*Agent, *store.MemoryStore) {
	dir := t.TempDir()
	backup := store.NewBackupRotator(filepath.Join(dir, "backups"))
	memory := store.NewMemoryStore(filepath.Join(dir, "memory.md"), backup)
	shortTerm := store.NewShortTermMemory(filepath.Join(dir, "short_term_memory.md"))
	client := &llm.FakeClient{}
	return New(client, memory, shortTerm), memory
}

func TestAgent_Invoke_NoToolCallsIsNotChanged(t *testing.T) {
	agent, _ := newAgent(t)
	agent.Client.(*llm.FakeClient).Responses = []llm.Result{{Text: "nothing to change"}}

	outcome, err := agent.Invoke(context.Background(), "", "")
	require.NoError(t, err)
	require.False(t, outcome.Changed)
	require.Equal(t, "nothing to change", outcome.Summary)
}

func TestAgent_Invoke_AppendMutatesAndLeavesBreadcrumb(t *testing.T) {
	agent, memory := newAgent(t)
	shortTermPath := filepath.Join(t.TempDir(), "short_term_memory.md")
	agent.ShortTerm = store.NewShortTermMemory(shortTermPath)
	fake := agent.Client.(*llm.FakeClient)
	fake.ToolCalls = []llm.ToolCall{
		{Name: toolAppend, Args: map[string]any{"block": "a new insight"}},
	}
	fake.Responses = []llm.Result{{Text: "recorded a new insight"}}

	outcome, err := agent.Invoke(context.Background(), "constraints", "context")
	require.NoError(t, err)
	require.True(t, outcome.Changed)

	text, err := memory.Show()
	require.NoError(t, err)
	require.Contains(t, text, "a new insight")

	crumbs, err := os.ReadFile(shortTermPath)
	require.NoError(t, err)
	require.Contains(t, string(crumbs), "append: a new insight")
}

func TestAgent_Invoke_ReplaceAllZeroMatchesDoesNotCountAsChanged(t *testing.T) {
	agent, _ := newAgent(t)
	fake := agent.Client.(*llm.FakeClient)
	fake.ToolCalls = []llm.ToolCall{
		{Name: toolReplaceAll, Args: map[string]any{"search": "absent", "replacement": "x"}},
	}
	fake.Responses = []llm.Result{{Text: "no matches"}}

	outcome, err := agent.Invoke(context.Background(), "", "")
	require.NoError(t, err)
	require.False(t, outcome.Changed)
}

func TestAgent_Invoke_RespectsStepBudget(t *testing.T) {
	agent, memory := newAgent(t)
	agent.StepBudget = 1
	fake := agent.Client.(*llm.FakeClient)
	fake.ToolCalls = []llm.ToolCall{
		{Name: toolAppend, Args: map[string]any{"block": "one"}},
		{Name: toolAppend, Args: map[string]any{"block": "two"}},
	}
	fake.Responses = []llm.Result{{Text: "done"}}

	_, err := agent.Invoke(context.Background(), "", "")
	require.NoError(t, err)

	// Only the first tool call fits in a budget of 1.
	require.Equal(t, int64(1), memory.EditCount())
	text, err := memory.Show()
	require.NoError(t, err)
	require.Contains(t, text, "one")
	require.NotContains(t, text, "two")
}
