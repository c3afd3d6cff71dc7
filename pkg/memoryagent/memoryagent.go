// Package memoryagent implements the bounded ReAct loop that mutates
// the persistent memory store through four named tools: show,
// replace_all, append, reset. Tool calls are routed by name through a
// switch in Invoke's tool handler.
package memoryagent

import (
	"context"
	"fmt"
	"time"

	"github.com/nlco-run/nlco/pkg/llm"
	"github.com/nlco-run/nlco/pkg/store"
)

// DefaultStepBudget is K, the maximum number of tool calls per
// invocation, per spec §4.9.
const DefaultStepBudget = 4

const (
	toolShow       = "show"
	toolReplaceAll = "replace_all"
	toolAppend     = "append"
	toolReset      = "reset"
)

// Agent runs the bounded memory-mutation loop.
type Agent struct {
	Client     llm.Client
	Memory     *store.MemoryStore
	ShortTerm  *store.ShortTermMemory
	StepBudget int
}

// New returns an Agent with the default step budget. Set StepBudget on
// the returned value to override it.
func New(client llm.Client, memory *store.MemoryStore, shortTerm *store.ShortTermMemory) *Agent {
	return &Agent{Client: client, Memory: memory, ShortTerm: shortTerm, StepBudget: DefaultStepBudget}
}

// Outcome is what one Invoke call produced.
type Outcome struct {
	Summary string
	Changed bool
}

func tools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolShow,
			Description: "Return the full current contents of the persistent memory file.",
			Schema:      map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        toolReplaceAll,
			Description: "Replace every occurrence of a literal substring in memory with a replacement.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"search":      map[string]any{"type": "string"},
					"replacement": map[string]any{"type": "string"},
				},
				"required": []string{"search", "replacement"},
			},
		},
		{
			Name:        toolAppend,
			Description: "Append a new block to memory, preceded by a blank line.",
			Schema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"block": map[string]any{"type": "string"}},
				"required":   []string{"block"},
			},
		},
		{
			Name:        toolReset,
			Description: "Truncate memory to empty. Use only when explicitly instructed to start over.",
			Schema:      map[string]any{"type": "object", "properties": map[string]any{}},
		},
	}
}

// Invoke runs the bounded loop with constraints and context as the
// prompt inputs, on the support ("fast") endpoint. Writes to memory
// are committed immediately by the underlying store, and a short-term
// breadcrumb is recorded per mutation as a side effect.
func (a *Agent) Invoke(ctx context.Context, constraints, promptContext string) (Outcome, error) {
	budget := a.StepBudget
	if budget <= 0 {
		budget = DefaultStepBudget
	}

	startCount := a.Memory.EditCount()

	handler := func(ctx context.Context, call llm.ToolCall) (string, error) {
		now := time.Now()
		switch call.Name {
		case toolShow:
			return a.Memory.Show()

		case toolReplaceAll:
			search, _ := call.Args["search"].(string)
			replacement, _ := call.Args["replacement"].(string)
			n, err := a.Memory.ReplaceAll(search, replacement, now)
			if err != nil {
				return "", err
			}
			if n > 0 {
				a.breadcrumb(fmt.Sprintf("replace_all(%q -> %q): %d occurrence(s)", search, replacement, n), now)
			}
			return fmt.Sprintf("%d occurrence(s) replaced", n), nil

		case toolAppend:
			block, _ := call.Args["block"].(string)
			if err := a.Memory.Append(block, now); err != nil {
				return "", err
			}
			a.breadcrumb("append: "+summarize(block), now)
			return "appended", nil

		case toolReset:
			if err := a.Memory.Reset(now); err != nil {
				return "", err
			}
			a.breadcrumb("reset memory to empty", now)
			return "reset", nil

		default:
			return "", fmt.Errorf("unknown memory tool %q", call.Name)
		}
	}

	prompt := fmt.Sprintf("Constraints:\n%s\n\nContext:\n%s\n\nReview memory and mutate it if, and only if, something durable needs to be recorded, corrected, or removed.", constraints, promptContext)

	result, err := a.Client.Call(ctx, llm.Support, prompt, tools(), handler, budget)
	if err != nil {
		return Outcome{}, err
	}

	changed := a.Memory.EditCount() > startCount
	return Outcome{Summary: result.Text, Changed: changed}, nil
}

func (a *Agent) breadcrumb(line string, now time.Time) {
	if a.ShortTerm == nil {
		return
	}
	_ = a.ShortTerm.Append(line, now)
}

func summarize(block string) string {
	const max = 80
	if len(block) <= max {
		return block
	}
	return block[:max] + "..."
}
