// Package llm defines the stateless LM-call interface the rest of the
// engine depends on, plus the tool-invocation protocol the
// MemoryAgent's ReAct loop drives. The concrete provider behind this
// interface is an external collaborator (see the project's config for
// which one is wired at runtime); this package only specifies the
// contract.
package llm

import "context"

// Endpoint names one of the two LM roles the engine uses.
type Endpoint string

const (
	// Primary is the "reasoner" endpoint: large token budget, may
	// return a reasoning trace alongside its answer. Used by Refiner.
	Primary Endpoint = "primary"

	// Support is the "fast" endpoint: small budget, temperature 0, no
	// reasoning trace. Used by MemoryAgent's tool-calling loop.
	Support Endpoint = "support"
)

// Default token budgets per endpoint, per spec §4.7.
const (
	DefaultPrimaryTokenBudget = 40000
	DefaultSupportTokenBudget = 4000
)

// Tool is one named function the model may invoke during a tool-
// calling call. Schema is a JSON-Schema-shaped description of its
// arguments, passed through to the provider unmodified.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolCall is one invocation the model requested.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Result is the outcome of a Call: the model's final text answer, and
// an optional reasoning trace (nil when the provider returned none).
type Result struct {
	Text      string
	Reasoning *string
}

// ToolHandler executes one tool call and returns an observation string
// to feed back to the model.
type ToolHandler func(ctx context.Context, call ToolCall) (string, error)

// Client is the stateless LM collaborator the controller depends on.
// Implementations must honor ctx cancellation by aborting the
// in-flight call and discarding any partial text, per spec §4.11's
// cancellation semantics.
type Client interface {
	// Call invokes endpoint with prompt. If tools is non-empty, the
	// implementation runs the tool-invocation protocol: on each model
	// turn that requests a tool call, it dispatches through handler and
	// feeds the observation back, until the model returns a final
	// answer or maxSteps tool calls have been made.
	Call(ctx context.Context, endpoint Endpoint, prompt string, tools []Tool, handler ToolHandler, maxSteps int) (Result, error)
}
