// Package refiner implements the single-call artifact refinement
// step: one LM call on the primary endpoint producing the next
// artifact candidate.
package refiner

import (
	"context"
	"fmt"
	"time"

	"github.com/nlco-run/nlco/pkg/llm"
)

// SystemState is the small piece of in-memory state materialized each
// iteration from the artifact's last-modified time.
type SystemState struct {
	LastArtifactUpdate *time.Time
}

func (s SystemState) String() string {
	if s.LastArtifactUpdate == nil {
		return "last_artifact_update: (none)"
	}
	return fmt.Sprintf("last_artifact_update: %s", s.LastArtifactUpdate.Format(time.RFC3339))
}

// Output is what one Refine call produced.
type Output struct {
	RefinedArtifact string
	Reasoning       *string
}

// Refiner wraps the primary LM endpoint for the refine step.
type Refiner struct {
	Client llm.Client
}

// New returns a Refiner over client.
func New(client llm.Client) *Refiner {
	return &Refiner{Client: client}
}

// Refine makes exactly one call to the primary endpoint with
// constraints, systemState, and context as ordered prompt inputs. No
// tools are offered — this is a plain generation call, not a ReAct
// loop. The caller is responsible for recording the result via the
// model log; Refine itself only returns it.
func (r *Refiner) Refine(ctx context.Context, constraints string, systemState SystemState, promptContext string) (Output, error) {
	prompt := fmt.Sprintf(
		"Constraints:\n%s\n\nSystem state:\n%s\n\nContext:\n%s\n\nProduce the full text of the next refined artifact.",
		constraints, systemState.String(), promptContext,
	)

	result, err := r.Client.Call(ctx, llm.Primary, prompt, nil, nil, 0)
	if err != nil {
		return Output{}, err
	}
	return Output{RefinedArtifact: result.Text, Reasoning: result.Reasoning}, nil
}
