// Package contextbuilder assembles the two prompt inputs every
// iteration needs: a stable constraints string and a variable context
// string, ordered so that cache-friendly prefixes survive across
// iterations.
package contextbuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/nlco-run/nlco/pkg/store"
)

// SideInput supplies an optional read-only section appended to the
// end of context, after everything else, so a change in it never
// invalidates the stable prompt prefix. The time-tracking "last-72h
// events" input (gated by NLCO_TIMEW) implements this.
type SideInput interface {
	// Name is the section heading, e.g. "Last 72h events".
	Name() string
	// Render returns the section body, or "" to omit the section
	// entirely for this iteration.
	Render(now time.Time) (string, error)
}

// Builder assembles constraints/context from the shared stores.
type Builder struct {
	Constraints *store.ConstraintsLog
	Artifact    *store.ArtifactStore
	Memory      *store.MemoryStore
	SideInputs  []SideInput
}

// New returns a Builder over the given stores. sideInputs may be nil
// or empty.
func New(constraints *store.ConstraintsLog, artifact *store.ArtifactStore, memory *store.MemoryStore, sideInputs ...SideInput) *Builder {
	return &Builder{Constraints: constraints, Artifact: artifact, Memory: memory, SideInputs: sideInputs}
}

// Assembled holds the two strings produced for one iteration.
type Assembled struct {
	Constraints string
	Context     string
}

// Assemble reads all stores once and freezes the result for the
// remainder of the iteration — callers must not re-read constraints
// mid-iteration; this snapshot is the contract.
func (b *Builder) Assemble(now time.Time) (Assembled, error) {
	constraints, err := b.Constraints.Read()
	if err != nil {
		return Assembled{}, err
	}

	artifact, err := b.Artifact.Read()
	if err != nil {
		return Assembled{}, err
	}

	memory, err := b.Memory.Show()
	if err != nil {
		return Assembled{}, err
	}

	var ctx strings.Builder
	fmt.Fprintf(&ctx, "Datetime: %s\n\n", now.Format("2006-01-02 15:04:05 (Monday)"))
	ctx.WriteString("## Current artifact\n\n")
	ctx.WriteString(artifact)
	ctx.WriteString("\n\n## Memory (read-only)\n\n")
	ctx.WriteString(memory)

	// Variable, iteration-specific side sections go last, after the
	// artifact and memory, so a change in a side input only alters the
	// tail of context. The datetime line leads context and changes on
	// every iteration.
	for _, side := range b.SideInputs {
		body, err := side.Render(now)
		if err != nil {
			return Assembled{}, err
		}
		if body == "" {
			continue
		}
		fmt.Fprintf(&ctx, "\n\n## %s\n\n%s", side.Name(), body)
	}

	return Assembled{Constraints: constraints, Context: ctx.String()}, nil
}
