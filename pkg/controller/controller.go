// Package controller implements the iteration scheduler/state machine:
// it detects changes, triggers iterations against the frozen
// constraints/context snapshot, invokes the optional memory agent and
// the refiner, applies the acceptance policy, and writes back.
package controller

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nlco-run/nlco/pkg/contextbuilder"
	"github.com/nlco-run/nlco/pkg/memoryagent"
	"github.com/nlco-run/nlco/pkg/metrics"
	"github.com/nlco-run/nlco/pkg/refiner"
	"github.com/nlco-run/nlco/pkg/store"
)

// DefaultMaxIters is the per-CHANGE-burst iteration cap, overridable
// via NLCO_MAX_ITERS.
const DefaultMaxIters = 3

// Clock abstracts time.Now so tests can pin it; production code uses
// RealClock.
type Clock interface {
	Now() time.Time
}

// RealClock returns the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Config tunes the controller's policy knobs.
type Config struct {
	MaxIters      int
	MemoryEnabled bool
}

// Controller is the C11 state machine. It is single-threaded
// cooperative: RunBurst must not be called concurrently with itself.
type Controller struct {
	Constraints *store.ConstraintsLog
	Artifact    *store.ArtifactStore
	ModelLog    *store.ModelLog
	Context     *contextbuilder.Builder
	Memory      *memoryagent.Agent
	Refiner     *refiner.Refiner
	Metrics     *metrics.Registry
	// Status, if set, receives a snapshot of the stop-rule counter and
	// last iteration's outcome after every iteration, so a separate
	// one-shot process (nlco status) can observe engine progress
	// without talking to the running daemon directly.
	Status *store.StatusStore
	Clock  Clock
	Config Config

	// OnIterationStart, if set, is called before each iteration in a
	// burst with its index and the burst's total length — a hook for a
	// progress indicator on multi-iteration CHANGE bursts.
	OnIterationStart func(index, total int)

	mu               sync.Mutex
	phase            Phase
	lastObservedHash string
	stopRuleCounter  int
	lastArtifactHash string
}

// New returns a Controller with default policy knobs; callers
// typically override Config after construction (e.g. from
// NLCO_MAX_ITERS).
func New(constraints *store.ConstraintsLog, artifact *store.ArtifactStore, modelLog *store.ModelLog, ctxBuilder *contextbuilder.Builder, ref *refiner.Refiner) *Controller {
	return &Controller{
		Constraints: constraints,
		Artifact:    artifact,
		ModelLog:    modelLog,
		Context:     ctxBuilder,
		Refiner:     ref,
		Clock:       RealClock{},
		Config:      Config{MaxIters: DefaultMaxIters, MemoryEnabled: true},
		phase:       PhaseIdle,
	}
}

// Phase returns the controller's current state, for status reporting.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// StopRuleCounter returns the current consecutive-unchanged count.
func (c *Controller) StopRuleCounter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopRuleCounter
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

// RunBurst runs a burst of iterations according to the trigger's
// policy: up to Config.MaxIters consecutive iterations on CHANGE
// (stopping early on the unchanged-twice rule), or exactly one
// iteration on TICK/MANUAL. ctx cancellation aborts the in-flight
// iteration (if any) and returns without starting another.
func (c *Controller) RunBurst(ctx context.Context, trigger Trigger) ([]*IterationRecord, error) {
	limit := 1
	if trigger == TriggerChange {
		limit = c.Config.MaxIters
		if limit <= 0 {
			limit = DefaultMaxIters
		}
	}

	var records []*IterationRecord
	for i := 0; i < limit; i++ {
		if ctx.Err() != nil {
			c.setPhase(PhaseCancelling)
			c.setPhase(PhaseIdle)
			return records, ctx.Err()
		}

		if c.OnIterationStart != nil {
			c.OnIterationStart(i, limit)
		}

		rec, err := c.runIteration(ctx, trigger)
		records = append(records, rec)
		if err != nil {
			// A failed REFINE is logged by runIteration itself; the burst
			// stops here and the next trigger will try again. The error is
			// kept on the record whatever phase it came from.
			if rec.Err == nil {
				rec.Err = err
			}
			return records, nil
		}

		if c.stopRuleCounter >= 2 {
			break
		}
	}
	return records, nil
}

// runIteration executes exactly one DETECT-through-LOG pass.
func (c *Controller) runIteration(ctx context.Context, trigger Trigger) (*IterationRecord, error) {
	start := c.Clock.Now()
	rec := &IterationRecord{Trigger: trigger, StartedAt: start}

	// DETECT
	c.setPhase(PhaseDetect)
	hashC, err := c.Constraints.Hash()
	if err != nil {
		return rec, err
	}
	artifactBefore, err := c.Artifact.Read()
	if err != nil {
		return rec, err
	}
	hashA := store.HashString(artifactBefore)
	rec.ConstraintsHash = hashC
	rec.ArtifactHashIn = hashA

	lastUpdate, err := c.Artifact.LastModified()
	if err != nil {
		return rec, err
	}
	var sysState refiner.SystemState
	if !lastUpdate.IsZero() {
		sysState.LastArtifactUpdate = &lastUpdate
	}

	// BUILD — freeze constraints/context for the rest of this iteration.
	c.setPhase(PhaseBuild)
	assembled, err := c.Context.Assemble(start)
	if err != nil {
		return rec, err
	}

	// MEMORY (optional)
	if c.Config.MemoryEnabled && c.Memory != nil {
		c.setPhase(PhaseMemory)
		if _, err := c.Memory.Invoke(ctx, assembled.Constraints, assembled.Context); err != nil {
			log.Printf("controller: memory agent failed, continuing: %v", err)
		}
	}

	// REFINE
	c.setPhase(PhaseRefine)
	out, err := c.Refiner.Refine(ctx, assembled.Constraints, sysState, assembled.Context)
	if err != nil {
		rec.Accepted = false
		rec.Err = err
		c.logOutcome(rec, "", nil, start)
		c.updateStopRule(rec)
		c.writeStatus(rec, trigger, start)
		if c.Metrics != nil {
			c.Metrics.ObserveIteration(string(trigger), rec.Accepted, c.stopRuleCounter, c.Clock.Now().Sub(start))
		}
		c.setPhase(PhaseIdle)
		return rec, err
	}

	// ACCEPT — default policy is unconditional replace, except for the
	// LM-semantic-failure case spec §7 calls out by name: empty output
	// is treated as not-accepted and never overwrites the artifact.
	c.setPhase(PhaseAccept)
	if strings.TrimSpace(out.RefinedArtifact) == "" {
		rec.Accepted = false
		c.logOutcome(rec, out.RefinedArtifact, out.Reasoning, start)
		c.updateStopRule(rec)
		c.writeStatus(rec, trigger, start)
		if c.Metrics != nil {
			c.Metrics.ObserveIteration(string(trigger), rec.Accepted, c.stopRuleCounter, c.Clock.Now().Sub(start))
		}
		c.setPhase(PhaseIdle)
		return rec, nil
	}
	rec.Accepted = true

	// WRITE
	c.setPhase(PhaseWrite)
	if err := c.Artifact.Write(out.RefinedArtifact, start); err != nil {
		rec.Accepted = false
		rec.Err = err
		c.logOutcome(rec, out.RefinedArtifact, out.Reasoning, start)
		c.updateStopRule(rec)
		c.writeStatus(rec, trigger, start)
		if c.Metrics != nil {
			c.Metrics.ObserveIteration(string(trigger), rec.Accepted, c.stopRuleCounter, c.Clock.Now().Sub(start))
		}
		c.setPhase(PhaseIdle)
		return rec, err
	}
	rec.ArtifactHashOut = store.HashString(out.RefinedArtifact)

	// LOG — updateStopRule runs first since it may clear rec.Accepted
	// under the unchanged-twice rule, and the log record should reflect
	// that final outcome.
	c.setPhase(PhaseLog)
	c.updateStopRule(rec)
	c.logOutcome(rec, out.RefinedArtifact, out.Reasoning, start)
	c.writeStatus(rec, trigger, start)

	if c.Metrics != nil {
		c.Metrics.ObserveIteration(string(trigger), rec.Accepted, c.stopRuleCounter, c.Clock.Now().Sub(start))
	}

	c.setPhase(PhaseIdle)
	return rec, nil
}

func (c *Controller) logOutcome(rec *IterationRecord, output string, reasoning *string, now time.Time) {
	if c.ModelLog == nil {
		return
	}
	stage := "refiner"
	switch {
	case rec.Err != nil:
		output = fmt.Sprintf("error: %v", rec.Err)
		stage = "refiner_error"
	case strings.TrimSpace(output) == "":
		stage = "refiner_empty"
	case !rec.Accepted:
		stage = "refiner_unchanged"
	}
	c.ModelLog.Record(stage, output, reasoning, now)
}

// writeStatus persists the current stop-rule counter and this
// iteration's outcome so a separate one-shot process can observe
// engine progress. A no-op if Status is unset.
func (c *Controller) writeStatus(rec *IterationRecord, trigger Trigger, now time.Time) {
	if c.Status == nil {
		return
	}
	c.Status.Write(store.StatusSnapshot{
		UpdatedAt:       now,
		LastTrigger:     string(trigger),
		LastAccepted:    rec.Accepted,
		StopRuleCounter: c.StopRuleCounter(),
	})
}

// updateStopRule applies the unchanged-twice rule: a run whose
// artifact hash and constraints hash are both unchanged from the
// previous observation increments the counter; any change resets it.
// An unchanged run produced nothing worth accepting — the refiner
// returned the existing artifact verbatim against the same
// constraints — so it also clears rec.Accepted, regardless of the
// counter's distance from the burst-stopping threshold.
func (c *Controller) updateStopRule(rec *IterationRecord) {
	unchanged := rec.ArtifactHashOut != "" &&
		rec.ArtifactHashOut == rec.ArtifactHashIn &&
		rec.ConstraintsHash == c.lastObservedHash

	c.mu.Lock()
	if unchanged {
		c.stopRuleCounter++
	} else {
		c.stopRuleCounter = 0
	}
	c.lastObservedHash = rec.ConstraintsHash
	if rec.ArtifactHashOut != "" {
		c.lastArtifactHash = rec.ArtifactHashOut
	}
	c.mu.Unlock()

	if unchanged {
		rec.Accepted = false
	}
}
