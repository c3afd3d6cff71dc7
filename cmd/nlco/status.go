package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nlco-run/nlco/internal/ui"
	"github.com/nlco-run/nlco/pkg/store"
	flag "github.com/spf13/pflag"
)

type statusReport struct {
	ConstraintsTail      string `json:"constraints_tail"`
	ArtifactLastModified string `json:"artifact_last_modified"`
	MemoryBytes          int    `json:"memory_bytes"`
	ModelLogPath         string `json:"model_log_path"`
	StopRuleCounter      int    `json:"stop_rule_counter"`
	LastTrigger          string `json:"last_trigger"`
	LastAccepted         bool   `json:"last_accepted"`
	EngineSeen           bool   `json:"engine_seen"`
}

// runStatus is a read-only introspection command: it never takes a
// lock for writing and never starts the controller. The stop-rule
// counter and last iteration's outcome are read from the status
// snapshot `nlco run` writes after every iteration (see
// pkg/store.StatusStore); if the engine has never run, those fields
// report their zero values and EngineSeen is false.
func runStatus(args []string, globals GlobalFlags) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	asJSON := fs.Bool("json", globals.JSON, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		return err
	}

	backup := store.NewBackupRotator(cfg.BackupDir)
	constraints := store.NewConstraintsLog(cfg.ConstraintsPath, backup)
	artifact := store.NewArtifactStore(cfg.ArtifactPath, backup)
	memory := store.NewMemoryStore(cfg.MemoryPath, backup)
	statusStore := store.NewStatusStore(cfg.StatusPath)

	tail, err := constraints.Tail(20)
	if err != nil {
		return err
	}
	mtime, err := artifact.LastModified()
	if err != nil {
		return err
	}
	memText, err := memory.Show()
	if err != nil {
		return err
	}
	snap, err := statusStore.Read()
	if err != nil {
		return err
	}

	report := statusReport{
		ConstraintsTail: tail,
		MemoryBytes:     len(memText),
		ModelLogPath:    cfg.ModelLogPath,
		StopRuleCounter: snap.StopRuleCounter,
		LastTrigger:     snap.LastTrigger,
		LastAccepted:    snap.LastAccepted,
		EngineSeen:      !snap.UpdatedAt.IsZero(),
	}
	if !mtime.IsZero() {
		report.ArtifactLastModified = mtime.Format("2006-01-02T15:04:05Z07:00")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	ui.Header("nlco status")
	ui.Label("artifact last modified", orNone(report.ArtifactLastModified))
	ui.Label("memory size", fmt.Sprintf("%d bytes", report.MemoryBytes))
	ui.Label("model log", report.ModelLogPath)
	if report.EngineSeen {
		ui.Label("stop-rule counter", fmt.Sprintf("%d", report.StopRuleCounter))
		ui.Label("last iteration", fmt.Sprintf("%s (%s)", report.LastTrigger, acceptedLabel(report.LastAccepted)))
	} else {
		ui.Label("stop-rule counter", "(engine not yet run)")
	}
	ui.SubHeader("recent constraints")
	ui.Info(orNone(tail))
	return nil
}

func acceptedLabel(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "not accepted"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
