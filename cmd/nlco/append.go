package main

import (
	"strings"
	"time"

	nlcoerrors "github.com/nlco-run/nlco/internal/errors"
	"github.com/nlco-run/nlco/internal/ui"
	"github.com/nlco-run/nlco/pkg/store"
)

// runAppend is one of the concurrent front-ends named in the
// concurrency model: it takes the lock, appends one line under
// today's heading, and exits. It never starts the controller.
func runAppend(args []string, globals GlobalFlags) error {
	if len(args) == 0 {
		return nlcoerrors.NewInputError(
			"missing constraint text",
			"nlco append requires text to append",
			`usage: nlco append "pick up milk"`,
			nil,
		)
	}

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	backup := store.NewBackupRotator(cfg.BackupDir)
	log := store.NewConstraintsLog(cfg.ConstraintsPath, backup)

	if err := log.AppendLine(text, time.Now()); err != nil {
		return nlcoerrors.NewIOError("cannot append constraint", cfg.ConstraintsPath, "check file and lock permissions", err)
	}

	if !globals.Quiet {
		ui.Success("appended: " + text)
	}
	return nil
}
