package main

import (
	"os"
	"path/filepath"

	nlcoerrors "github.com/nlco-run/nlco/internal/errors"
	"github.com/nlco-run/nlco/internal/ui"
	flag "github.com/spf13/pflag"
)

// runInit scaffolds a new project directory: the four core text files
// and a default .nlco/project.yaml, each created only if absent so
// the command is safe to re-run.
func runInit(args []string, globals GlobalFlags) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.Usage = func() { ui.Info("usage: nlco init [directory]") }
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := "."
	if rest := fs.Args(); len(rest) > 0 {
		dir = rest[0]
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nlcoerrors.NewInternalError("cannot resolve project directory", dir, "", err)
	}

	if err := os.MkdirAll(absDir, 0750); err != nil {
		return nlcoerrors.NewPermissionError("cannot create project directory", absDir, "check directory permissions", err)
	}

	cfg := DefaultConfig(absDir)
	configPath := ConfigPath(absDir)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(cfg, configPath); err != nil {
			return err
		}
		ui.Success("created " + configPath)
	} else {
		ui.Info("config already exists: " + configPath)
	}

	files := []string{cfg.ConstraintsPath, cfg.ArtifactPath, cfg.MemoryPath, cfg.ShortTermMemoryPath}
	for _, path := range files {
		if _, err := os.Stat(path); err == nil {
			ui.Info("already exists: " + path)
			continue
		}
		if err := os.WriteFile(path, nil, 0640); err != nil {
			return nlcoerrors.NewPermissionError("cannot create file", path, "check directory permissions", err)
		}
		ui.Success("created " + path)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.ModelLogPath), 0750); err != nil {
		return nlcoerrors.NewPermissionError("cannot create state directory", filepath.Dir(cfg.ModelLogPath), "", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.StatusPath), 0750); err != nil {
		return nlcoerrors.NewPermissionError("cannot create state directory", filepath.Dir(cfg.StatusPath), "", err)
	}
	if err := os.MkdirAll(cfg.BackupDir, 0750); err != nil {
		return nlcoerrors.NewPermissionError("cannot create backup directory", cfg.BackupDir, "", err)
	}

	ui.Header("Project ready at " + absDir)
	return nil
}
