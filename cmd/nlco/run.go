package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/nlco-run/nlco/internal/ui"
	"github.com/nlco-run/nlco/pkg/contextbuilder"
	"github.com/nlco-run/nlco/pkg/controller"
	"github.com/nlco-run/nlco/pkg/llm"
	"github.com/nlco-run/nlco/pkg/memoryagent"
	"github.com/nlco-run/nlco/pkg/metrics"
	"github.com/nlco-run/nlco/pkg/refiner"
	"github.com/nlco-run/nlco/pkg/store"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"
)

// runRun wires every store and component together and starts the
// long-running engine: an hourly ticker, a debounced constraints-file
// watcher feeding the CHANGE trigger, and (optionally) a /metrics
// endpoint. It blocks until SIGINT/SIGTERM, or returns immediately
// after one MANUAL iteration if --once is set.
func runRun(args []string, globals GlobalFlags) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	metricsAddr := fs.String("metrics-addr", "", "address to serve /metrics on, e.g. :9090")
	once := fs.Bool("once", false, "run a single MANUAL iteration and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		return err
	}

	backup := store.NewBackupRotator(cfg.BackupDir)
	constraintsLog := store.NewConstraintsLog(cfg.ConstraintsPath, backup)
	artifact := store.NewArtifactStore(cfg.ArtifactPath, backup)
	memory := store.NewMemoryStore(cfg.MemoryPath, backup)
	shortTerm := store.NewShortTermMemory(cfg.ShortTermMemoryPath)
	modelLog := store.NewModelLog(cfg.ModelLogPath)
	statusStore := store.NewStatusStore(cfg.StatusPath)

	var sideInputs []contextbuilder.SideInput
	if cfg.TimeTrackingEnabled {
		sideInputs = append(sideInputs, contextbuilder.NewFileSideInput("Last 72h events", cfg.TimeTrackingSidePath))
	}
	builder := contextbuilder.New(constraintsLog, artifact, memory, sideInputs...)

	client := llm.NewHTTPClient(
		llm.EndpointConfig{
			BaseURL: cfg.Primary.BaseURL, Model: cfg.Primary.Model, APIKey: cfg.Primary.APIKey,
			MaxTokens: cfg.Primary.MaxTokens, Temperature: cfg.Primary.Temperature,
			Timeout: time.Duration(cfg.Primary.TimeoutSec) * time.Second,
		},
		llm.EndpointConfig{
			BaseURL: cfg.Support.BaseURL, Model: cfg.Support.Model, APIKey: cfg.Support.APIKey,
			MaxTokens: cfg.Support.MaxTokens, Temperature: cfg.Support.Temperature,
			Timeout: time.Duration(cfg.Support.TimeoutSec) * time.Second,
		},
	)

	ref := refiner.New(client)
	c := controller.New(constraintsLog, artifact, modelLog, builder, ref)
	c.Config = controller.Config{MaxIters: cfg.MaxIters, MemoryEnabled: cfg.MemoryEnabled}
	c.Status = statusStore

	if cfg.MaxIters > 1 && isatty.IsTerminal(os.Stdout.Fd()) && !globals.Quiet {
		var bar *progressbar.ProgressBar
		c.OnIterationStart = func(index, total int) {
			if bar == nil || bar.GetMax() != total {
				bar = progressbar.Default(int64(total), "refining")
			}
			bar.Set(index)
		}
	}
	if cfg.MemoryEnabled {
		agent := memoryagent.New(client, memory, shortTerm)
		agent.StepBudget = cfg.MemoryStepBudget
		c.Memory = agent
	}

	var metricsReg *metrics.Registry
	ctx, cancel := signalContext()
	defer cancel()

	if *metricsAddr != "" {
		metricsReg = metrics.NewRegistry()
		c.Metrics = metricsReg
		go func() {
			if err := metricsReg.Serve(ctx, *metricsAddr); err != nil {
				logError("metrics server: %v", err)
			}
		}()
		logInfo(globals, "serving metrics on %s", *metricsAddr)
	}

	if *once {
		ui.Header("running one MANUAL iteration")
		records, err := c.RunBurst(ctx, controller.TriggerManual)
		if err != nil {
			return err
		}
		// RunBurst folds a per-iteration failure (e.g. REFINE erroring
		// out) into the record's Err field rather than returning it, so
		// a burst-level nil error alone doesn't mean the iteration
		// actually succeeded.
		for _, rec := range records {
			if rec.Err != nil {
				return rec.Err
			}
		}
		return nil
	}

	ui.Header("nlco engine starting")
	ui.Info("watching " + cfg.ConstraintsPath)

	watcher := controller.NewWatcher(cfg.ConstraintsPath)
	tickInterval := time.Duration(cfg.TickIntervalMinutes) * time.Minute

	return watcher.Run(ctx, tickInterval,
		func() {
			logDebug(globals, "CHANGE detected")
			if _, err := c.RunBurst(ctx, controller.TriggerChange); err != nil {
				logError("change burst: %v", err)
			}
		},
		func() {
			logDebug(globals, "TICK fired")
			if _, err := c.RunBurst(ctx, controller.TriggerTick); err != nil {
				logError("tick iteration: %v", err)
			}
		},
	)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, driving
// the controller's CANCELLING transition rather than killing the
// process mid-write.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
