// Command nlco runs the natural-language constraint optimization
// iteration engine: a long-running loop that refines a free-form text
// artifact against a growing, append-only log of user constraints.
//
// Usage:
//
//	nlco init                     scaffold a new project in the current directory
//	nlco run [--metrics-addr] [--once]
//	                               start (or run one iteration of) the engine
//	nlco append <text>             append one constraint line
//	nlco status [--json]           print engine state
//
// Global flags: --config <path>, --json, --no-color, -v/-vv, -q.
package main

import (
	"fmt"
	"os"

	nlcoerrors "github.com/nlco-run/nlco/internal/errors"
	"github.com/nlco-run/nlco/internal/ui"
	flag "github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GlobalFlags carries the flags recognized before the subcommand name.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	NoColor    bool
	Verbose    int
	Quiet      bool
}

func logInfo(g GlobalFlags, format string, args ...any) {
	if g.Quiet {
		return
	}
	fmt.Printf(format+"\n", args...)
}

func logDebug(g GlobalFlags, format string, args ...any) {
	if g.Verbose < 1 || g.Quiet {
		return
	}
	fmt.Printf("debug: "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func main() {
	globals := GlobalFlags{}

	root := flag.NewFlagSet("nlco", flag.ContinueOnError)
	root.StringVarP(&globals.ConfigPath, "config", "c", "", "path to .nlco/project.yaml")
	root.BoolVar(&globals.JSON, "json", false, "emit machine-readable JSON output")
	root.BoolVar(&globals.NoColor, "no-color", false, "disable colored output")
	root.CountVarP(&globals.Verbose, "verbose", "v", "increase log verbosity (-v, -vv)")
	root.BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress non-error output")
	showVersion := root.BoolP("version", "V", false, "print version and exit")

	root.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: nlco <init|run|append|status> [flags]")
		root.PrintDefaults()
	}

	// pflag's default FlagSet keeps scanning for registered flags past
	// the first non-flag argument, so without this it would reject a
	// subcommand's own flags (e.g. `run --once`) as unknown on the root
	// set. SetInterspersed(false) makes it stop at the first non-flag
	// argument, leaving the subcommand name and its flags for the
	// subcommand's own FlagSet below.
	root.SetInterspersed(false)
	args := os.Args[1:]
	if err := root.Parse(args); err != nil {
		os.Exit(2)
	}

	if *showVersion {
		fmt.Printf("nlco %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if globals.NoColor {
		ui.Disable()
	} else {
		ui.AutoDetect()
	}

	rest := root.Args()
	if len(rest) == 0 {
		root.Usage()
		os.Exit(2)
	}

	cmd, cmdArgs := rest[0], rest[1:]

	var err error
	switch cmd {
	case "init":
		err = runInit(cmdArgs, globals)
	case "run":
		err = runRun(cmdArgs, globals)
	case "append":
		err = runAppend(cmdArgs, globals)
	case "status":
		err = runStatus(cmdArgs, globals)
	default:
		logError("unknown command %q", cmd)
		root.Usage()
		os.Exit(2)
	}

	if err != nil {
		nlcoerrors.FatalError(err, globals.JSON)
	}
}
