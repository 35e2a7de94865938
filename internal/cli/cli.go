package cli

import (
	"flag"
	"fmt"
	"strings"
)

// Valid run modes.
const (
	ModeServe    = "serve"
	ModeRun      = "run"
	ModeBatch    = "batch"
	ModeGenerate = "generate"
)

// CLIArgs are the command-line arguments that control a serve, run, or
// batch invocation.
type CLIArgs struct {
	// Mode selects what to do: serve|run|batch|generate.
	Mode string

	// ConfigPath points at a YAML config file; empty uses built-in defaults.
	ConfigPath string

	// Strategy names the advisor for run/batch modes; empty uses the default.
	Strategy string

	// Goals is how many goals a run or each batch episode must complete.
	Goals int

	// Episodes is the batch size for batch mode.
	Episodes int

	// Concurrency overrides batch concurrency; 0 means "use default".
	Concurrency int

	// Seed fixes the random seed; 0 picks a time-based one.
	Seed int64

	// ProgramOut is where generate mode writes the assembled program;
	// empty uses the configured path.
	ProgramOut string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("primeseek", flag.ContinueOnError)
	var (
		mode        = fs.String("mode", ModeServe, "Run mode: serve|run|batch|generate")
		configPath  = fs.String("config", "", "Path to YAML config file (empty=built-in defaults)")
		strategy    = fs.String("strategy", "", "Advisor strategy for run/batch modes (empty=default)")
		goals       = fs.Int("goals", 1, "Goals to complete per session")
		episodes    = fs.Int("episodes", 1, "Episodes for batch mode")
		concurrency = fs.Int("concurrency", 0, "Batch concurrency (0=use default)")
		seed        = fs.Int64("seed", 0, "Random seed (0=time-based)")
		programOut  = fs.String("out", "", "Output path for generate mode (empty=configured path)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(nil)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch strings.TrimSpace(*mode) {
	case ModeServe, ModeRun, ModeBatch, ModeGenerate:
	default:
		return nil, fmt.Errorf("unknown -mode %q", *mode)
	}
	if *goals < 1 {
		return nil, fmt.Errorf("-goals must be at least 1")
	}
	if *episodes < 1 {
		return nil, fmt.Errorf("-episodes must be at least 1")
	}

	return &CLIArgs{
		Mode:        *mode,
		ConfigPath:  *configPath,
		Strategy:    *strategy,
		Goals:       *goals,
		Episodes:    *episodes,
		Concurrency: *concurrency,
		Seed:        *seed,
		ProgramOut:  *programOut,
		RawArgs:     args,
	}, nil
}
