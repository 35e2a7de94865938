// Command seekgen assembles the goal-seeker program and writes it to disk.
// Usage: go run ./cmd/seekgen [-config file] [-out file]
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/uorlab/primeseek/internal/config"
	"github.com/uorlab/primeseek/internal/seeker"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty=built-in defaults)")
	out := flag.String("out", "", "Output path (empty=configured program file)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	prog, err := seeker.Generate(seeker.Config{
		InitialAttempt:         1,
		AttemptModulus:         cfg.Seeker.AttemptModulus,
		AttemptIncrement:       cfg.Seeker.AttemptIncrement,
		RandomOffsetMax:        cfg.Seeker.RandomOffsetMax,
		MaxFailuresBeforeStuck: cfg.Seeker.MaxFailuresBeforeStuck,
		StuckSignalValue:       cfg.Teacher.StuckSignalValue,
	})
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	path := *out
	if path == "" {
		path = cfg.Paths.ProgramFile
	}
	if err := seeker.SaveProgram(path, prog.Chunks); err != nil {
		log.Fatalf("save %s: %v", path, err)
	}

	fmt.Printf("wrote %d chunks to %s\n\nlabels:\n", len(prog.Chunks), path)
	names := make([]string, 0, len(prog.Labels))
	for name := range prog.Labels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return prog.Labels[names[i]] < prog.Labels[names[j]] })
	for _, name := range names {
		fmt.Printf("  %04d  %s\n", prog.Labels[name], name)
	}
}
